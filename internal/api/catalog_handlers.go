package api

import (
	"errors"
	"net/http"

	"github.com/hearthbroth/hearthbroth/internal/catalog"
	"github.com/hearthbroth/hearthbroth/internal/pricing"
)

type tierResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Containers     int      `json:"containers"`
	Size           string   `json:"size"`
	WeeklyPrice    string   `json:"weekly_price"`
	FirstWeekPrice string   `json:"first_week_price"`
	Popular        bool     `json:"popular"`
	Features       []string `json:"features"`
}

func toTierResponse(t catalog.Tier) tierResponse {
	return tierResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Containers:     t.Containers,
		Size:           t.Size,
		WeeklyPrice:    t.WeeklyPrice.StringFixed(2),
		FirstWeekPrice: pricing.FirstWeekPrice(t.WeeklyPrice).StringFixed(2),
		Popular:        t.Popular,
		Features:       t.Features,
	}
}

// handleListTiers returns the tier catalog plus the allocation presets
// the split step offers.
func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := make([]tierResponse, 0, len(s.catalog.List()))
	for _, t := range s.catalog.List() {
		tiers = append(tiers, toTierResponse(t))
	}

	presets := make([]map[string]any, 0, len(pricing.Presets))
	for _, p := range pricing.Presets {
		presets = append(presets, map[string]any{
			"id":            p.ID,
			"label":         p.Label,
			"chicken_share": p.ChickenShare,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tiers":   tiers,
		"presets": presets,
	})
}

// handleGetTier returns a single tier.
func (s *Server) handleGetTier(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.Get(r.PathValue("tierID"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tier not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "catalog error")
		return
	}
	writeJSON(w, http.StatusOK, toTierResponse(t))
}

// handleServiceArea reports whether a ZIP is inside the delivery zone.
func (s *Server) handleServiceArea(w http.ResponseWriter, r *http.Request) {
	zip := r.PathValue("zip")
	writeJSON(w, http.StatusOK, map[string]any{
		"zip":         zip,
		"serviceable": s.area.Serviceable(zip),
	})
}
