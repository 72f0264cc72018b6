// Package servicearea decides whether an address is inside the
// delivery zone. Out-of-area signups divert to interest capture.
package servicearea

// defaultZIPs is the current delivery zone: Arlington, Belmont,
// Woburn, Winchester, Concord, Lexington, Burlington.
var defaultZIPs = []string{
	"02474", "02476", "02478", "01801", "01890",
	"01742", "02420", "02421", "01803",
}

// Area is a fixed allow-list of deliverable ZIP codes. The check is
// synchronous and local; no network call is involved.
type Area struct {
	zips map[string]struct{}
}

// New builds an area from the given ZIPs, falling back to the default
// delivery zone when none are provided.
func New(zips []string) *Area {
	if len(zips) == 0 {
		zips = defaultZIPs
	}
	a := &Area{zips: make(map[string]struct{}, len(zips))}
	for _, z := range zips {
		a.zips[z] = struct{}{}
	}
	return a
}

// Serviceable reports whether the ZIP is inside the delivery zone.
func (a *Area) Serviceable(zip string) bool {
	_, ok := a.zips[zip]
	return ok
}

// ZIPs returns the allow-list, for diagnostics.
func (a *Area) ZIPs() []string {
	out := make([]string, 0, len(a.zips))
	for z := range a.zips {
		out = append(out, z)
	}
	return out
}
