package payment

// Package is a fixed chip bundle offered for purchase. Chips includes Bonus.
type Package struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Chips       int64  `json:"chips"`
	Bonus       int64  `json:"bonus"`
	PriceCents  int64  `json:"price_cents"`
	Popular     bool   `json:"popular"`
	Description string `json:"description"`
}

var catalog = []Package{
	{ID: "starter", Name: "Starter Pack", Chips: 1000, PriceCents: 499},
	{ID: "popular", Name: "Popular Pack", Chips: 3000, Bonus: 500, PriceCents: 999, Popular: true},
	{ID: "premium", Name: "Premium Pack", Chips: 6500, Bonus: 1500, PriceCents: 1999},
	{ID: "ultimate", Name: "Ultimate Pack", Chips: 14000, Bonus: 4000, PriceCents: 3499},
}

func Packages() []Package {
	out := make([]Package, len(catalog))
	for i, p := range catalog {
		p.Description = describe(p)
		out[i] = p
	}
	return out
}

func FindPackage(id string) (Package, bool) {
	for _, p := range Packages() {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
