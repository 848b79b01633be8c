// Package classifier maps a dominant soil colour to a soil type.
//
// The rules overlap, so they are evaluated top to bottom and the first match
// wins. A colour that matches no rule falls back to Ferrugineux.
package classifier

import "soilscan/types"

// Rule pairs a colour predicate with the soil type it selects
type Rule struct {
	Name  string
	Match func(c types.RGBColor) bool
	Soil  types.SoilType
}

// DefaultRuleName is reported by Explain when no rule matched
const DefaultRuleName = "default"

// DefaultSoil is returned when no rule matches
const DefaultSoil = types.SoilFerrugineux

var rules = []Rule{
	{
		Name: "dark",
		Match: func(c types.RGBColor) bool {
			return c.R < 80 && c.G < 80 && c.B < 80
		},
		Soil: types.SoilVertisol,
	},
	{
		Name: "strong-red-low-blue",
		Match: func(c types.RGBColor) bool {
			return c.R > c.G && c.R > c.B && c.R > 130 && c.B < 100
		},
		Soil: types.SoilFerrallitique,
	},
	{
		Name: "reddish-brown",
		Match: func(c types.RGBColor) bool {
			return c.R > c.B && c.G > c.B && (c.R-c.G) < 50 && c.R > 100
		},
		Soil: types.SoilFerrugineux,
	},
	{
		Name: "near-gray",
		Match: func(c types.RGBColor) bool {
			return abs(c.R-c.G) < 40 && abs(c.R-c.B) < 40 && abs(c.G-c.B) < 40
		},
		Soil: types.SoilHydromorphe,
	},
}

// Rules returns a copy of the ordered rule list
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the soil type for a dominant colour
func Classify(c types.RGBColor) types.SoilType {
	soil, _ := Explain(c)
	return soil
}

// Explain returns the soil type and the name of the rule that selected it
func Explain(c types.RGBColor) (types.SoilType, string) {
	for _, r := range rules {
		if r.Match(c) {
			return r.Soil, r.Name
		}
	}
	return DefaultSoil, DefaultRuleName
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
