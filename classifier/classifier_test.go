package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soilscan/types"
)

func TestClassifyRules(t *testing.T) {
	tests := []struct {
		name  string
		color types.RGBColor
		want  types.SoilType
		rule  string
	}{
		{"black", types.RGBColor{R: 30, G: 25, B: 20}, types.SoilVertisol, "dark"},
		{"dark gray also near gray", types.RGBColor{R: 40, G: 40, B: 40}, types.SoilVertisol, "dark"},
		{"laterite red", types.RGBColor{R: 180, G: 70, B: 40}, types.SoilFerrallitique, "strong-red-low-blue"},
		{"red wins over reddish brown", types.RGBColor{R: 150, G: 120, B: 60}, types.SoilFerrallitique, "strong-red-low-blue"},
		{"reddish brown with high blue", types.RGBColor{R: 160, G: 140, B: 110}, types.SoilFerrugineux, "reddish-brown"},
		{"green dominant brown", types.RGBColor{R: 120, G: 125, B: 90}, types.SoilFerrugineux, "reddish-brown"},
		{"gray", types.RGBColor{R: 120, G: 125, B: 130}, types.SoilHydromorphe, "near-gray"},
		{"pure blue falls back", types.RGBColor{R: 0, G: 0, B: 255}, types.SoilFerrugineux, DefaultRuleName},
		{"pure white is gray", types.RGBColor{R: 255, G: 255, B: 255}, types.SoilHydromorphe, "near-gray"},
		{"boundary 80 is not dark", types.RGBColor{R: 80, G: 80, B: 80}, types.SoilHydromorphe, "near-gray"},
		{"boundary r=130 not strong red", types.RGBColor{R: 130, G: 60, B: 50}, types.SoilFerrugineux, DefaultRuleName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := Explain(tt.color)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.want, Classify(tt.color))
		})
	}
}

func TestClassifyIsTotalAndOrdered(t *testing.T) {
	valid := map[types.SoilType]bool{}
	for _, s := range types.AllSoilTypes() {
		valid[s] = true
	}

	ordered := Rules()
	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				c := types.RGBColor{R: r, G: g, B: b}
				got := Classify(c)
				if !valid[got] {
					t.Fatalf("Classify(%v) = %q, not a known soil type", c, got)
				}

				want := DefaultSoil
				for _, rule := range ordered {
					if rule.Match(c) {
						want = rule.Soil
						break
					}
				}
				if got != want {
					t.Fatalf("Classify(%v) = %q, first matching rule gives %q", c, got, want)
				}
			}
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := types.RGBColor{R: 140, G: 100, B: 70}
	first := Classify(c)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(c))
	}
}
