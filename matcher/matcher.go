// Package matcher looks up the agronomic recommendation for a soil type and
// locality in the reference table.
//
// Lookup strategies are tried from most to least specific and the first one
// that finds any row decides the tier. Among the rows it finds, the one with
// the highest market demand wins, earlier rows winning ties.
package matcher

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"soilscan/database"
	"soilscan/logging"
	"soilscan/types"
)

// SquareMetersPerHectare converts an area in m² to hectares
const SquareMetersPerHectare = 10000.0

// Strategy finds candidate rows for one match tier
type Strategy struct {
	Tier       types.MatchTier
	Candidates func(table *database.Table, soil types.SoilType, locality string) []int
}

var strategies = []Strategy{
	{
		Tier: types.TierExactCityAndSoil,
		Candidates: func(table *database.Table, soil types.SoilType, locality string) []int {
			return intersect(table.PositionsBySoil(string(soil)), table.PositionsByLocality(locality))
		},
	},
	{
		Tier: types.TierSoilOnly,
		Candidates: func(table *database.Table, soil types.SoilType, _ string) []int {
			return table.PositionsBySoil(string(soil))
		},
	},
	{
		Tier: types.TierCityOnly,
		Candidates: func(table *database.Table, _ types.SoilType, locality string) []int {
			return table.PositionsByLocality(locality)
		},
	},
}

// Strategies returns a copy of the ordered lookup strategies
func Strategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

// Matcher answers lookups against a loaded knowledge base
type Matcher struct {
	source *database.Source
}

// New returns a matcher over source. If the source failed to load, every
// Match call fails with table_unavailable.
func New(source *database.Source) *Matcher {
	return &Matcher{source: source}
}

// Ready returns the table_unavailable error when the knowledge base did not load
func (m *Matcher) Ready() error {
	_, err := m.source.Table()
	return err
}

// Match finds the best record for soil and locality and estimates the yield of areaM2
func (m *Matcher) Match(soil types.SoilType, locality string, areaM2 float64) (types.MatchResult, error) {
	table, err := m.source.Table()
	if err != nil {
		return types.MatchResult{}, err
	}
	return MatchTable(table, soil, locality, areaM2)
}

// MatchTable runs the tiered lookup against table
func MatchTable(table *database.Table, soil types.SoilType, locality string, areaM2 float64) (types.MatchResult, error) {
	if table == nil {
		return types.MatchResult{}, types.NewAppError(types.ErrCodeTableUnavailable, "knowledge base is not loaded", nil)
	}

	for _, s := range strategies {
		positions := s.Candidates(table, soil, locality)
		if len(positions) == 0 {
			continue
		}

		best := bestByDemand(table, positions)
		record := table.Record(best)

		agro, err := Coerce(record)
		if err != nil {
			return types.MatchResult{}, types.NewAppErrorWithDetails(types.ErrCodeDataIntegrity,
				"reference record has invalid numeric data", err,
				map[string]any{"position": best, "soil_type": record.SoilType, "locality": record.Locality})
		}

		yield := EstimateYield(areaM2, agro.YieldPerHectare)
		logging.DebugLog("Matched %s/%s at tier %s (row %d, crop %s)", soil, locality, s.Tier, best, record.RecommendedCrop)

		return types.MatchResult{
			Matched:             true,
			Tier:                s.Tier,
			Message:             TierMessage(s.Tier, soil, locality),
			Record:              &record,
			Agronomics:          &agro,
			EstimatedTotalYield: &yield,
		}, nil
	}

	logging.DebugLog("No reference data for %s/%s", soil, locality)
	return types.MatchResult{
		Matched: false,
		Tier:    types.TierNone,
		Message: TierMessage(types.TierNone, soil, locality),
	}, nil
}

// bestByDemand returns the position with the highest demand rank; the first wins ties.
// positions must be non-empty and ascending.
func bestByDemand(table *database.Table, positions []int) int {
	best := positions[0]
	bestRank := table.Record(best).MarketDemand.Rank()
	for _, p := range positions[1:] {
		if r := table.Record(p).MarketDemand.Rank(); r > bestRank {
			best, bestRank = p, r
		}
	}
	return best
}

// Coerce parses the numeric fields of record
func Coerce(record types.ReferenceRecord) (types.Agronomics, error) {
	var agro types.Agronomics
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"ph", record.PH, &agro.PH},
		{"n", record.Nitrogen, &agro.Nitrogen},
		{"p", record.Phosphorus, &agro.Phosphorus},
		{"k", record.Potassium, &agro.Potassium},
		{"yield_per_hectare", record.YieldPerHectare, &agro.YieldPerHectare},
	}

	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return types.Agronomics{}, fmt.Errorf("field %s: cannot parse %q: %w", f.name, f.raw, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.Agronomics{}, fmt.Errorf("field %s: %q is not a finite number", f.name, f.raw)
		}
		*f.dst = v
	}

	if agro.YieldPerHectare < 0 {
		return types.Agronomics{}, fmt.Errorf("field yield_per_hectare: negative value %v", agro.YieldPerHectare)
	}
	return agro, nil
}

// EstimateYield returns the total yield in tons for areaM2 square meters.
// A negative or non-finite area counts as 0.
func EstimateYield(areaM2, yieldPerHectare float64) float64 {
	if math.IsNaN(areaM2) || math.IsInf(areaM2, 0) || areaM2 <= 0 {
		return 0
	}
	return areaM2 / SquareMetersPerHectare * yieldPerHectare
}

// TierMessage is the explanation shown to the user for a match tier
func TierMessage(tier types.MatchTier, soil types.SoilType, locality string) string {
	switch tier {
	case types.TierExactCityAndSoil:
		return "Exact match for your locality and soil type."
	case types.TierSoilOnly:
		return fmt.Sprintf("Note: no data for '%s', showing a general recommendation for %s soil.", locality, soil)
	case types.TierCityOnly:
		return fmt.Sprintf("Note: soil type not in the knowledge base, showing a general recommendation for the '%s' region.", locality)
	default:
		return "Sorry, no information is available for this soil type and locality."
	}
}

// intersect returns the positions present in both ascending lists
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
