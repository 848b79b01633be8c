package matcher

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilscan/database"
	"soilscan/types"
)

func record(soil, locality, crop string, demand types.MarketDemand, yield string) types.ReferenceRecord {
	return types.ReferenceRecord{
		SoilType:        soil,
		Locality:        locality,
		RecommendedCrop: crop,
		MarketDemand:    demand,
		PH:              "6.5",
		Nitrogen:        "120",
		Phosphorus:      "60",
		Potassium:       "40",
		FertilizerType:  "NPK",
		YieldPerHectare: yield,
	}
}

func referenceTable() *database.Table {
	return database.NewTable([]types.ReferenceRecord{
		record("Ferrugineux", "Lomé", "Maïs", "Moyenne", "4.5"),
		record("Ferrugineux", "Kara", "Sorgho", "Forte", "2.0"),
		record("Hydromorphe", "Cotonou", "Riz", "Faible", "3.0"),
		record("Hydromorphe", "Cotonou", "Taro", "Moyenne", "5.0"),
		record("Ferrugineux", "Lomé", "Manioc", "Forte", "12.0"),
		record("Vertisol", "Tamale", "Coton", "High", "1.5"),
	})
}

func TestMatchTiers(t *testing.T) {
	tests := []struct {
		name     string
		soil     types.SoilType
		locality string
		tier     types.MatchTier
		crop     string
	}{
		{"exact picks highest demand", types.SoilFerrugineux, "Lomé", types.TierExactCityAndSoil, "Manioc"},
		{"exact is case-insensitive", types.SoilFerrugineux, "LOMÉ", types.TierExactCityAndSoil, "Manioc"},
		{"soil only when locality unknown", types.SoilHydromorphe, "Lomé", types.TierSoilOnly, "Taro"},
		{"city only when soil unknown", types.SoilFerrallitique, "Cotonou", types.TierCityOnly, "Taro"},
		{"soil tier wins over city tier", types.SoilVertisol, "Cotonou", types.TierSoilOnly, "Coton"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MatchTable(referenceTable(), tt.soil, tt.locality, 10000)
			require.NoError(t, err)
			assert.True(t, result.Matched)
			assert.Equal(t, tt.tier, result.Tier)
			require.NotNil(t, result.Record)
			assert.Equal(t, tt.crop, result.Record.RecommendedCrop)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestSoilOnlyUsesOnlySoilFilter(t *testing.T) {
	table := database.NewTable([]types.ReferenceRecord{
		record("Ferrugineux", "Lomé", "Maïs", "High", "4.5"),
		record("Hydromorphe", "Cotonou", "Riz", "Low", "3.0"),
	})

	result, err := MatchTable(table, types.SoilHydromorphe, "Lomé", 0)
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, types.TierSoilOnly, result.Tier)
	assert.Equal(t, "Hydromorphe", result.Record.SoilType)
	assert.Contains(t, result.Message, "Lomé")
}

func TestNoMatchIsNotAnError(t *testing.T) {
	result, err := MatchTable(referenceTable(), types.SoilFerrallitique, "Niamey", 20000)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, types.TierNone, result.Tier)
	assert.Nil(t, result.Record)
	assert.Nil(t, result.EstimatedTotalYield)
	assert.NotEmpty(t, result.Message)
}

func TestArgmaxIsStable(t *testing.T) {
	table := database.NewTable([]types.ReferenceRecord{
		record("Ferrugineux", "Lomé", "Sorgho", "Low", "1.0"),
		record("Ferrugineux", "Lomé", "Maïs", "High", "4.5"),
		record("Ferrugineux", "Lomé", "Arachide", "High", "2.0"),
		record("Ferrugineux", "Lomé", "Manioc", "Medium", "9.0"),
	})

	for i := 0; i < 10; i++ {
		result, err := MatchTable(table, types.SoilFerrugineux, "Lomé", 0)
		require.NoError(t, err)
		assert.Equal(t, "Maïs", result.Record.RecommendedCrop)
	}
}

func TestUnknownDemandRanksBelowLow(t *testing.T) {
	table := database.NewTable([]types.ReferenceRecord{
		record("Vertisol", "Kara", "Sorgho", "", "1.0"),
		record("Vertisol", "Kara", "Coton", "Faible", "1.0"),
	})

	result, err := MatchTable(table, types.SoilVertisol, "Kara", 0)
	require.NoError(t, err)
	assert.Equal(t, "Coton", result.Record.RecommendedCrop)
}

func TestYieldComputation(t *testing.T) {
	table := database.NewTable([]types.ReferenceRecord{
		record("Ferrugineux", "Lomé", "Maïs", "High", "5.0"),
	})

	result, err := MatchTable(table, types.SoilFerrugineux, "Lomé", 20000)
	require.NoError(t, err)
	require.NotNil(t, result.EstimatedTotalYield)
	assert.InDelta(t, 10.0, *result.EstimatedTotalYield, 1e-9)
	assert.InDelta(t, 5.0, result.Agronomics.YieldPerHectare, 1e-9)
	assert.InDelta(t, 6.5, result.Agronomics.PH, 1e-9)
}

func TestEstimateYieldFallsBackToZeroArea(t *testing.T) {
	assert.Equal(t, 0.0, EstimateYield(0, 5))
	assert.Equal(t, 0.0, EstimateYield(-100, 5))
	assert.Equal(t, 0.0, EstimateYield(math.NaN(), 5))
	assert.Equal(t, 0.0, EstimateYield(math.Inf(1), 5))
	assert.InDelta(t, 0.25, EstimateYield(500, 5), 1e-12)
}

func TestDataIntegrityErrors(t *testing.T) {
	bad := []types.ReferenceRecord{
		record("Vertisol", "Kara", "Sorgho", "High", "n/a"),
		record("Vertisol", "Kara", "Sorgho", "High", "-1"),
		record("Vertisol", "Kara", "Sorgho", "High", "NaN"),
		func() types.ReferenceRecord {
			r := record("Vertisol", "Kara", "Sorgho", "High", "2.0")
			r.PH = ""
			return r
		}(),
	}

	for _, rec := range bad {
		_, err := MatchTable(database.NewTable([]types.ReferenceRecord{rec}), types.SoilVertisol, "Kara", 100)
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrCodeDataIntegrity), "got %v", err)
	}
}

func TestCoerceOnlyTouchesSelectedRecord(t *testing.T) {
	table := database.NewTable([]types.ReferenceRecord{
		record("Vertisol", "Kara", "Sorgho", "High", "2.0"),
		record("Vertisol", "Kara", "Coton", "Low", "corrupt"),
	})

	result, err := MatchTable(table, types.SoilVertisol, "Kara", 0)
	require.NoError(t, err)
	assert.Equal(t, "Sorgho", result.Record.RecommendedCrop)
}

func TestTableUnavailablePersists(t *testing.T) {
	m := New(database.LoadSource(func() (*database.Table, error) {
		return nil, errors.New("knowledge base missing")
	}))

	assert.True(t, types.IsCode(m.Ready(), types.ErrCodeTableUnavailable))
	assert.NoError(t, New(database.NewSource(referenceTable())).Ready())

	for i := 0; i < 5; i++ {
		_, err := m.Match(types.SoilVertisol, "Kara", 100)
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrCodeTableUnavailable))
	}

	_, err := MatchTable(nil, types.SoilVertisol, "Kara", 100)
	assert.True(t, types.IsCode(err, types.ErrCodeTableUnavailable))
}

func TestStrategiesOrder(t *testing.T) {
	var tiers []types.MatchTier
	for _, s := range Strategies() {
		tiers = append(tiers, s.Tier)
	}
	assert.Equal(t, []types.MatchTier{types.TierExactCityAndSoil, types.TierSoilOnly, types.TierCityOnly}, tiers)
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []int{2, 5}, intersect([]int{1, 2, 5, 7}, []int{2, 3, 5}))
	assert.Empty(t, intersect([]int{1}, nil))
}
