package types

import "strings"

// RGBColor holds one colour with each channel in [0,255]
type RGBColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// SoilType is one of the closed set of soil categories
type SoilType string

// Known soil types
const (
	SoilVertisol      SoilType = "Vertisol"
	SoilFerrallitique SoilType = "Ferrallitique"
	SoilFerrugineux   SoilType = "Ferrugineux"
	SoilHydromorphe   SoilType = "Hydromorphe"
)

// AllSoilTypes returns the soil types in declaration order
func AllSoilTypes() []SoilType {
	return []SoilType{SoilVertisol, SoilFerrallitique, SoilFerrugineux, SoilHydromorphe}
}

// MarketDemand is the demand label of a reference record
type MarketDemand string

// Known demand levels
const (
	DemandLow    MarketDemand = "Low"
	DemandMedium MarketDemand = "Medium"
	DemandHigh   MarketDemand = "High"
)

// Rank returns the ordinal priority of a demand label.
// The knowledge base ships French labels (Faible/Moyenne/Forte), both are accepted.
// Unknown labels rank 0.
func (d MarketDemand) Rank() int {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "high", "forte":
		return 3
	case "medium", "moyenne":
		return 2
	case "low", "faible":
		return 1
	default:
		return 0
	}
}

// ReferenceRecord is one row of the knowledge base.
// Numeric columns keep their raw text and are coerced when a record is selected.
type ReferenceRecord struct {
	SoilType             string       `json:"soil_type" db:"soil_type"`
	Locality             string       `json:"locality" db:"locality"`
	RecommendedCrop      string       `json:"recommended_crop" db:"recommended_crop"`
	MarketDemand         MarketDemand `json:"market_demand" db:"market_demand"`
	PH                   string       `json:"ph" db:"ph"`
	Nitrogen             string       `json:"n" db:"nitrogen"`
	Phosphorus           string       `json:"p" db:"phosphorus"`
	Potassium            string       `json:"k" db:"potassium"`
	FertilizerType       string       `json:"fertilizer_type" db:"fertilizer_type"`
	FertilizerFormula    string       `json:"fertilizer_formula" db:"fertilizer_formula"`
	ApplicationFrequency string       `json:"application_frequency" db:"application_frequency"`
	ApplicationMode      string       `json:"application_mode" db:"application_mode"`
	YieldPerHectare      string       `json:"yield_per_hectare" db:"yield_per_hectare"`
}

// Agronomics holds the numeric fields of a record after coercion
type Agronomics struct {
	PH              float64 `json:"ph"`
	Nitrogen        float64 `json:"n"`
	Phosphorus      float64 `json:"p"`
	Potassium       float64 `json:"k"`
	YieldPerHectare float64 `json:"yield_per_hectare"`
}

// MatchTier is the specificity at which a record was found
type MatchTier string

// Match tiers, most specific first
const (
	TierExactCityAndSoil MatchTier = "exact_city_and_soil"
	TierSoilOnly         MatchTier = "soil_only"
	TierCityOnly         MatchTier = "city_only"
	TierNone             MatchTier = "none"
)

// MatchResult is the outcome of a recommendation lookup
type MatchResult struct {
	Matched             bool             `json:"matched"`
	Tier                MatchTier        `json:"match_tier"`
	Message             string           `json:"match_level"`
	Record              *ReferenceRecord `json:"record,omitempty"`
	Agronomics          *Agronomics      `json:"agronomics,omitempty"`
	EstimatedTotalYield *float64         `json:"estimated_total_yield,omitempty"`
}

// PredictionResult is the structured answer of one pipeline run
type PredictionResult struct {
	PredictedSoilType SoilType  `json:"predicted_soil_type"`
	DominantColor     RGBColor  `json:"dominant_color"`
	Locality          string    `json:"locality"`
	Area              float64   `json:"area"`
	Found             bool      `json:"found"`
	MatchTier         MatchTier `json:"match_tier"`
	MatchLevel        string    `json:"match_level"`

	RecommendedCrop      string       `json:"recommended_crop,omitempty"`
	PH                   *float64     `json:"ph,omitempty"`
	Nitrogen             *float64     `json:"n,omitempty"`
	Phosphorus           *float64     `json:"p,omitempty"`
	Potassium            *float64     `json:"k,omitempty"`
	MarketDemand         MarketDemand `json:"market_demand,omitempty"`
	FertilizerType       string       `json:"fertilizer_type,omitempty"`
	FertilizerFormula    string       `json:"fertilizer_formula,omitempty"`
	ApplicationFrequency string       `json:"application_frequency,omitempty"`
	ApplicationMode      string       `json:"application_mode,omitempty"`
	EstimatedYield       string       `json:"estimated_yield,omitempty"`
}
