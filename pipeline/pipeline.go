// Package pipeline turns one soil photo plus a locality and an area into a
// prediction: dominant colour, soil type, then the matching recommendation.
package pipeline

import (
	"context"
	"strings"

	"soilscan/classifier"
	"soilscan/logging"
	"soilscan/types"
	"soilscan/utils"
)

// ColorExtractor reduces an image to its dominant colour
type ColorExtractor interface {
	ExtractDominantColor(data []byte) (types.RGBColor, error)
	ExtractDominantColorFile(path string) (types.RGBColor, error)
}

// RecommendationMatcher finds the recommendation for a soil type and locality.
// Ready reports a missing knowledge base before any image work is done.
type RecommendationMatcher interface {
	Ready() error
	Match(soil types.SoilType, locality string, areaM2 float64) (types.MatchResult, error)
}

// Request is the input of one pipeline run. Image takes precedence over ImagePath.
type Request struct {
	Image     []byte
	ImagePath string
	Locality  string
	Area      string
}

// Orchestrator runs the three stages in order
type Orchestrator struct {
	extractor ColorExtractor
	matcher   RecommendationMatcher
}

// New creates an orchestrator
func New(extractor ColorExtractor, matcher RecommendationMatcher) *Orchestrator {
	return &Orchestrator{extractor: extractor, matcher: matcher}
}

// Run executes the pipeline for req. The context is only checked between
// stages; a clustering run that has started always completes.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.PredictionResult, error) {
	if err := o.matcher.Ready(); err != nil {
		return nil, err
	}

	locality := strings.TrimSpace(req.Locality)
	if len(req.Image) == 0 && strings.TrimSpace(req.ImagePath) == "" {
		return nil, types.NewAppError(types.ErrCodeMissingInput, "soil image is required", nil)
	}
	if locality == "" {
		return nil, types.NewAppError(types.ErrCodeMissingInput, "locality is required", nil)
	}
	area := utils.ParseArea(req.Area)

	color, err := o.extract(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	soil, rule := classifier.Explain(color)
	logging.DebugLog("Dominant colour %v classified as %s by rule %s", color, soil, rule)

	match, err := o.matcher.Match(soil, locality, area)
	if err != nil {
		return nil, err
	}

	return buildResult(color, soil, locality, area, match), nil
}

func (o *Orchestrator) extract(req Request) (types.RGBColor, error) {
	if len(req.Image) > 0 {
		return o.extractor.ExtractDominantColor(req.Image)
	}
	return o.extractor.ExtractDominantColorFile(req.ImagePath)
}

func buildResult(color types.RGBColor, soil types.SoilType, locality string, area float64, match types.MatchResult) *types.PredictionResult {
	result := &types.PredictionResult{
		PredictedSoilType: types.SoilType(utils.Capitalize(string(soil))),
		DominantColor:     color,
		Locality:          utils.Capitalize(locality),
		Area:              area,
		Found:             match.Matched,
		MatchTier:         match.Tier,
		MatchLevel:        match.Message,
	}
	if !match.Matched || match.Record == nil || match.Agronomics == nil {
		return result
	}

	rec, agro := match.Record, match.Agronomics
	result.RecommendedCrop = rec.RecommendedCrop
	result.PH = &agro.PH
	result.Nitrogen = &agro.Nitrogen
	result.Phosphorus = &agro.Phosphorus
	result.Potassium = &agro.Potassium
	result.MarketDemand = rec.MarketDemand
	result.FertilizerType = rec.FertilizerType
	result.FertilizerFormula = rec.FertilizerFormula
	result.ApplicationFrequency = rec.ApplicationFrequency
	result.ApplicationMode = rec.ApplicationMode

	var yield float64
	if match.EstimatedTotalYield != nil {
		yield = *match.EstimatedTotalYield
	}
	result.EstimatedYield = utils.FormatYield(yield)
	return result
}
