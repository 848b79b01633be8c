package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"soilscan/logging"
	"soilscan/types"
)

// columnSetters maps every accepted header (English and the original French
// knowledge-base names) to the record field it fills
var columnSetters = map[string]func(*types.ReferenceRecord, string){
	"soil_type":             func(r *types.ReferenceRecord, v string) { r.SoilType = v },
	"type_de_sol":           func(r *types.ReferenceRecord, v string) { r.SoilType = v },
	"locality":              func(r *types.ReferenceRecord, v string) { r.Locality = v },
	"ville":                 func(r *types.ReferenceRecord, v string) { r.Locality = v },
	"recommended_crop":      func(r *types.ReferenceRecord, v string) { r.RecommendedCrop = v },
	"culture_recommandee":   func(r *types.ReferenceRecord, v string) { r.RecommendedCrop = v },
	"market_demand":         func(r *types.ReferenceRecord, v string) { r.MarketDemand = types.MarketDemand(v) },
	"besoin_marche":         func(r *types.ReferenceRecord, v string) { r.MarketDemand = types.MarketDemand(v) },
	"ph":                    func(r *types.ReferenceRecord, v string) { r.PH = v },
	"n":                     func(r *types.ReferenceRecord, v string) { r.Nitrogen = v },
	"p":                     func(r *types.ReferenceRecord, v string) { r.Phosphorus = v },
	"k":                     func(r *types.ReferenceRecord, v string) { r.Potassium = v },
	"fertilizer_type":       func(r *types.ReferenceRecord, v string) { r.FertilizerType = v },
	"type_engrais":          func(r *types.ReferenceRecord, v string) { r.FertilizerType = v },
	"fertilizer_formula":    func(r *types.ReferenceRecord, v string) { r.FertilizerFormula = v },
	"formule_npk":           func(r *types.ReferenceRecord, v string) { r.FertilizerFormula = v },
	"application_frequency": func(r *types.ReferenceRecord, v string) { r.ApplicationFrequency = v },
	"frequence_application": func(r *types.ReferenceRecord, v string) { r.ApplicationFrequency = v },
	"application_mode":      func(r *types.ReferenceRecord, v string) { r.ApplicationMode = v },
	"mode_application":      func(r *types.ReferenceRecord, v string) { r.ApplicationMode = v },
	"yield_per_hectare":     func(r *types.ReferenceRecord, v string) { r.YieldPerHectare = v },
	"rendement_par_hectare": func(r *types.ReferenceRecord, v string) { r.YieldPerHectare = v },
}

// requiredColumns lists, per logical column, the header names that satisfy it
var requiredColumns = [][]string{
	{"soil_type", "type_de_sol"},
	{"locality", "ville"},
	{"recommended_crop", "culture_recommandee"},
	{"market_demand", "besoin_marche"},
	{"ph"},
	{"n"},
	{"p"},
	{"k"},
	{"fertilizer_type", "type_engrais"},
	{"fertilizer_formula", "formule_npk"},
	{"application_frequency", "frequence_application"},
	{"application_mode", "mode_application"},
	{"yield_per_hectare", "rendement_par_hectare"},
}

// LoadCSV reads the knowledge base from a CSV file
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open knowledge base %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read knowledge base %s: %w", path, err)
	}

	logging.LogInfo("Loaded %d reference records from %s", len(records), path)
	return NewTable(records), nil
}

// ReadCSV parses knowledge-base rows. The first row must be a header naming
// every required column; unknown columns are ignored.
func ReadCSV(r io.Reader) ([]types.ReferenceRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// short rows keep loading; their missing trailing cells stay empty
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty knowledge base: missing header row")
		}
		return nil, fmt.Errorf("cannot read header: %w", err)
	}

	setters := make([]func(*types.ReferenceRecord, string), len(header))
	present := make(map[string]bool, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		present[key] = true
		setters[i] = columnSetters[key]
	}

	for _, aliases := range requiredColumns {
		if !anyPresent(present, aliases) {
			return nil, fmt.Errorf("missing required column %q", aliases[0])
		}
	}

	var records []types.ReferenceRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var rec types.ReferenceRecord
		for i, value := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&rec, strings.TrimSpace(value))
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func anyPresent(present map[string]bool, aliases []string) bool {
	for _, a := range aliases {
		if present[a] {
			return true
		}
	}
	return false
}
