package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"soilscan/logging"
	"soilscan/types"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS reference_records (
	position INTEGER PRIMARY KEY,
	soil_type TEXT NOT NULL,
	locality TEXT NOT NULL,
	recommended_crop TEXT,
	market_demand TEXT,
	ph TEXT,
	nitrogen TEXT,
	phosphorus TEXT,
	potassium TEXT,
	fertilizer_type TEXT,
	fertilizer_formula TEXT,
	application_frequency TEXT,
	application_mode TEXT,
	yield_per_hectare TEXT
);
CREATE INDEX IF NOT EXISTS idx_soil_type ON reference_records(soil_type COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_locality ON reference_records(locality COLLATE NOCASE);`

// storedRecord is a reference record together with its table position
type storedRecord struct {
	Position int `db:"position"`
	types.ReferenceRecord
}

// InitDatabase opens the sqlite knowledge base, creating the schema if needed
func InitDatabase(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", dbPath, err)
	}

	return db, nil
}

// OpenDatabase opens an existing knowledge base without touching the schema
func OpenDatabase(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %s: %w", dbPath, err)
	}
	return db, nil
}

// ImportRecords replaces the stored knowledge base with records, keeping their order
func ImportRecords(db *sqlx.DB, records []types.ReferenceRecord) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("cannot begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM reference_records"); err != nil {
		return fmt.Errorf("cannot clear reference records: %w", err)
	}

	stmt, err := tx.PrepareNamed(`
		INSERT INTO reference_records (
			position, soil_type, locality, recommended_crop, market_demand, ph, nitrogen, phosphorus,
			potassium, fertilizer_type, fertilizer_formula, application_frequency, application_mode,
			yield_per_hectare
		) VALUES (
			:position, :soil_type, :locality, :recommended_crop, :market_demand, :ph, :nitrogen, :phosphorus,
			:potassium, :fertilizer_type, :fertilizer_formula, :application_frequency, :application_mode,
			:yield_per_hectare
		)`)
	if err != nil {
		return fmt.Errorf("cannot prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.Exec(storedRecord{Position: i, ReferenceRecord: rec}); err != nil {
			return fmt.Errorf("cannot insert record %d (%s/%s): %w", i, rec.SoilType, rec.Locality, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit import: %w", err)
	}

	logging.DebugLog("Imported %d reference records", len(records))
	return nil
}

// LoadRecords reads the stored knowledge base in table order
func LoadRecords(db *sqlx.DB) ([]types.ReferenceRecord, error) {
	var rows []storedRecord
	err := db.Select(&rows, `
		SELECT position, soil_type, locality,
			COALESCE(recommended_crop, '') AS recommended_crop,
			COALESCE(market_demand, '') AS market_demand,
			COALESCE(ph, '') AS ph,
			COALESCE(nitrogen, '') AS nitrogen,
			COALESCE(phosphorus, '') AS phosphorus,
			COALESCE(potassium, '') AS potassium,
			COALESCE(fertilizer_type, '') AS fertilizer_type,
			COALESCE(fertilizer_formula, '') AS fertilizer_formula,
			COALESCE(application_frequency, '') AS application_frequency,
			COALESCE(application_mode, '') AS application_mode,
			COALESCE(yield_per_hectare, '') AS yield_per_hectare
		FROM reference_records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("cannot query reference records: %w", err)
	}

	records := make([]types.ReferenceRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ReferenceRecord
	}
	return records, nil
}

// LoadTable reads the sqlite knowledge base at dbPath into a Table
func LoadTable(dbPath string) (*Table, error) {
	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	records, err := LoadRecords(db)
	if err != nil {
		return nil, err
	}

	logging.LogInfo("Loaded %d reference records from %s", len(records), dbPath)
	return NewTable(records), nil
}

// KnowledgeBaseStats summarizes the stored knowledge base
type KnowledgeBaseStats struct {
	TotalRecords int `db:"total_records"`
	SoilTypes    int `db:"soil_types"`
	Localities   int `db:"localities"`
}

// GetStats retrieves statistics about the stored knowledge base
func GetStats(db *sqlx.DB) (*KnowledgeBaseStats, error) {
	var stats KnowledgeBaseStats
	err := db.Get(&stats, `
		SELECT COUNT(*) AS total_records,
			COUNT(DISTINCT LOWER(soil_type)) AS soil_types,
			COUNT(DISTINCT LOWER(locality)) AS localities
		FROM reference_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge base stats: %w", err)
	}
	return &stats, nil
}
