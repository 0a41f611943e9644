package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    source TEXT,
    created_at TEXT,
    mode TEXT,
    preset TEXT,
    threshold REAL,
    confidence REAL,
    is_likely_ai INTEGER,
    risk_level TEXT,
    config_json TEXT,
    result_json TEXT
);

CREATE TABLE IF NOT EXISTS feature_scores (
    id INTEGER PRIMARY KEY,
    analysis_id TEXT,
    feature TEXT,
    score REAL,
    explanation TEXT
);

CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_feature_scores_analysis ON feature_scores(analysis_id);
`

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
