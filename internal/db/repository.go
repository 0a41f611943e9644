package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
)

var ErrNotFound = errors.New("analysis not found")

// Analysis is one persisted detection run together with the configuration
// that produced it.
type Analysis struct {
	ID         string
	Source     string
	CreatedAt  time.Time
	Mode       string
	Preset     string
	Threshold  float64
	Confidence float64
	IsLikelyAI bool
	Risk       string
	ConfigJSON string
	ResultJSON string
	Features   []FeatureRow
}

type FeatureRow struct {
	Feature     string
	Score       float64
	Explanation string
}

// RecordFromResult builds an Analysis with a fresh ID.
func RecordFromResult(source string, cfg aidetect.Config, res hybrid.Result, now time.Time) (Analysis, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return Analysis{}, fmt.Errorf("marshal config: %w", err)
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return Analysis{}, fmt.Errorf("marshal result: %w", err)
	}
	preset := cfg.Preset
	if preset == "" {
		preset = "custom"
	}
	mode := string(res.Mode)
	if mode == "" {
		mode = string(hybrid.ModeHeuristic)
	}

	rec := Analysis{
		ID:         uuid.NewString(),
		Source:     source,
		CreatedAt:  now.UTC(),
		Mode:       mode,
		Preset:     preset,
		Threshold:  cfg.Threshold,
		Confidence: res.Confidence,
		IsLikelyAI: res.IsLikelyAI,
		Risk:       string(res.Risk),
		ConfigJSON: string(cfgJSON),
		ResultJSON: string(resJSON),
	}
	for _, f := range aidetect.AllFeatures {
		fs, ok := res.FeatureScores[f]
		if !ok {
			continue
		}
		rec.Features = append(rec.Features, FeatureRow{Feature: string(f), Score: fs.Score, Explanation: fs.Explanation})
	}
	return rec, nil
}

func SaveAnalysis(dbPath string, a Analysis) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("save analysis: empty id")
	}
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO analyses(id, source, created_at, mode, preset, threshold, confidence, is_likely_ai, risk_level, config_json, result_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID,
		a.Source,
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
		a.Mode,
		a.Preset,
		a.Threshold,
		a.Confidence,
		boolToInt(a.IsLikelyAI),
		a.Risk,
		a.ConfigJSON,
		a.ResultJSON,
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	for _, f := range a.Features {
		if _, err := tx.Exec(
			`INSERT INTO feature_scores(analysis_id, feature, score, explanation) VALUES(?,?,?,?)`,
			a.ID, f.Feature, f.Score, f.Explanation,
		); err != nil {
			return fmt.Errorf("insert feature score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListAnalyses returns the newest analyses first, without feature rows. A
// non-positive limit returns every row.
func ListAnalyses(dbPath string, limit int) ([]Analysis, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `SELECT id, source, created_at, mode, preset, threshold, confidence, is_likely_ai, risk_level, config_json, result_json FROM analyses ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}

func GetAnalysis(dbPath, id string) (Analysis, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return Analysis{}, err
	}
	defer conn.Close()

	row := conn.QueryRow(`SELECT id, source, created_at, mode, preset, threshold, confidence, is_likely_ai, risk_level, config_json, result_json FROM analyses WHERE id = ?`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Analysis{}, err
	}

	rows, err := conn.Query(`SELECT feature, score, explanation FROM feature_scores WHERE analysis_id = ? ORDER BY id`, id)
	if err != nil {
		return Analysis{}, fmt.Errorf("query feature scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f FeatureRow
		if err := rows.Scan(&f.Feature, &f.Score, &f.Explanation); err != nil {
			return Analysis{}, fmt.Errorf("scan feature score: %w", err)
		}
		a.Features = append(a.Features, f)
	}
	if err := rows.Err(); err != nil {
		return Analysis{}, fmt.Errorf("iterate feature scores: %w", err)
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (Analysis, error) {
	var (
		a         Analysis
		createdAt string
		likelyAI  int
	)
	if err := s.Scan(&a.ID, &a.Source, &createdAt, &a.Mode, &a.Preset, &a.Threshold, &a.Confidence, &likelyAI, &a.Risk, &a.ConfigJSON, &a.ResultJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, err
		}
		return Analysis{}, fmt.Errorf("scan analysis: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Analysis{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	a.CreatedAt = ts
	a.IsLikelyAI = likelyAI != 0
	return a, nil
}

var countableTables = map[string]bool{"analyses": true, "feature_scores": true}

func CountRows(dbPath, table string) (int, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, table)
}

func countRowsConn(conn *sql.DB, table string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
