package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ramonehamilton/DeckTuner/internal/deck"
	"github.com/ramonehamilton/DeckTuner/internal/sim"
)

// Run is a stored simulation run summary.
type Run struct {
	ID                int64
	CreatedAt         time.Time
	DeckName          string
	DeckHash          string
	Seed              int64
	Requested         int
	Completed         int
	Partial           bool
	MeanMulligans     float64
	MulliganHistogram []int
	Warnings          []string
	Conditions        []RunCondition
}

// RunCondition is one stored (condition, turn, percent) point.
type RunCondition struct {
	Name       string
	TargetTurn int
	Turn       int
	Percent    float64
}

// DeckHash fingerprints a deck's contents (names and quantities, order
// independent) so stored runs of the same list can be grouped.
func DeckHash(d *deck.Deck) string {
	lines := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		lines = append(lines, fmt.Sprintf("%d %s", c.Quantity, c.Name))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SaveRun stores a finalized result.
func (db *DB) SaveRun(ctx context.Context, deckHash string, res *sim.Result) (int64, error) {
	histogram, err := json.Marshal(res.MulliganHistogram)
	if err != nil {
		return 0, fmt.Errorf("marshal histogram: %w", err)
	}
	warnings, err := json.Marshal(res.Warnings)
	if err != nil {
		return 0, fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO simulation_runs
			(deck_name, deck_hash, seed, requested, completed, partial, mean_mulligans, mulligan_histogram, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.DeckName, deckHash, res.Seed, res.Requested, res.Trials, res.Partial,
		res.MeanMulligans, string(histogram), string(warnings),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_conditions (run_id, name, target_turn, turn, percent)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare condition insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, cr := range res.Conditions {
		for t, pct := range cr.PercentByTurn {
			if _, err := stmt.ExecContext(ctx, runID, cr.Name, cr.TargetTurn, t+1, pct); err != nil {
				return 0, fmt.Errorf("insert condition point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetRun loads a stored run with its condition curve.
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	run := &Run{ID: id}
	var histogram, warnings string
	err := db.conn.QueryRowContext(ctx, `
		SELECT created_at, deck_name, deck_hash, seed, requested, completed, partial,
			mean_mulligans, mulligan_histogram, warnings
		FROM simulation_runs WHERE id = ?`, id).Scan(
		&run.CreatedAt, &run.DeckName, &run.DeckHash, &run.Seed,
		&run.Requested, &run.Completed, &run.Partial,
		&run.MeanMulligans, &histogram, &warnings,
	)
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(histogram), &run.MulliganHistogram); err != nil {
		return nil, fmt.Errorf("parse histogram: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("parse warnings: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, target_turn, turn, percent
		FROM run_conditions WHERE run_id = ? ORDER BY name, turn`, id)
	if err != nil {
		return nil, fmt.Errorf("load run conditions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var rc RunCondition
		if err := rows.Scan(&rc.Name, &rc.TargetTurn, &rc.Turn, &rc.Percent); err != nil {
			return nil, fmt.Errorf("scan condition point: %w", err)
		}
		run.Conditions = append(run.Conditions, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate condition points: %w", err)
	}
	return run, nil
}

// ListRuns returns stored run summaries (no condition curves), newest first,
// optionally filtered by deck hash.
func (db *DB) ListRuns(ctx context.Context, deckHash string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, deck_name, deck_hash, seed, requested, completed, partial, mean_mulligans
		FROM simulation_runs`
	args := []any{}
	if deckHash != "" {
		query += " WHERE deck_hash = ?"
		args = append(args, deckHash)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.DeckName, &run.DeckHash,
			&run.Seed, &run.Requested, &run.Completed, &run.Partial, &run.MeanMulligans); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
