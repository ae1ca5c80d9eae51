package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/ir"
)

// Run statuses.
const (
	StatusOK      = "ok"      // every declared namespace emitted
	StatusPartial = "partial" // some namespaces were skipped
	StatusFailed  = "failed"  // the run aborted before emission
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Output is one file recorded for a run.
type Output struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

// RunRecord is what a caller hands to RecordRun.
type RunRecord struct {
	ManifestDigest string
	RunDigest      string
	Status         string
	Namespaces     int
	Failed         []string
	Outputs        []Output
	Diagnostics    []ir.Diagnostic
}

// Run is a recorded run.
type Run struct {
	ID             string   `json:"id"`
	Seq            int64    `json:"seq"`
	ManifestDigest string   `json:"manifest_digest"`
	RunDigest      string   `json:"run_digest"`
	Status         string   `json:"status"`
	Namespaces     int      `json:"namespaces"`
	Files          int      `json:"files"`
	Failed         []string `json:"failed"`
}

// Comparison lists the paths that differ between two runs, each sorted.
type Comparison struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Empty reports whether both runs produced the same tree.
func (c Comparison) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// RecordRun appends a run with its outputs and diagnostics in one
// transaction and returns it with its assigned ID and seq.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (Run, error) {
	if rec.Status == "" {
		rec.Status = StatusOK
	}
	failed := rec.Failed
	if failed == nil {
		failed = []string{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return Run{}, errors.Wrap(err, "record run")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, errors.Wrap(err, "record run: begin")
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, errors.Wrap(err, "record run: next seq")
	}

	run := Run{
		ID:             uuid.NewString(),
		Seq:            seq,
		ManifestDigest: rec.ManifestDigest,
		RunDigest:      rec.RunDigest,
		Status:         rec.Status,
		Namespaces:     rec.Namespaces,
		Files:          len(rec.Outputs),
		Failed:         failed,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, manifest_digest, run_digest, status, namespaces, files, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.ManifestDigest, run.RunDigest, run.Status, run.Namespaces, run.Files, string(failedJSON))
	if err != nil {
		return Run{}, errors.Wrap(err, "record run: insert run")
	}

	for _, o := range rec.Outputs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outputs (run_id, path, digest, size) VALUES (?, ?, ?, ?)
		`, run.ID, o.Path, o.Digest, o.Size); err != nil {
			return Run{}, errors.Wrapf(err, "record run: output %s", o.Path)
		}
	}

	for i, d := range rec.Diagnostics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, seq, severity, code, namespace, entity, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i+1, string(d.Severity), d.Code, d.Namespace, d.Entity, d.Message); err != nil {
			return Run{}, errors.Wrap(err, "record run: diagnostic")
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, errors.Wrap(err, "record run: commit")
	}
	return run, nil
}

const runColumns = `id, seq, manifest_digest, run_digest, status, namespaces, files, failed`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r      Run
		failed string
	)
	if err := row.Scan(&r.ID, &r.Seq, &r.ManifestDigest, &r.RunDigest, &r.Status, &r.Namespaces, &r.Files, &failed); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(failed), &r.Failed); err != nil {
		return Run{}, errors.Wrapf(err, "run %s: decode failed namespaces", r.ID)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list runs: scan")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list runs: iterate")
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return Run{}, errors.Wrapf(err, "get run %s", id)
	}
	return r, nil
}

// Outputs returns the files of a run ordered by path.
func (s *Store) Outputs(ctx context.Context, runID string) ([]Output, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, digest, size FROM outputs WHERE run_id = ? ORDER BY path ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "read outputs")
	}
	defer rows.Close()

	var out []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Path, &o.Digest, &o.Size); err != nil {
			return nil, errors.Wrap(err, "read outputs: scan")
		}
		out = append(out, o)
	}
	return out, errors.Wrap(rows.Err(), "read outputs: iterate")
}

// Diagnostics returns the diagnostics of a run in recorded order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]ir.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT severity, code, namespace, entity, message
		FROM diagnostics WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "read diagnostics")
	}
	defer rows.Close()

	var out []ir.Diagnostic
	for rows.Next() {
		var (
			d        ir.Diagnostic
			severity string
		)
		if err := rows.Scan(&severity, &d.Code, &d.Namespace, &d.Entity, &d.Message); err != nil {
			return nil, errors.Wrap(err, "read diagnostics: scan")
		}
		d.Severity = ir.Severity(severity)
		out = append(out, d)
	}
	return out, errors.Wrap(rows.Err(), "read diagnostics: iterate")
}

// FirstSeen returns the earliest run that emitted path with digest.
func (s *Store) FirstSeen(ctx context.Context, path, digest string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.seq, r.manifest_digest, r.run_digest, r.status, r.namespaces, r.files, r.failed
		FROM outputs o JOIN runs r ON r.id = o.run_id
		WHERE o.digest = ? AND o.path = ?
		ORDER BY r.seq ASC LIMIT 1
	`, digest, path)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Wrapf(ErrRunNotFound, "no run emitted %s at %s", path, digest)
	}
	if err != nil {
		return Run{}, errors.Wrap(err, "first seen")
	}
	return r, nil
}

// CompareRuns diffs the file digests of run from against run to.
func (s *Store) CompareRuns(ctx context.Context, from, to string) (Comparison, error) {
	a, err := s.Outputs(ctx, from)
	if err != nil {
		return Comparison{}, err
	}
	b, err := s.Outputs(ctx, to)
	if err != nil {
		return Comparison{}, err
	}
	c := Diff(a, b)
	c.From, c.To = from, to
	return c, nil
}

// Diff compares two output sets by path.
func Diff(from, to []Output) Comparison {
	before := make(map[string]string, len(from))
	for _, o := range from {
		before[o.Path] = o.Digest
	}
	after := make(map[string]string, len(to))
	for _, o := range to {
		after[o.Path] = o.Digest
	}

	c := Comparison{Added: []string{}, Removed: []string{}, Changed: []string{}}
	for p, d := range after {
		old, ok := before[p]
		switch {
		case !ok:
			c.Added = append(c.Added, p)
		case old != d:
			c.Changed = append(c.Changed, p)
		}
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			c.Removed = append(c.Removed, p)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Removed)
	sort.Strings(c.Changed)
	return c
}
