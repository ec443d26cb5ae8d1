package audit

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_run_store.go -package=mocks documind/internal/audit RunStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("reconcile run not found")

const timeLayout = time.RFC3339Nano

// RunStore persists reconciliation runs and their findings.
type RunStore interface {
	// StartRun records a running run and returns its id.
	StartRun(ctx context.Context, userID string, startedAt time.Time) (string, error)
	// AddFindings appends findings to a run atomically.
	AddFindings(ctx context.Context, runID string, findings []Finding) error
	// FinishRun sets the terminal state of a run.
	FinishRun(ctx context.Context, runID string, status RunStatus, documentsChecked int, runErr string) error
	// GetRun returns a run with its findings or ErrRunNotFound.
	GetRun(ctx context.Context, runID string) (*Run, error)
	// ListRuns returns the most recent runs of userID, newest first.
	ListRuns(ctx context.Context, userID string, limit int) ([]Run, error)
}

// Ledger is the SQLite RunStore.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// NewLedger creates a Ledger over a migrated database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

func (l *Ledger) StartRun(ctx context.Context, userID string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO reconcile_runs (id, user_id, status, started_at) VALUES (?, ?, ?, ?)",
		id, userID, string(RunRunning), startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert reconcile run: %w", err)
	}
	return id, nil
}

func (l *Ledger) AddFindings(ctx context.Context, runID string, findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reconcile_findings (run_id, kind, doc_id, detail, metadata_chunks, vector_points, graph_chunks)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare finding insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		_, err := stmt.ExecContext(ctx, runID, string(f.Kind), f.DocID, f.Detail,
			nullInt(f.MetadataChunks), nullInt(f.VectorPoints), nullInt(f.GraphChunks))
		if err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE reconcile_runs SET findings_count = findings_count + ? WHERE id = ?",
		len(findings), runID)
	if err != nil {
		return fmt.Errorf("failed to update findings count: %w", err)
	}

	return tx.Commit()
}

func (l *Ledger) FinishRun(ctx context.Context, runID string, status RunStatus, documentsChecked int, runErr string) error {
	res, err := l.db.ExecContext(ctx,
		"UPDATE reconcile_runs SET status = ?, finished_at = ?, documents_checked = ?, error = ? WHERE id = ?",
		string(status), l.now().UTC().Format(timeLayout), documentsChecked, nullString(runErr), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish reconcile run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (l *Ledger) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, started_at, finished_at, documents_checked, findings_count, error
		 FROM reconcile_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile run: %w", err)
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, doc_id, detail, metadata_chunks, vector_points, graph_chunks
		 FROM reconcile_findings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Finding
		var kind string
		var meta, vec, graph sql.NullInt64
		if err := rows.Scan(&kind, &f.DocID, &f.Detail, &meta, &vec, &graph); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.Kind = FindingKind(kind)
		f.MetadataChunks = intPtr(meta)
		f.VectorPoints = intPtr(vec)
		f.GraphChunks = intPtr(graph)
		run.Findings = append(run.Findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}

	return run, nil
}

func (l *Ledger) ListRuns(ctx context.Context, userID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, status, started_at, finished_at, documents_checked, findings_count, error
		 FROM reconcile_runs WHERE user_id = ? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconcile runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconcile run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconcile runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var status, startedAt string
	var finishedAt, runErr sql.NullString
	err := s.Scan(&run.ID, &run.UserID, &status, &startedAt, &finishedAt, &run.DocumentsChecked, &run.FindingsCount, &runErr)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = runErr.String

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
