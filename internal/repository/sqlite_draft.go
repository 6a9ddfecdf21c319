package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/rfpilot/internal/db"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/google/uuid"
)

// SQLiteDraftRepo implements DraftRepo using a SQLite database.
type SQLiteDraftRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
	now func() time.Time
}

// NewSQLiteDraftRepo creates a new SQLiteDraftRepo. Multi-statement
// operations run inside a transaction opened on database.
func NewSQLiteDraftRepo(database *sql.DB) *SQLiteDraftRepo {
	return NewSQLiteDraftRepoWithUoW(database, db.NewSQLiteUnitOfWork(database))
}

// NewSQLiteDraftRepoWithUoW creates a SQLiteDraftRepo whose transactions are
// managed by uow. A nil uow runs every statement directly on conn.
func NewSQLiteDraftRepoWithUoW(conn db.DBTX, uow db.UnitOfWork) *SQLiteDraftRepo {
	return &SQLiteDraftRepo{db: conn, uow: uow, now: time.Now}
}

const draftColumns = `id, step, files_json, analysis_json, trends_json, strategy_json, matches_json, created_at, last_updated`

func (r *SQLiteDraftRepo) withTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	if r.uow == nil {
		return fn(ctx, r.db)
	}
	return r.uow.WithinTx(ctx, fn)
}

func (r *SQLiteDraftRepo) Create(ctx context.Context, files []domain.FileMeta) (string, error) {
	if err := domain.ValidateEach(files); err != nil {
		return "", fmt.Errorf("creating draft: %w", err)
	}
	filesJSON, err := encodeList(files)
	if err != nil {
		return "", fmt.Errorf("encoding files: %w", err)
	}

	id := uuid.New().String()
	now := formatTime(r.now())
	query := `INSERT INTO drafts (id, step, files_json, created_at, last_updated) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, id, int(domain.StepUpload), filesJSON, now, now); err != nil {
		return "", fmt.Errorf("inserting draft: %w", err)
	}
	return id, nil
}

func (r *SQLiteDraftRepo) GetByID(ctx context.Context, id string) (*domain.Draft, error) {
	return getDraft(ctx, r.db, id)
}

func (r *SQLiteDraftRepo) List(ctx context.Context) ([]*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts ORDER BY last_updated DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*domain.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts: %w", err)
	}
	return drafts, nil
}

func (r *SQLiteDraftRepo) Update(ctx context.Context, id string, patch domain.DraftPatch) (*domain.Draft, error) {
	if patch.Step.Set && !patch.Step.Value.Valid() {
		return nil, fmt.Errorf("updating draft: invalid step %d", int(patch.Step.Value))
	}

	var updated *domain.Draft
	err := r.withTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		d, err := getDraft(ctx, tx, id)
		if err != nil {
			return err
		}
		d.Apply(patch, r.now())
		if err := writeDraft(ctx, tx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SQLiteDraftRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepo) Archive(ctx context.Context, id string, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: got %q", domain.ErrInvalidOutcome, outcome)
	}

	var record *domain.HistoricalProposal
	err := r.withTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		d, err := getDraft(ctx, tx, id)
		if err != nil {
			return err
		}
		p, err := domain.NewHistoricalProposal(d, outcome, r.now())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting archived draft: %w", err)
		}
		if err := NewSQLiteHistoryRepo(tx).Create(ctx, p); err != nil {
			return err
		}
		record = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func getDraft(ctx context.Context, conn db.DBTX, id string) (*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ?`
	d, err := scanDraft(conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return d, err
}

func writeDraft(ctx context.Context, conn db.DBTX, d *domain.Draft) error {
	analysis, err := nullableJSON(d.Analysis, d.Analysis != nil)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	trends, err := nullableJSON(d.Trends, d.Trends != nil)
	if err != nil {
		return fmt.Errorf("encoding trends: %w", err)
	}
	strategy, err := nullableJSON(d.SelectedStrategy, d.SelectedStrategy != nil)
	if err != nil {
		return fmt.Errorf("encoding strategy: %w", err)
	}
	matches, err := nullableJSON(d.Matches, d.Matches != nil)
	if err != nil {
		return fmt.Errorf("encoding matches: %w", err)
	}

	query := `UPDATE drafts SET step = ?, analysis_json = ?, trends_json = ?, strategy_json = ?, matches_json = ?, last_updated = ?
		WHERE id = ?`
	res, err := conn.ExecContext(ctx, query,
		int(d.Step), analysis, trends, strategy, matches, formatTime(d.LastUpdated), d.ID)
	if err != nil {
		return fmt.Errorf("updating draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("draft %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
	var d domain.Draft
	var step int
	var filesJSON, createdAtStr, lastUpdatedStr string
	var analysisJSON, trendsJSON, strategyJSON, matchesJSON sql.NullString

	err := row.Scan(&d.ID, &step, &filesJSON,
		&analysisJSON, &trendsJSON, &strategyJSON, &matchesJSON,
		&createdAtStr, &lastUpdatedStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning draft: %w", err)
	}
	d.Step = domain.Step(step)

	if err := decodeJSON(sql.NullString{String: filesJSON, Valid: true}, &d.Files, "files_json"); err != nil {
		return nil, err
	}
	if err := decodeJSON(analysisJSON, &d.Analysis, "analysis_json"); err != nil {
		return nil, err
	}
	if err := decodeJSON(trendsJSON, &d.Trends, "trends_json"); err != nil {
		return nil, err
	}
	if err := decodeJSON(strategyJSON, &d.SelectedStrategy, "strategy_json"); err != nil {
		return nil, err
	}
	if err := decodeJSON(matchesJSON, &d.Matches, "matches_json"); err != nil {
		return nil, err
	}

	if d.LastUpdated, err = parseTime(lastUpdatedStr); err != nil {
		return nil, fmt.Errorf("parsing last_updated: %w", err)
	}
	return &d, nil
}
