package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/db"
	"github.com/alexanderramin/rfpilot/internal/domain"
)

// SQLiteHistoryRepo implements HistoryRepo using a SQLite database.
type SQLiteHistoryRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteHistoryRepo creates a SQLiteHistoryRepo on conn. When conn is a
// *sql.DB, CreateAll runs in its own transaction; otherwise conn is assumed
// to be a transaction already.
func NewSQLiteHistoryRepo(conn db.DBTX) *SQLiteHistoryRepo {
	r := &SQLiteHistoryRepo{db: conn}
	if database, ok := conn.(*sql.DB); ok {
		r.uow = db.NewSQLiteUnitOfWork(database)
	}
	return r
}

// NewSQLiteHistoryRepoWithUoW creates a SQLiteHistoryRepo whose batch
// inserts are managed by uow.
func NewSQLiteHistoryRepoWithUoW(conn db.DBTX, uow db.UnitOfWork) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: conn, uow: uow}
}

const historyColumns = `id, draft_id, title, client_name, industry, date, tags_json, file_name, status, quality_json, created_at`

func (r *SQLiteHistoryRepo) Create(ctx context.Context, p *domain.HistoricalProposal) error {
	tags, err := encodeList(p.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	quality, err := nullableJSON(p.Quality, p.Quality != nil)
	if err != nil {
		return fmt.Errorf("encoding quality: %w", err)
	}

	query := `INSERT INTO historical_proposals (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.DraftID,
		p.Title,
		p.ClientName,
		p.Industry,
		formatTime(p.Date),
		tags,
		p.FileName,
		string(p.Status),
		quality,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting historical proposal: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepo) CreateAll(ctx context.Context, ps []*domain.HistoricalProposal) error {
	insert := func(ctx context.Context, conn db.DBTX) error {
		tx := &SQLiteHistoryRepo{db: conn}
		for _, p := range ps {
			if err := tx.Create(ctx, p); err != nil {
				return fmt.Errorf("proposal %s: %w", p.ID, err)
			}
		}
		return nil
	}
	if r.uow == nil {
		return insert(ctx, r.db)
	}
	return r.uow.WithinTx(ctx, insert)
}

func (r *SQLiteHistoryRepo) GetByID(ctx context.Context, id string) (*domain.HistoricalProposal, error) {
	query := `SELECT ` + historyColumns + ` FROM historical_proposals WHERE id = ?`
	p, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("historical proposal %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *SQLiteHistoryRepo) List(ctx context.Context) ([]*domain.HistoricalProposal, error) {
	query := `SELECT ` + historyColumns + ` FROM historical_proposals ORDER BY date DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing historical proposals: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoricalProposal
	for rows.Next() {
		p, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating historical proposals: %w", err)
	}
	return out, nil
}

func (r *SQLiteHistoryRepo) AttachQuality(ctx context.Context, id string, qa domain.QualityAssessment) (*domain.HistoricalProposal, error) {
	quality, err := nullableJSON(qa, true)
	if err != nil {
		return nil, fmt.Errorf("encoding quality: %w", err)
	}
	query := `UPDATE historical_proposals SET quality_json = ? WHERE id = ? AND quality_json IS NULL`
	if _, err := r.db.ExecContext(ctx, query, quality, id); err != nil {
		return nil, fmt.Errorf("attaching quality: %w", err)
	}
	return r.GetByID(ctx, id)
}

func scanHistory(row rowScanner) (*domain.HistoricalProposal, error) {
	var p domain.HistoricalProposal
	var dateStr, tagsJSON, statusStr, createdAtStr string
	var qualityJSON sql.NullString

	err := row.Scan(&p.ID, &p.DraftID, &p.Title, &p.ClientName, &p.Industry,
		&dateStr, &tagsJSON, &p.FileName, &statusStr, &qualityJSON, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning historical proposal: %w", err)
	}
	p.Status = domain.ProposalStatus(statusStr)

	p.Tags = []string{}
	if err := decodeJSON(sql.NullString{String: tagsJSON, Valid: true}, &p.Tags, "tags_json"); err != nil {
		return nil, err
	}
	if err := decodeJSON(qualityJSON, &p.Quality, "quality_json"); err != nil {
		return nil, err
	}

	if p.Date, err = parseTime(dateStr); err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &p, nil
}
