package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"url-redirector/internal/model"
)

// Repo is the Postgres-backed Store. The mappings table carries a unique
// index on (host, slug) so Insert and Upsert are single conditional statements.
type Repo struct {
	DB *sql.DB
}

var _ Store = (*Repo)(nil)

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const mappingColumns = `id, host, slug, url, status, pass_query, created_at, created_by, used`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*model.Mapping, error) {
	var (
		m    model.Mapping
		slug string
		url  sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Host, &slug, &url, &m.Status, &m.PassQuery, &m.CreatedAt, &m.CreatedBy, &m.Used); err != nil {
		return nil, err
	}
	m.Kind, m.Slug = decodeSlug(slug)
	m.URL = url.String
	return &m, nil
}

func (r *Repo) Get(ctx context.Context, key model.Key) (*model.Mapping, error) {
	slug, err := lookupSlug(key)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + mappingColumns + ` FROM mappings WHERE host = $1 AND slug = $2`
	m, err := scanMapping(r.DB.QueryRowContext(ctx, q, key.Host, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return m, nil
}

func (r *Repo) ListByHost(ctx context.Context, host string) ([]model.Mapping, error) {
	q := `SELECT ` + mappingColumns + ` FROM mappings WHERE host = $1 ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, q, host)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()
	res := make([]model.Mapping, 0)
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		res = append(res, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return res, nil
}

func (r *Repo) Insert(ctx context.Context, m *model.Mapping) error {
	slug, err := encodeSlug(m.Key())
	if err != nil {
		return err
	}
	q := `
		INSERT INTO mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (host, slug) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q, m.ID, m.Host, slug, m.URL, m.Status, m.PassQuery, m.CreatedAt, m.CreatedBy, m.Used)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert mapping: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (r *Repo) Upsert(ctx context.Context, m *model.Mapping) error {
	slug, err := encodeSlug(m.Key())
	if err != nil {
		return err
	}
	q := `
		INSERT INTO mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (host, slug) DO UPDATE
		SET url = EXCLUDED.url,
			status = EXCLUDED.status,
			pass_query = EXCLUDED.pass_query,
			created_at = EXCLUDED.created_at,
			created_by = EXCLUDED.created_by
		RETURNING id, used
	`
	row := r.DB.QueryRowContext(ctx, q, m.ID, m.Host, slug, m.URL, m.Status, m.PassQuery, m.CreatedAt, m.CreatedBy, m.Used)
	if err := row.Scan(&m.ID, &m.Used); err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, host, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM mappings WHERE id = $1 AND host = $2`, id, host); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	return nil
}

func (r *Repo) IncrementUsed(ctx context.Context, id string, delta int64) error {
	q := `UPDATE mappings SET used = used + $2 WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, q, id, delta)
	return err
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
