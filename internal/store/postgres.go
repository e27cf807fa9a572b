package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"github.com/rotisserie/eris"

	"github.com/deeptech-ai/talent-cli/internal/db"
	"github.com/deeptech-ai/talent-cli/internal/model"
)

// PostgresStore implements Store using pgxpool with the pgvector extension.
type PostgresStore struct {
	pool    db.Pool
	dims    int
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection. The
// hot-path store operations execute these by name.
var preparedStatements = map[string]string{
	"upsert_embedding": `UPDATE experts SET embedding = $1, embedding_text = $2, embedding_updated_at = $3 WHERE id = $4`,
	"get_expert":       `SELECT ` + expertColumns + ` FROM experts WHERE id = $1`,
	"find_stale": `SELECT ` + expertColumns + ` FROM experts
	 WHERE embedding IS NULL OR embedding_updated_at IS NULL OR embedding_updated_at < updated_at
	 ORDER BY updated_at ASC LIMIT $1`,
}

// NewPostgres creates a PostgresStore with a connection pool. dims is the
// embedding dimensionality the experts table is provisioned for.
func NewPostgres(ctx context.Context, connString string, dims int, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Register the vector type and prepare hot-path statements on each new
	// connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if err := pgxvector.RegisterTypes(ctx, conn); err != nil {
			return eris.Wrap(err, "postgres: register vector types")
		}
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	if dims <= 0 {
		dims = defaultVectorDims
	}
	return &PostgresStore{pool: pool, dims: dims, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., bulk expert import).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const defaultVectorDims = 384

const expertColumns = `id, name, bio, skills, domains, expertise_areas, patents, papers, products,
	hourly_rates, vetting_status, rating, review_count, total_hours, availability,
	embedding_text, embedding_updated_at, created_at, updated_at`

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS experts (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                 TEXT NOT NULL,
	bio                  TEXT NOT NULL DEFAULT '',
	skills               JSONB NOT NULL DEFAULT '[]',
	domains              TEXT[] NOT NULL DEFAULT '{}',
	expertise_areas      JSONB NOT NULL DEFAULT '[]',
	patents              TEXT NOT NULL DEFAULT '',
	papers               TEXT NOT NULL DEFAULT '',
	products             TEXT NOT NULL DEFAULT '',
	hourly_rates         JSONB NOT NULL DEFAULT '{}',
	vetting_status       TEXT NOT NULL DEFAULT 'pending',
	rating               DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count         INTEGER NOT NULL DEFAULT 0,
	total_hours          INTEGER NOT NULL DEFAULT 0,
	availability         BOOLEAN NOT NULL DEFAULT true,
	embedding            vector(%d),
	embedding_text       TEXT,
	embedding_updated_at TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_experts_vetting_status ON experts(vetting_status);
CREATE INDEX IF NOT EXISTS idx_experts_availability ON experts(availability);
CREATE INDEX IF NOT EXISTS idx_experts_domains ON experts USING gin(domains);
CREATE INDEX IF NOT EXISTS idx_experts_updated_at ON experts(updated_at);
CREATE INDEX IF NOT EXISTS idx_experts_embedding ON experts USING hnsw (embedding vector_cosine_ops);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigration, s.dims))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateExpert(ctx context.Context, e model.Expert) (*model.Expert, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.VettingStatus == "" {
		e.VettingStatus = model.VettingPending
	}

	skillsJSON, areasJSON, ratesJSON, err := marshalExpertJSON(e)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal expert")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO experts
		 (id, name, bio, skills, domains, expertise_areas, patents, papers, products,
		  hourly_rates, vetting_status, rating, review_count, total_hours, availability,
		  created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.Name, e.Bio, skillsJSON, e.Domains, areasJSON, e.Patents, e.Papers, e.Products,
		ratesJSON, string(e.VettingStatus), e.Rating, e.ReviewCount, e.TotalHours, e.Available,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert expert")
	}
	return &e, nil
}

func (s *PostgresStore) GetExpert(ctx context.Context, id string) (*model.Expert, error) {
	row := s.pool.QueryRow(ctx, "get_expert", id)
	e, err := scanExpert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get expert %s", id)
	}
	return e, nil
}

func (s *PostgresStore) ListExperts(ctx context.Context, filter ExpertFilter) ([]model.Expert, error) {
	query := `SELECT ` + expertColumns + ` FROM experts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.VettingStatus != "" {
		query += fmt.Sprintf(` AND vetting_status = $%d`, argIdx)
		args = append(args, string(filter.VettingStatus))
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND $%d = ANY(domains)`, argIdx)
		args = append(args, filter.Domain)
		argIdx++
	}
	if filter.Available != nil {
		query += fmt.Sprintf(` AND availability = $%d`, argIdx)
		args = append(args, *filter.Available)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list experts")
	}
	defer rows.Close()

	var experts []model.Expert
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan expert")
		}
		experts = append(experts, *e)
	}
	return experts, eris.Wrap(rows.Err(), "postgres: list experts iterate")
}

func (s *PostgresStore) UpsertEmbedding(ctx context.Context, expertID string, vector []float32, text string) error {
	tag, err := s.pool.Exec(ctx, "upsert_embedding",
		pgvector.NewVector(vector), text, time.Now().UTC(), expertID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert embedding %s", expertID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("expert not found: %s", expertID)
	}
	return nil
}

func (s *PostgresStore) FindStaleExperts(ctx context.Context, limit int) ([]model.Expert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, "find_stale", limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find stale experts")
	}
	defer rows.Close()

	var experts []model.Expert
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan stale expert")
		}
		experts = append(experts, *e)
	}
	return experts, eris.Wrap(rows.Err(), "postgres: find stale experts iterate")
}

// SearchExperts ranks experts by cosine similarity to the query vector,
// delegating the distance computation to pgvector's <=> operator so the HNSW
// index can serve the scan.
func (s *PostgresStore) SearchExperts(ctx context.Context, q SearchQuery) ([]model.ExpertResult, error) {
	query := `SELECT id, name, bio, skills, domains, hourly_rates, vetting_status,
	 rating, review_count, total_hours, availability,
	 1 - (embedding <=> $1) AS similarity
	 FROM experts
	 WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2`
	args := []any{pgvector.NewVector(q.Vector), q.Threshold}
	argIdx := 3

	if f := q.Filters; f != nil {
		if f.VettingStatus != "" {
			query += fmt.Sprintf(` AND vetting_status = $%d`, argIdx)
			args = append(args, string(f.VettingStatus))
			argIdx++
		}
		if f.Domain != "" {
			query += fmt.Sprintf(` AND $%d = ANY(domains)`, argIdx)
			args = append(args, f.Domain)
			argIdx++
		}
		if f.MinRating > 0 {
			query += fmt.Sprintf(` AND rating >= $%d`, argIdx)
			args = append(args, f.MinRating)
			argIdx++
		}
		if f.Available != nil {
			query += fmt.Sprintf(` AND availability = $%d`, argIdx)
			args = append(args, *f.Available)
			argIdx++
		}
		if f.MinHourlyRate > 0 {
			query += fmt.Sprintf(` AND COALESCE((hourly_rates->>'advisory')::float8, 0) >= $%d`, argIdx)
			args = append(args, f.MinHourlyRate)
			argIdx++
		}
		if f.MaxHourlyRate > 0 {
			query += fmt.Sprintf(` AND COALESCE((hourly_rates->>'advisory')::float8, 0) <= $%d`, argIdx)
			args = append(args, f.MaxHourlyRate)
			argIdx++
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	query += fmt.Sprintf(` ORDER BY similarity DESC, created_at ASC LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search experts")
	}
	defer rows.Close()

	var results []model.ExpertResult
	for rows.Next() {
		var r model.ExpertResult
		var skillsJSON, ratesJSON []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Bio, &skillsJSON, &r.Domains, &ratesJSON,
			&r.VettingStatus, &r.Rating, &r.ReviewCount, &r.TotalHours, &r.Available,
			&r.SimilarityScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search result")
		}
		if err := json.Unmarshal(skillsJSON, &r.Skills); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal skills")
		}
		if err := json.Unmarshal(ratesJSON, &r.HourlyRates); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal hourly rates")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: search experts iterate")
}

func marshalExpertJSON(e model.Expert) (skills, areas, rates []byte, err error) {
	if skills, err = json.Marshal(sliceOrEmpty(e.Skills)); err != nil {
		return nil, nil, nil, err
	}
	if areas, err = json.Marshal(sliceOrEmpty(e.ExpertiseAreas)); err != nil {
		return nil, nil, nil, err
	}
	if rates, err = json.Marshal(e.HourlyRates); err != nil {
		return nil, nil, nil, err
	}
	return skills, areas, rates, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// scanExpert reads one expertColumns row.
func scanExpert(row pgx.Row) (*model.Expert, error) {
	var e model.Expert
	var skillsJSON, areasJSON, ratesJSON []byte
	var embeddingText *string
	var embeddingUpdatedAt *time.Time

	if err := row.Scan(&e.ID, &e.Name, &e.Bio, &skillsJSON, &e.Domains, &areasJSON,
		&e.Patents, &e.Papers, &e.Products, &ratesJSON, &e.VettingStatus,
		&e.Rating, &e.ReviewCount, &e.TotalHours, &e.Available,
		&embeddingText, &embeddingUpdatedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(skillsJSON, &e.Skills); err != nil {
		return nil, eris.Wrap(err, "unmarshal skills")
	}
	if err := json.Unmarshal(areasJSON, &e.ExpertiseAreas); err != nil {
		return nil, eris.Wrap(err, "unmarshal expertise areas")
	}
	if err := json.Unmarshal(ratesJSON, &e.HourlyRates); err != nil {
		return nil, eris.Wrap(err, "unmarshal hourly rates")
	}
	if embeddingText != nil {
		e.EmbeddingText = *embeddingText
	}
	if embeddingUpdatedAt != nil {
		e.EmbeddingUpdatedAt = *embeddingUpdatedAt
	}
	return &e, nil
}
