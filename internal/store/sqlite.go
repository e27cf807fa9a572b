package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/deeptech-ai/talent-cli/internal/embedding"
	"github.com/deeptech-ai/talent-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. SQLite has no vector
// index, so embeddings are stored as JSON arrays and search is a linear scan
// with cosine similarity computed in process. Fine for local development and
// small deployments; Postgres with pgvector is the production path.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS experts (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	bio                  TEXT NOT NULL DEFAULT '',
	skills               TEXT NOT NULL DEFAULT '[]',
	domains              TEXT NOT NULL DEFAULT '[]',
	expertise_areas      TEXT NOT NULL DEFAULT '[]',
	patents              TEXT NOT NULL DEFAULT '',
	papers               TEXT NOT NULL DEFAULT '',
	products             TEXT NOT NULL DEFAULT '',
	hourly_rates         TEXT NOT NULL DEFAULT '{}',
	vetting_status       TEXT NOT NULL DEFAULT 'pending',
	rating               REAL NOT NULL DEFAULT 0,
	review_count         INTEGER NOT NULL DEFAULT 0,
	total_hours          INTEGER NOT NULL DEFAULT 0,
	availability         INTEGER NOT NULL DEFAULT 1,
	embedding            TEXT,
	embedding_text       TEXT,
	embedding_updated_at DATETIME,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_experts_vetting_status ON experts(vetting_status);
CREATE INDEX IF NOT EXISTS idx_experts_updated_at ON experts(updated_at);
`

const sqliteExpertColumns = `id, name, bio, skills, domains, expertise_areas, patents, papers, products,
	hourly_rates, vetting_status, rating, review_count, total_hours, availability,
	embedding_text, embedding_updated_at, created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExpert(ctx context.Context, e model.Expert) (*model.Expert, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal expert")
	}
	domainsJSON, err := json.Marshal(sliceOrEmpty(e.Domains))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal domains")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experts
		 (id, name, bio, skills, domains, expertise_areas, patents, papers, products,
		  hourly_rates, vetting_status, rating, review_count, total_hours, availability,
		  created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Bio, string(skillsJSON), string(domainsJSON), string(areasJSON),
		e.Patents, e.Papers, e.Products, string(ratesJSON), string(e.VettingStatus),
		e.Rating, e.ReviewCount, e.TotalHours, e.Available, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert expert")
	}
	return &e, nil
}

func (s *SQLiteStore) GetExpert(ctx context.Context, id string) (*model.Expert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteExpertColumns+` FROM experts WHERE id = ?`, id,
	)
	e, err := scanSQLiteExpert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get expert %s", id)
	}
	return e, nil
}

func (s *SQLiteStore) ListExperts(ctx context.Context, filter ExpertFilter) ([]model.Expert, error) {
	query := `SELECT ` + sqliteExpertColumns + ` FROM experts WHERE 1=1`
	var args []any

	if filter.VettingStatus != "" {
		query += ` AND vetting_status = ?`
		args = append(args, string(filter.VettingStatus))
	}
	if filter.Available != nil {
		query += ` AND availability = ?`
		args = append(args, *filter.Available)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list experts")
	}
	defer rows.Close()

	var experts []model.Expert
	for rows.Next() {
		e, err := scanSQLiteExpert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan expert")
		}
		// Domain filtering happens here; domains are a JSON column.
		if filter.Domain != "" && !containsString(e.Domains, filter.Domain) {
			continue
		}
		experts = append(experts, *e)
	}
	return experts, eris.Wrap(rows.Err(), "sqlite: list experts iterate")
}

func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, expertID string, vector []float32, text string) error {
	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal embedding")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE experts SET embedding = ?, embedding_text = ?, embedding_updated_at = ? WHERE id = ?`,
		string(vecJSON), text, time.Now().UTC(), expertID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert embedding %s", expertID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("expert not found: %s", expertID)
	}
	return nil
}

func (s *SQLiteStore) FindStaleExperts(ctx context.Context, limit int) ([]model.Expert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteExpertColumns+` FROM experts
		 WHERE embedding IS NULL OR embedding_updated_at IS NULL OR embedding_updated_at < updated_at
		 ORDER BY updated_at ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find stale experts")
	}
	defer rows.Close()

	var experts []model.Expert
	for rows.Next() {
		e, err := scanSQLiteExpert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stale expert")
		}
		experts = append(experts, *e)
	}
	return experts, eris.Wrap(rows.Err(), "sqlite: find stale experts iterate")
}

// SearchExperts scans every embedded expert and ranks in process. Ties on
// similarity break toward the older expert so result order is stable.
func (s *SQLiteStore) SearchExperts(ctx context.Context, q SearchQuery) ([]model.ExpertResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteExpertColumns+`, embedding FROM experts WHERE embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search experts")
	}
	defer rows.Close()

	type scored struct {
		expert     model.Expert
		similarity float64
	}
	var hits []scored

	for rows.Next() {
		e, vec, err := scanSQLiteExpertWithEmbedding(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan embedded expert")
		}
		if !matchesFilters(*e, q.Filters) {
			continue
		}
		sim := embedding.CosineSimilarity(q.Vector, vec)
		if sim < q.Threshold {
			continue
		}
		hits = append(hits, scored{expert: *e, similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: search experts iterate")
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].similarity != hits[j].similarity {
			return hits[i].similarity > hits[j].similarity
		}
		return hits[i].expert.CreatedAt.Before(hits[j].expert.CreatedAt)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]model.ExpertResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, resultFromExpert(h.expert, h.similarity))
	}
	return results, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteExpert(row rowScanner) (*model.Expert, error) {
	e, _, err := scanSQLiteColumns(row, false)
	return e, err
}

func scanSQLiteExpertWithEmbedding(row rowScanner) (*model.Expert, []float32, error) {
	return scanSQLiteColumns(row, true)
}

func scanSQLiteColumns(row rowScanner, withEmbedding bool) (*model.Expert, []float32, error) {
	var e model.Expert
	var skillsJSON, domainsJSON, areasJSON, ratesJSON string
	var embeddingText sql.NullString
	var embeddingUpdatedAt sql.NullTime
	var embeddingJSON sql.NullString

	dest := []any{
		&e.ID, &e.Name, &e.Bio, &skillsJSON, &domainsJSON, &areasJSON,
		&e.Patents, &e.Papers, &e.Products, &ratesJSON, &e.VettingStatus,
		&e.Rating, &e.ReviewCount, &e.TotalHours, &e.Available,
		&embeddingText, &embeddingUpdatedAt, &e.CreatedAt, &e.UpdatedAt,
	}
	if withEmbedding {
		dest = append(dest, &embeddingJSON)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, nil, err
	}

	for _, f := range []struct {
		raw string
		dst any
	}{
		{skillsJSON, &e.Skills},
		{domainsJSON, &e.Domains},
		{areasJSON, &e.ExpertiseAreas},
		{ratesJSON, &e.HourlyRates},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, nil, eris.Wrap(err, "unmarshal expert field")
		}
	}
	if embeddingText.Valid {
		e.EmbeddingText = embeddingText.String
	}
	if embeddingUpdatedAt.Valid {
		e.EmbeddingUpdatedAt = embeddingUpdatedAt.Time
	}

	var vec []float32
	if withEmbedding && embeddingJSON.Valid {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &vec); err != nil {
			return nil, nil, eris.Wrap(err, "unmarshal embedding")
		}
	}
	return &e, vec, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
