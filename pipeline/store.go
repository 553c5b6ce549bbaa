package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Store is the persistence contract the pipeline writes through. The
// pipeline never reads record lists back; lookups are existence checks and
// counts only.
type Store interface {
	InsertPrompt(ctx context.Context, p *Prompt) error
	InsertExploit(ctx context.Context, e *Exploit) error
	PromptExistsWithPrefix(ctx context.Context, prefix string) (bool, error)
	ExploitExistsWithTitle(ctx context.Context, title string) (bool, error)
	CountPrompts(ctx context.Context) (int, error)
	CountExploits(ctx context.Context) (int, error)
	NextExploitSerial(ctx context.Context) (int, error)
}

func newRecordID() string {
	return ulid.Make().String()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS prompts (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	source VARCHAR(100),
	category VARCHAR(50),
	subcategory VARCHAR(50),
	provider VARCHAR(50),
	severity VARCHAR(20),
	extra_data JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exploits (
	id TEXT PRIMARY KEY,
	cve_id VARCHAR(50) UNIQUE NOT NULL,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	exploit_content TEXT NOT NULL,
	exploit_type VARCHAR(50),
	severity VARCHAR(20),
	source VARCHAR(200),
	source_type VARCHAR(50),
	status VARCHAR(20) DEFAULT 'active',
	discovered_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE SEQUENCE IF NOT EXISTS exploit_serial;
`

// PostgresStore backs the catalogue with Postgres. Exploit serial numbers
// come from a server-side sequence so concurrent discovery runs cannot mint
// the same canonical identifier.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertPrompt(ctx context.Context, p *Prompt) error {
	if p.ID == "" {
		p.ID = newRecordID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO prompts (id, content, source, category, subcategory, provider, severity, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Content, p.Source, p.Category, p.Subcategory, p.Provider, p.Severity, p.ExtraData)
	if err != nil {
		return fmt.Errorf("insert prompt: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertExploit(ctx context.Context, e *Exploit) error {
	if e.ID == "" {
		e.ID = newRecordID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO exploits (id, cve_id, title, description, exploit_content, exploit_type, severity, source, source_type, status, discovered_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.CVEID, e.Title, e.Description, e.Content, e.Type, e.Severity, e.Source, e.SourceType, e.Status, e.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("insert exploit: %w", err)
	}
	return nil
}

func (s *PostgresStore) PromptExistsWithPrefix(ctx context.Context, prefix string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM prompts WHERE content LIKE $1 ESCAPE '\')
	`, escapeLike(prefix)+"%").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("prompt prefix lookup: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ExploitExistsWithTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM exploits WHERE title = $1)
	`, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exploit title lookup: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CountPrompts(ctx context.Context) (int, error) {
	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count prompts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountExploits(ctx context.Context) (int, error) {
	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM exploits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exploits: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) NextExploitSerial(ctx context.Context) (int, error) {
	var n int
	if err := s.Pool.QueryRow(ctx, `SELECT nextval('exploit_serial')::int`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next exploit serial: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
