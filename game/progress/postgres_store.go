package progress

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"

	"github.com/wricardo/slidepuzzle/game/engine"
)

// PostgresStore keeps progress in PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	log *logrus.Entry
}

// NewPostgresStore connects and makes sure the schema exists
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("postgres progress store needs a connection string")
	}
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, log: logrus.WithField("component", "progress")}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collectibles (
		level_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		collected_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (level_id, kind, x, y)
	);
	`
	_, err := ps.db.Exec(schema)
	return err
}

// RecordCollectible remembers a pickup. Recording twice is harmless.
func (ps *PostgresStore) RecordCollectible(levelID string, kind engine.TileType, pos engine.Position) error {
	query := `
	INSERT INTO collectibles (level_id, kind, x, y)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (level_id, kind, x, y) DO NOTHING
	`
	if _, err := ps.db.Exec(query, levelID, string(kind), pos.X, pos.Y); err != nil {
		return fmt.Errorf("failed to record collectible: %w", err)
	}
	return nil
}

// IsCollected reports whether the collectible was picked up before. A
// failed query counts as not collected.
func (ps *PostgresStore) IsCollected(levelID string, kind engine.TileType, pos engine.Position) bool {
	query := `SELECT EXISTS (SELECT 1 FROM collectibles WHERE level_id = $1 AND kind = $2 AND x = $3 AND y = $4)`
	var found bool
	if err := ps.db.QueryRow(query, levelID, string(kind), pos.X, pos.Y).Scan(&found); err != nil {
		ps.log.WithError(err).WithField("level", levelID).Warn("collectible lookup failed")
		return false
	}
	return found
}

// Collected lists a level's pickups, oldest first
func (ps *PostgresStore) Collected(levelID string) ([]Collectible, error) {
	query := `SELECT level_id, kind, x, y, collected_at FROM collectibles WHERE level_id = $1 ORDER BY collected_at, kind, x, y`
	rows, err := ps.db.Query(query, levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collectibles: %w", err)
	}
	defer rows.Close()

	var out []Collectible
	for rows.Next() {
		var c Collectible
		var kind string
		if err := rows.Scan(&c.LevelID, &kind, &c.Position.X, &c.Position.Y, &c.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collectible: %w", err)
		}
		c.Kind = engine.TileType(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reset forgets every pickup of a level
func (ps *PostgresStore) Reset(levelID string) error {
	if _, err := ps.db.Exec(`DELETE FROM collectibles WHERE level_id = $1`, levelID); err != nil {
		return fmt.Errorf("failed to reset collectibles: %w", err)
	}
	return nil
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
