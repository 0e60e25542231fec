// Package sqlite provides an embedded campaign store for offline runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/grand-campaign/internal/model"
)

// Store keeps campaigns and their tick history in a single SQLite file.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Each in-memory connection is a distinct database.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		scenario TEXT NOT NULL,
		status TEXT NOT NULL,
		seed INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		current_tick INTEGER NOT NULL,
		sim_date TEXT NOT NULL,
		checksum TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		campaign_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		date TEXT NOT NULL,
		checksum TEXT NOT NULL,
		snapshot BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (campaign_id, tick)
	);

	CREATE TABLE IF NOT EXISTS commands (
		campaign_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		country TEXT NOT NULL,
		command_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		error_kind TEXT NOT NULL,
		error TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (campaign_id, tick, seq)
	);

	CREATE TABLE IF NOT EXISTS events (
		campaign_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (campaign_id, tick, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Create inserts a new active campaign positioned at tick 0.
func (s *Store) Create(ctx context.Context, name, scenario string, seed int64, startDate string) (*model.Campaign, error) {
	now := time.Now().UTC()
	c := &model.Campaign{
		ID:          uuid.NewString(),
		Name:        name,
		Scenario:    scenario,
		Status:      model.StatusActive,
		Seed:        seed,
		StartDate:   startDate,
		CurrentDate: startDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.conn.NamedExecContext(ctx,
		`INSERT INTO campaigns (id, name, scenario, status, seed, start_date, current_tick, sim_date, checksum, created_at, updated_at)
		 VALUES (:id, :name, :scenario, :status, :seed, :start_date, :current_tick, :sim_date, :checksum, :created_at, :updated_at)`, c)
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// FindByID returns a campaign by ID, or nil if it does not exist.
func (s *Store) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := s.conn.GetContext(ctx, &c, `SELECT * FROM campaigns WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return &c, nil
}

// ListActive returns all active campaigns in creation order.
func (s *Store) ListActive(ctx context.Context) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := s.conn.SelectContext(ctx, &campaigns,
		`SELECT * FROM campaigns WHERE status = ? ORDER BY created_at`, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateProgress records the latest persisted tick.
func (s *Store) UpdateProgress(ctx context.Context, id string, tick int, date, checksum string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE campaigns SET current_tick = ?, sim_date = ?, checksum = ?, updated_at = ? WHERE id = ?`,
		tick, date, checksum, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update campaign progress: %w", err)
	}
	return nil
}

// SetStatus changes a campaign's status.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	return nil
}

// SaveTick stores a snapshot with its commands and events in one transaction.
func (s *Store) SaveTick(ctx context.Context, tick *model.Tick, commands []model.CommandRecord, events []model.EventRecord) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ticks (campaign_id, tick, date, checksum, snapshot, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tick.CampaignID, tick.Tick, tick.Date, tick.Checksum, tick.Snapshot, now)
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}

	for _, c := range commands {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO commands (campaign_id, tick, seq, country, command_type, payload, error_kind, error, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CampaignID, c.Tick, c.Seq, c.Country, c.CommandType, []byte(c.Payload), c.ErrorKind, c.Error, now)
		if err != nil {
			return fmt.Errorf("insert command: %w", err)
		}
	}
	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (campaign_id, tick, seq, event_type, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.CampaignID, e.Tick, e.Seq, e.EventType, []byte(e.Payload), now)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// LatestTick returns the most recent tick for a campaign, or nil if none.
func (s *Store) LatestTick(ctx context.Context, campaignID string) (*model.Tick, error) {
	var t model.Tick
	err := s.conn.GetContext(ctx, &t,
		`SELECT * FROM ticks WHERE campaign_id = ? ORDER BY tick DESC LIMIT 1`, campaignID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest tick: %w", err)
	}
	return &t, nil
}

// ListTicks returns the tick history of a campaign without snapshot blobs.
func (s *Store) ListTicks(ctx context.Context, campaignID string) ([]model.Tick, error) {
	var ticks []model.Tick
	err := s.conn.SelectContext(ctx, &ticks,
		`SELECT campaign_id, tick, date, checksum, created_at FROM ticks WHERE campaign_id = ? ORDER BY tick`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list ticks: %w", err)
	}
	return ticks, nil
}

// ListEvents returns events at or after sinceTick in log order.
func (s *Store) ListEvents(ctx context.Context, campaignID string, sinceTick int) ([]model.EventRecord, error) {
	var events []model.EventRecord
	err := s.conn.SelectContext(ctx, &events,
		`SELECT * FROM events WHERE campaign_id = ? AND tick >= ? ORDER BY tick, seq`, campaignID, sinceTick)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListCommands returns the command results recorded for one tick.
func (s *Store) ListCommands(ctx context.Context, campaignID string, tick int) ([]model.CommandRecord, error) {
	var commands []model.CommandRecord
	err := s.conn.SelectContext(ctx, &commands,
		`SELECT * FROM commands WHERE campaign_id = ? AND tick = ? ORDER BY seq`, campaignID, tick)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return commands, nil
}
