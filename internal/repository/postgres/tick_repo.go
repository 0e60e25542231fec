package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/grand-campaign/internal/model"
)

// TickRepo handles tick history, command and event database operations.
type TickRepo struct {
	db *sql.DB
}

// NewTickRepo creates a TickRepo.
func NewTickRepo(db *sql.DB) *TickRepo {
	return &TickRepo{db: db}
}

// SaveTick stores a snapshot together with the commands and events that
// produced it in one transaction.
func (r *TickRepo) SaveTick(ctx context.Context, tick *model.Tick, commands []model.CommandRecord, events []model.EventRecord) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ticks (campaign_id, tick, date, checksum, snapshot) VALUES ($1, $2, $3, $4, $5)`,
			tick.CampaignID, tick.Tick, tick.Date, tick.Checksum, tick.Snapshot)
		if err != nil {
			return fmt.Errorf("insert tick: %w", err)
		}

		if len(commands) > 0 {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO commands (campaign_id, tick, seq, country, command_type, payload, error_kind, error)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
			if err != nil {
				return fmt.Errorf("prepare command insert: %w", err)
			}
			defer stmt.Close()
			for _, c := range commands {
				if _, err := stmt.ExecContext(ctx, c.CampaignID, c.Tick, c.Seq, c.Country, c.CommandType,
					[]byte(c.Payload), c.ErrorKind, c.Error); err != nil {
					return fmt.Errorf("insert command: %w", err)
				}
			}
		}

		if len(events) > 0 {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO events (campaign_id, tick, seq, event_type, payload) VALUES ($1, $2, $3, $4, $5)`)
			if err != nil {
				return fmt.Errorf("prepare event insert: %w", err)
			}
			defer stmt.Close()
			for _, e := range events {
				if _, err := stmt.ExecContext(ctx, e.CampaignID, e.Tick, e.Seq, e.EventType, []byte(e.Payload)); err != nil {
					return fmt.Errorf("insert event: %w", err)
				}
			}
		}
		return nil
	})
}

// LatestTick returns the most recent tick for a campaign, or nil if none.
func (r *TickRepo) LatestTick(ctx context.Context, campaignID string) (*model.Tick, error) {
	var t model.Tick
	err := r.db.QueryRowContext(ctx,
		`SELECT campaign_id, tick, date, checksum, snapshot, created_at
		 FROM ticks WHERE campaign_id = $1 ORDER BY tick DESC LIMIT 1`, campaignID,
	).Scan(&t.CampaignID, &t.Tick, &t.Date, &t.Checksum, &t.Snapshot, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest tick: %w", err)
	}
	return &t, nil
}

// ListTicks returns the tick history of a campaign without snapshot blobs.
func (r *TickRepo) ListTicks(ctx context.Context, campaignID string) ([]model.Tick, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT campaign_id, tick, date, checksum, created_at
		 FROM ticks WHERE campaign_id = $1 ORDER BY tick`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list ticks: %w", err)
	}
	defer rows.Close()

	var ticks []model.Tick
	for rows.Next() {
		var t model.Tick
		if err := rows.Scan(&t.CampaignID, &t.Tick, &t.Date, &t.Checksum, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// ListEvents returns events at or after sinceTick in log order.
func (r *TickRepo) ListEvents(ctx context.Context, campaignID string, sinceTick int) ([]model.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT campaign_id, tick, seq, event_type, payload, created_at
		 FROM events WHERE campaign_id = $1 AND tick >= $2 ORDER BY tick, seq`, campaignID, sinceTick)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.EventRecord
	for rows.Next() {
		var e model.EventRecord
		if err := rows.Scan(&e.CampaignID, &e.Tick, &e.Seq, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListCommands returns the command results recorded for one tick.
func (r *TickRepo) ListCommands(ctx context.Context, campaignID string, tick int) ([]model.CommandRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT campaign_id, tick, seq, country, command_type, payload, error_kind, error, created_at
		 FROM commands WHERE campaign_id = $1 AND tick = $2 ORDER BY seq`, campaignID, tick)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var commands []model.CommandRecord
	for rows.Next() {
		var c model.CommandRecord
		if err := rows.Scan(&c.CampaignID, &c.Tick, &c.Seq, &c.Country, &c.CommandType, &c.Payload,
			&c.ErrorKind, &c.Error, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}
