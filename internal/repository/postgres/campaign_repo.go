package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/freeeve/grand-campaign/internal/model"
)

const campaignColumns = `id, name, scenario, status, seed, start_date, current_tick, sim_date, checksum, created_at, updated_at`

// CampaignRepo handles campaign database operations.
type CampaignRepo struct {
	db *sql.DB
}

// NewCampaignRepo creates a CampaignRepo.
func NewCampaignRepo(db *sql.DB) *CampaignRepo {
	return &CampaignRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Scenario, &c.Status, &c.Seed, &c.StartDate,
		&c.CurrentTick, &c.CurrentDate, &c.Checksum, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new active campaign positioned at tick 0.
func (r *CampaignRepo) Create(ctx context.Context, name, scenario string, seed int64, startDate string) (*model.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`INSERT INTO campaigns (name, scenario, seed, start_date, sim_date)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING `+campaignColumns,
		name, scenario, seed, startDate,
	))
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// FindByID returns a campaign by ID, or nil if it does not exist.
func (r *CampaignRepo) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

// ListActive returns all campaigns the runner should advance.
func (r *CampaignRepo) ListActive(ctx context.Context) ([]model.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// UpdateProgress records the latest persisted tick.
func (r *CampaignRepo) UpdateProgress(ctx context.Context, id string, tick int, date, checksum string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET current_tick = $2, sim_date = $3, checksum = $4, updated_at = now()
		 WHERE id = $1`, id, tick, date, checksum)
	if err != nil {
		return fmt.Errorf("update campaign progress: %w", err)
	}
	return nil
}

// SetStatus changes a campaign's status.
func (r *CampaignRepo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set campaign status: %w", err)
	}
	return nil
}
