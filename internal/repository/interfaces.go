package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/grand-campaign/internal/model"
)

// CampaignRepository defines campaign data operations.
type CampaignRepository interface {
	Create(ctx context.Context, name, scenario string, seed int64, startDate string) (*model.Campaign, error)
	FindByID(ctx context.Context, id string) (*model.Campaign, error)
	ListActive(ctx context.Context) ([]model.Campaign, error)
	UpdateProgress(ctx context.Context, id string, tick int, date, checksum string) error
	SetStatus(ctx context.Context, id, status string) error
}

// TickRepository defines tick history operations. SaveTick stores a
// snapshot with the commands and events that produced it atomically.
type TickRepository interface {
	SaveTick(ctx context.Context, tick *model.Tick, commands []model.CommandRecord, events []model.EventRecord) error
	LatestTick(ctx context.Context, campaignID string) (*model.Tick, error)
	ListTicks(ctx context.Context, campaignID string) ([]model.Tick, error)
	ListEvents(ctx context.Context, campaignID string, sinceTick int) ([]model.EventRecord, error)
	ListCommands(ctx context.Context, campaignID string, tick int) ([]model.CommandRecord, error)
}

// CampaignCache defines live campaign state operations (Redis).
type CampaignCache interface {
	SetSnapshot(ctx context.Context, campaignID string, snapshot []byte) error
	GetSnapshot(ctx context.Context, campaignID string) ([]byte, error)
	QueueCommands(ctx context.Context, campaignID, country string, commands json.RawMessage) error
	DrainCommands(ctx context.Context, campaignID string) (map[string][]json.RawMessage, error)
	DeleteCampaignData(ctx context.Context, campaignID string) error
}
