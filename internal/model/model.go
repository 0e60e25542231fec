package model

import (
	"encoding/json"
	"time"
)

// Campaign statuses.
const (
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusFinished = "finished"
)

// Campaign is one running simulation. CurrentTick and CurrentDate track the
// latest persisted snapshot.
type Campaign struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Scenario    string    `json:"scenario" db:"scenario"`
	Status      string    `json:"status" db:"status"`
	Seed        int64     `json:"seed" db:"seed"`
	StartDate   string    `json:"start_date" db:"start_date"`
	CurrentTick int       `json:"current_tick" db:"current_tick"`
	CurrentDate string    `json:"current_date" db:"sim_date"`
	Checksum    string    `json:"checksum" db:"checksum"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tick is a persisted snapshot. Snapshot holds the lz4-compressed canonical
// encoding; Checksum is the blake3 digest of the uncompressed bytes.
type Tick struct {
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	Tick       int       `json:"tick" db:"tick"`
	Date       string    `json:"date" db:"date"`
	Checksum   string    `json:"checksum" db:"checksum"`
	Snapshot   []byte    `json:"-" db:"snapshot"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CommandRecord is the outcome of one command applied during a tick.
type CommandRecord struct {
	CampaignID  string          `json:"campaign_id" db:"campaign_id"`
	Tick        int             `json:"tick" db:"tick"`
	Seq         int             `json:"seq" db:"seq"`
	Country     string          `json:"country" db:"country"`
	CommandType string          `json:"command_type" db:"command_type"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	ErrorKind   string          `json:"error_kind,omitempty" db:"error_kind"`
	Error       string          `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// EventRecord is one persisted event log line.
type EventRecord struct {
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	Tick       int             `json:"tick" db:"tick"`
	Seq        int             `json:"seq" db:"seq"`
	EventType  string          `json:"event_type" db:"event_type"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
