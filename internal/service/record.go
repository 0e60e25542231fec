package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// TickRecord is everything persisted for one tick.
type TickRecord struct {
	Tick     model.Tick
	Commands []model.CommandRecord
	Events   []model.EventRecord
	Log      []warfare.Event
}

// Record turns a step's output into persistable rows. prev is nil for the
// initial snapshot, which has no events.
func Record(campaignID string, prev, next *warfare.WorldState, results []warfare.CommandResult) (*TickRecord, error) {
	blob, err := warfare.CompressSnapshot(next)
	if err != nil {
		return nil, err
	}
	sum, err := warfare.Checksum(next)
	if err != nil {
		return nil, err
	}
	tick := next.Tick()
	rec := &TickRecord{
		Tick: model.Tick{
			CampaignID: campaignID,
			Tick:       tick,
			Date:       next.Date.String(),
			Checksum:   sum,
			Snapshot:   blob,
		},
	}

	for i, r := range results {
		payload, err := json.Marshal(r.Command)
		if err != nil {
			return nil, fmt.Errorf("marshal command: %w", err)
		}
		c := model.CommandRecord{
			CampaignID:  campaignID,
			Tick:        tick,
			Seq:         i,
			Country:     string(r.Country),
			CommandType: string(r.Command.Type),
			Payload:     payload,
		}
		if r.Err != nil {
			c.Error = r.Err.Error()
			var ae *warfare.ActionError
			if errors.As(r.Err, &ae) {
				c.ErrorKind = string(ae.Kind)
			}
		}
		rec.Commands = append(rec.Commands, c)
	}

	if prev != nil {
		rec.Log = warfare.DiffEvents(prev, next)
	}
	for i, e := range rec.Log {
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}
		rec.Events = append(rec.Events, model.EventRecord{
			CampaignID: campaignID,
			Tick:       tick,
			Seq:        i,
			EventType:  string(e.Type),
			Payload:    payload,
		})
	}
	return rec, nil
}
