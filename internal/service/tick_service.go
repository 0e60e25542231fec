package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/freeeve/grand-campaign/internal/logger"
	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/internal/repository"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// TickAdvanced is broadcast after every persisted tick.
type TickAdvanced struct {
	CampaignID string `json:"campaign_id"`
	Tick       int    `json:"tick"`
	Date       string `json:"date"`
	Checksum   string `json:"checksum"`
	Commands   int    `json:"commands"`
	Rejected   int    `json:"rejected"`
}

// TickResult is the outcome of advancing a campaign by one day.
type TickResult struct {
	TickAdvanced
	Results []CommandOutcome `json:"results"`
	Events  []warfare.Event  `json:"events"`
}

// CommandOutcome reports one applied command.
type CommandOutcome struct {
	Country   string          `json:"country"`
	Command   warfare.Command `json:"command"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// TickService advances campaigns one simulated day at a time.
type TickService struct {
	campaigns    *CampaignService
	campaignRepo repository.CampaignRepository
	tickRepo     repository.TickRepository
	cache        repository.CampaignCache
	broadcaster  Broadcaster

	// campaignLocks serializes ticks per campaign; the runner and the manual
	// tick endpoint may fire together.
	campaignLocks sync.Map
	// staleCache marks campaigns whose last snapshot cache write failed.
	staleCache sync.Map
}

// NewTickService creates a TickService.
func NewTickService(
	campaigns *CampaignService,
	campaignRepo repository.CampaignRepository,
	tickRepo repository.TickRepository,
	cache repository.CampaignCache,
	broadcaster Broadcaster,
) *TickService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TickService{
		campaigns:    campaigns,
		campaignRepo: campaignRepo,
		tickRepo:     tickRepo,
		cache:        cache,
		broadcaster:  broadcaster,
	}
}

func (s *TickService) campaignLock(id string) *sync.Mutex {
	v, _ := s.campaignLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Advance runs one tick: drains queued commands, steps the world, persists
// the result and broadcasts it.
func (s *TickService) Advance(ctx context.Context, campaignID string) (*TickResult, error) {
	mu := s.campaignLock(campaignID)
	mu.Lock()
	defer mu.Unlock()

	l := logger.ForCampaign(campaignID)

	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusActive {
		return nil, ErrCampaignNotActive
	}
	prev, err := s.loadSnapshot(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	g, err := s.campaigns.Graph(c)
	if err != nil {
		return nil, err
	}

	queued, err := s.cache.DrainCommands(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("drain commands: %w", err)
	}
	inputs := decodeQueued(queued, func(country string, err error) {
		l.Warn().Err(err).Str("country", country).Msg("Dropping undecodable command batch")
	})

	next, results := warfare.Step(prev, inputs, g, s.campaigns.Defines())
	rec, err := Record(campaignID, prev, next, results)
	if err != nil {
		s.requeue(ctx, campaignID, queued)
		return nil, err
	}
	if err := s.tickRepo.SaveTick(ctx, &rec.Tick, rec.Commands, rec.Events); err != nil {
		s.requeue(ctx, campaignID, queued)
		return nil, fmt.Errorf("save tick: %w", err)
	}
	// The tick row is committed; later writes are repaired on the next tick.
	if err := s.campaignRepo.UpdateProgress(ctx, campaignID, rec.Tick.Tick, rec.Tick.Date, rec.Tick.Checksum); err != nil {
		l.Error().Err(err).Int("tick", rec.Tick.Tick).Msg("Failed to update campaign progress")
	}
	if err := s.cache.SetSnapshot(ctx, campaignID, rec.Tick.Snapshot); err != nil {
		s.staleCache.Store(campaignID, true)
		l.Error().Err(err).Int("tick", rec.Tick.Tick).Msg("Failed to cache snapshot")
	}

	out := &TickResult{
		TickAdvanced: TickAdvanced{
			CampaignID: campaignID,
			Tick:       rec.Tick.Tick,
			Date:       rec.Tick.Date,
			Checksum:   rec.Tick.Checksum,
			Commands:   len(results),
		},
		Events: rec.Log,
	}
	for _, cr := range rec.Commands {
		if cr.Error != "" {
			out.Rejected++
		}
	}
	for i, r := range results {
		out.Results = append(out.Results, CommandOutcome{
			Country:   string(r.Country),
			Command:   r.Command,
			ErrorKind: rec.Commands[i].ErrorKind,
			Error:     rec.Commands[i].Error,
		})
	}

	s.broadcaster.BroadcastCampaignEvent(campaignID, "tick_advanced", out.TickAdvanced)
	for _, e := range rec.Log {
		s.broadcaster.BroadcastCampaignEvent(campaignID, "war_event", e)
	}

	l.Debug().Int("tick", out.Tick).Str("date", out.Date).Int("commands", out.Commands).
		Int("rejected", out.Rejected).Int("events", len(rec.Log)).Msg("Tick advanced")
	return out, nil
}

// loadSnapshot reads the cached world unless it is known or observed to lag
// the tick history, in which case the latest saved tick wins.
func (s *TickService) loadSnapshot(ctx context.Context, c *model.Campaign) (*warfare.WorldState, error) {
	if _, stale := s.staleCache.Load(c.ID); !stale {
		ws, err := s.campaigns.Snapshot(ctx, c.ID)
		if err != nil || ws.Tick() >= c.CurrentTick {
			return ws, err
		}
		l := logger.ForCampaign(c.ID)
		l.Warn().Int("cached", ws.Tick()).Int("recorded", c.CurrentTick).
			Msg("Cached snapshot behind tick history")
	}
	ws, err := s.campaigns.ReloadSnapshot(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	s.staleCache.Delete(c.ID)
	return ws, nil
}

// decodeQueued orders batches by country tag, keeping each country's
// submission order.
func decodeQueued(queued map[string][]json.RawMessage, onError func(country string, err error)) []warfare.CountryCommands {
	countries := make([]string, 0, len(queued))
	for country := range queued {
		countries = append(countries, country)
	}
	slices.Sort(countries)

	var inputs []warfare.CountryCommands
	for _, country := range countries {
		cc := warfare.CountryCommands{Country: warfare.Tag(country)}
		for _, raw := range queued[country] {
			var batch []warfare.Command
			if err := json.Unmarshal(raw, &batch); err != nil {
				onError(country, err)
				continue
			}
			cc.Commands = append(cc.Commands, batch...)
		}
		if len(cc.Commands) > 0 {
			inputs = append(inputs, cc)
		}
	}
	return inputs
}

func (s *TickService) requeue(ctx context.Context, campaignID string, queued map[string][]json.RawMessage) {
	l := logger.ForCampaign(campaignID)
	for country, batches := range queued {
		for _, raw := range batches {
			if err := s.cache.QueueCommands(ctx, campaignID, country, raw); err != nil {
				l.Error().Err(err).Str("country", country).Msg("Failed to requeue commands")
			}
		}
	}
}
