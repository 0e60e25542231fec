package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/internal/repository"
	"github.com/freeeve/grand-campaign/internal/scenario"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignNotActive = errors.New("campaign is not active")
	ErrUnknownCountry    = errors.New("unknown country")
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrInvalidCommand    = errors.New("invalid command")
	ErrNoSnapshot        = errors.New("campaign has no snapshot")
)

// CreateCampaignRequest is the payload for creating a campaign. Scenario
// names an embedded scenario; ScenarioYAML supplies one inline instead.
type CreateCampaignRequest struct {
	Name         string  `json:"name"`
	Scenario     string  `json:"scenario,omitempty"`
	ScenarioYAML string  `json:"scenario_yaml,omitempty"`
	Seed         *uint64 `json:"seed,omitempty"`
}

// CampaignService handles campaign lifecycle and read access to snapshots.
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	tickRepo     repository.TickRepository
	cache        repository.CampaignCache
	defines      *warfare.Defines

	// graphs caches the adjacency graph parsed from each campaign's scenario.
	graphs sync.Map
}

// NewCampaignService creates a CampaignService. A nil defines uses the
// engine defaults.
func NewCampaignService(campaignRepo repository.CampaignRepository, tickRepo repository.TickRepository, cache repository.CampaignCache, defines *warfare.Defines) *CampaignService {
	if defines == nil {
		defines = warfare.DefaultDefines()
	}
	return &CampaignService{campaignRepo: campaignRepo, tickRepo: tickRepo, cache: cache, defines: defines}
}

// Defines returns the engine constants campaigns run with.
func (s *CampaignService) Defines() *warfare.Defines {
	return s.defines
}

// CreateCampaign builds the starting world, persists it as tick 0 and caches it.
func (s *CampaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*model.Campaign, error) {
	sc, err := loadScenario(req)
	if err != nil {
		return nil, err
	}
	if req.Seed != nil {
		sc.Seed = *req.Seed
	}
	ws, g, err := sc.Build(s.defines)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	name := req.Name
	if name == "" {
		name = sc.Name
	}
	c, err := s.campaignRepo.Create(ctx, name, string(sc.Source), int64(sc.Seed), ws.Date.String())
	if err != nil {
		return nil, err
	}

	rec, err := Record(c.ID, nil, ws, nil)
	if err != nil {
		return nil, err
	}
	if err := s.tickRepo.SaveTick(ctx, &rec.Tick, nil, nil); err != nil {
		return nil, fmt.Errorf("save initial tick: %w", err)
	}
	if err := s.campaignRepo.UpdateProgress(ctx, c.ID, 0, rec.Tick.Date, rec.Tick.Checksum); err != nil {
		return nil, err
	}
	c.Checksum = rec.Tick.Checksum
	if err := s.cache.SetSnapshot(ctx, c.ID, rec.Tick.Snapshot); err != nil {
		return nil, fmt.Errorf("cache snapshot: %w", err)
	}
	s.graphs.Store(c.ID, g)

	log.Info().Str("campaignId", c.ID).Str("scenario", sc.Name).Uint64("seed", sc.Seed).
		Int("countries", len(ws.Countries)).Msg("Campaign created")
	return c, nil
}

func loadScenario(req CreateCampaignRequest) (*scenario.Scenario, error) {
	if req.ScenarioYAML != "" {
		sc, err := scenario.Parse([]byte(req.ScenarioYAML))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
		}
		return sc, nil
	}
	name := req.Scenario
	if name == "" {
		name = scenario.DefaultName
	}
	sc, err := scenario.Builtin(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return sc, nil
}

// GetCampaign returns a campaign or ErrCampaignNotFound.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	c, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

// ListActive returns the campaigns the runner advances.
func (s *CampaignService) ListActive(ctx context.Context) ([]model.Campaign, error) {
	return s.campaignRepo.ListActive(ctx)
}

// SetStatus pauses, resumes or finishes a campaign.
func (s *CampaignService) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case model.StatusActive, model.StatusPaused, model.StatusFinished:
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return err
	}
	if err := s.campaignRepo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	if status == model.StatusFinished {
		if err := s.cache.DeleteCampaignData(ctx, id); err != nil {
			log.Warn().Err(err).Str("campaignId", id).Msg("Failed to clear cached campaign data")
		}
		s.graphs.Delete(id)
	}
	return nil
}

// Snapshot returns the latest world state, reading Redis first and falling
// back to the stored tick history.
func (s *CampaignService) Snapshot(ctx context.Context, id string) (*warfare.WorldState, error) {
	blob, err := s.cache.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return s.ReloadSnapshot(ctx, id)
	}
	return warfare.DecompressSnapshot(blob)
}

// ReloadSnapshot loads the latest saved tick and writes it back to the cache.
func (s *CampaignService) ReloadSnapshot(ctx context.Context, id string) (*warfare.WorldState, error) {
	t, err := s.tickRepo.LatestTick(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoSnapshot
	}
	if err := s.cache.SetSnapshot(ctx, id, t.Snapshot); err != nil {
		log.Warn().Err(err).Str("campaignId", id).Msg("Failed to re-cache snapshot")
	}
	return warfare.DecompressSnapshot(t.Snapshot)
}

// Graph returns the adjacency graph of a campaign's scenario.
func (s *CampaignService) Graph(c *model.Campaign) (*warfare.AdjacencyGraph, error) {
	if g, ok := s.graphs.Load(c.ID); ok {
		return g.(*warfare.AdjacencyGraph), nil
	}
	sc, err := scenario.Parse([]byte(c.Scenario))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	g, err := sc.Graph()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	s.graphs.Store(c.ID, g)
	return g, nil
}

// Wars returns the active wars of a campaign in id order.
func (s *CampaignService) Wars(ctx context.Context, id string) ([]*warfare.War, error) {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return nil, err
	}
	ws, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	wars := make([]*warfare.War, 0, len(ws.Diplomacy.Wars))
	for _, wid := range ws.Diplomacy.WarIDs() {
		wars = append(wars, ws.Diplomacy.War(wid))
	}
	return wars, nil
}

// Events returns the event log from sinceTick onwards.
func (s *CampaignService) Events(ctx context.Context, id string, sinceTick int) ([]model.EventRecord, error) {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return nil, err
	}
	return s.tickRepo.ListEvents(ctx, id, sinceTick)
}

// Ticks returns the tick history of a campaign.
func (s *CampaignService) Ticks(ctx context.Context, id string) ([]model.Tick, error) {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return nil, err
	}
	return s.tickRepo.ListTicks(ctx, id)
}

// RecoverActiveCampaigns rehydrates Redis snapshots for all active campaigns
// from the tick history. Called on server startup.
func (s *CampaignService) RecoverActiveCampaigns(ctx context.Context) error {
	campaigns, err := s.campaignRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		log.Info().Msg("No active campaigns to recover")
		return nil
	}
	log.Info().Int("count", len(campaigns)).Msg("Recovering active campaigns after restart")

	for _, c := range campaigns {
		t, err := s.tickRepo.LatestTick(ctx, c.ID)
		if err != nil {
			log.Error().Err(err).Str("campaignId", c.ID).Msg("Failed to load latest tick during recovery")
			continue
		}
		if t == nil {
			log.Warn().Str("campaignId", c.ID).Msg("Active campaign has no ticks, skipping")
			continue
		}
		if err := s.cache.SetSnapshot(ctx, c.ID, t.Snapshot); err != nil {
			log.Error().Err(err).Str("campaignId", c.ID).Msg("Failed to restore snapshot")
			continue
		}
		if _, err := s.Graph(&c); err != nil {
			log.Error().Err(err).Str("campaignId", c.ID).Msg("Failed to rebuild adjacency graph")
			continue
		}
		log.Info().Str("campaignId", c.ID).Int("tick", t.Tick).Str("date", t.Date).Msg("Recovered campaign state")
	}
	return nil
}
