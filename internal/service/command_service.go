package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/internal/repository"
	"github.com/freeeve/grand-campaign/pkg/warfare"
)

// CommandSubmission is the request payload for queuing commands.
type CommandSubmission struct {
	Commands []warfare.Command `json:"commands"`
}

// CommandService validates and queues commands for the next tick.
type CommandService struct {
	campaigns *CampaignService
	cache     repository.CampaignCache
}

// NewCommandService creates a CommandService.
func NewCommandService(campaigns *CampaignService, cache repository.CampaignCache) *CommandService {
	return &CommandService{campaigns: campaigns, cache: cache}
}

// preview loads the snapshot the next tick will start from and moves it to
// the date commands will execute on.
func (s *CommandService) preview(ctx context.Context, campaignID, country string) (*warfare.WorldState, *warfare.AdjacencyGraph, error) {
	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if c.Status != model.StatusActive {
		return nil, nil, ErrCampaignNotActive
	}
	ws, err := s.campaigns.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if !ws.CountryExists(warfare.Tag(country)) {
		return nil, nil, ErrUnknownCountry
	}
	g, err := s.campaigns.Graph(c)
	if err != nil {
		return nil, nil, err
	}
	ws.Date = ws.Date.AddDays(1)
	return ws, g, nil
}

// SubmitCommands checks commands in order against the next day's state and
// queues them. A batch is accepted or rejected as a whole. Acceptance is
// advisory: the tick re-validates, and other countries' commands may still
// make a queued command fail.
func (s *CommandService) SubmitCommands(ctx context.Context, campaignID, country string, commands []warfare.Command) error {
	if len(commands) == 0 {
		return fmt.Errorf("%w: no commands", ErrInvalidCommand)
	}
	ws, g, err := s.preview(ctx, campaignID, country)
	if err != nil {
		return err
	}
	d := s.campaigns.Defines()
	for i, cmd := range commands {
		if err := warfare.ExecuteCommand(ws, warfare.Tag(country), cmd, g, d); err != nil {
			return fmt.Errorf("%w: command %d (%s): %w", ErrInvalidCommand, i, cmd.Describe(), err)
		}
	}

	data, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	if err := s.cache.QueueCommands(ctx, campaignID, country, data); err != nil {
		return err
	}
	return nil
}

// AvailableCommands lists the commands country could issue next tick.
func (s *CommandService) AvailableCommands(ctx context.Context, campaignID, country string) ([]warfare.Command, error) {
	ws, g, err := s.preview(ctx, campaignID, country)
	if err != nil {
		return nil, err
	}
	return warfare.AvailableCommands(ws, warfare.Tag(country), g, s.campaigns.Defines()), nil
}
