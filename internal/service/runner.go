package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner advances every active campaign by one day per interval.
type Runner struct {
	campaigns *CampaignService
	ticks     *TickService
	interval  time.Duration
}

// NewRunner creates a Runner.
func NewRunner(campaigns *CampaignService, ticks *TickService, interval time.Duration) *Runner {
	return &Runner{campaigns: campaigns, ticks: ticks, interval: interval}
}

// Start blocks, ticking until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("Campaign runner started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Campaign runner stopped")
			return
		case <-ticker.C:
			r.advanceAll(ctx)
		}
	}
}

// advanceAll steps each active campaign once. Failures are logged and do not
// stop the other campaigns.
func (r *Runner) advanceAll(ctx context.Context) {
	campaigns, err := r.campaigns.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active campaigns")
		return
	}
	for _, c := range campaigns {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.ticks.Advance(ctx, c.ID); err != nil {
			log.Error().Err(err).Str("campaignId", c.ID).Msg("Tick failed")
		}
	}
}
