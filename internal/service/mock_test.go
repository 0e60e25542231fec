package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/freeeve/grand-campaign/internal/model"
)

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	nextID    int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: make(map[string]*model.Campaign)}
}

func (m *mockCampaignRepo) Create(_ context.Context, name, scenario string, seed int64, startDate string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := &model.Campaign{
		ID:          fmt.Sprintf("campaign-%d", m.nextID),
		Name:        name,
		Scenario:    scenario,
		Status:      model.StatusActive,
		Seed:        seed,
		StartDate:   startDate,
		CurrentDate: startDate,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.campaigns[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) FindByID(_ context.Context, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) ListActive(_ context.Context) ([]model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Campaign
	for i := 1; i <= m.nextID; i++ {
		if c, ok := m.campaigns[fmt.Sprintf("campaign-%d", i)]; ok && c.Status == model.StatusActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) UpdateProgress(_ context.Context, id string, tick int, date, checksum string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return errors.New("not found")
	}
	c.CurrentTick, c.CurrentDate, c.Checksum = tick, date, checksum
	return nil
}

func (m *mockCampaignRepo) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return errors.New("not found")
	}
	c.Status = status
	return nil
}

type mockTickRepo struct {
	mu       sync.Mutex
	ticks    map[string][]model.Tick
	commands map[string][]model.CommandRecord
	events   map[string][]model.EventRecord
	failSave error
}

func newMockTickRepo() *mockTickRepo {
	return &mockTickRepo{
		ticks:    make(map[string][]model.Tick),
		commands: make(map[string][]model.CommandRecord),
		events:   make(map[string][]model.EventRecord),
	}
}

func (m *mockTickRepo) SaveTick(_ context.Context, tick *model.Tick, commands []model.CommandRecord, events []model.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	for _, t := range m.ticks[tick.CampaignID] {
		if t.Tick == tick.Tick {
			return fmt.Errorf("duplicate tick %d", tick.Tick)
		}
	}
	m.ticks[tick.CampaignID] = append(m.ticks[tick.CampaignID], *tick)
	m.commands[tick.CampaignID] = append(m.commands[tick.CampaignID], commands...)
	m.events[tick.CampaignID] = append(m.events[tick.CampaignID], events...)
	return nil
}

func (m *mockTickRepo) LatestTick(_ context.Context, campaignID string) (*model.Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticks := m.ticks[campaignID]
	if len(ticks) == 0 {
		return nil, nil
	}
	t := ticks[len(ticks)-1]
	return &t, nil
}

func (m *mockTickRepo) ListTicks(_ context.Context, campaignID string) ([]model.Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Tick
	for _, t := range m.ticks[campaignID] {
		t.Snapshot = nil
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTickRepo) ListEvents(_ context.Context, campaignID string, sinceTick int) ([]model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EventRecord
	for _, e := range m.events[campaignID] {
		if e.Tick >= sinceTick {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockTickRepo) ListCommands(_ context.Context, campaignID string, tick int) ([]model.CommandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CommandRecord
	for _, c := range m.commands[campaignID] {
		if c.Tick == tick {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockCache struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	queued    map[string]map[string][]json.RawMessage
	// failSetSnapshot fails that many SetSnapshot calls.
	failSetSnapshot int
}

func newMockCache() *mockCache {
	return &mockCache{
		snapshots: make(map[string][]byte),
		queued:    make(map[string]map[string][]json.RawMessage),
	}
}

func (c *mockCache) SetSnapshot(_ context.Context, campaignID string, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSetSnapshot > 0 {
		c.failSetSnapshot--
		return errors.New("redis unavailable")
	}
	c.snapshots[campaignID] = snapshot
	return nil
}

func (c *mockCache) GetSnapshot(_ context.Context, campaignID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots[campaignID], nil
}

func (c *mockCache) QueueCommands(_ context.Context, campaignID, country string, commands json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queued[campaignID] == nil {
		c.queued[campaignID] = make(map[string][]json.RawMessage)
	}
	c.queued[campaignID][country] = append(c.queued[campaignID][country], commands)
	return nil
}

func (c *mockCache) DrainCommands(_ context.Context, campaignID string) (map[string][]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queued[campaignID]
	delete(c.queued, campaignID)
	if out == nil {
		out = make(map[string][]json.RawMessage)
	}
	return out, nil
}

func (c *mockCache) DeleteCampaignData(_ context.Context, campaignID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, campaignID)
	delete(c.queued, campaignID)
	return nil
}

func (c *mockCache) queuedCount(campaignID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, batches := range c.queued[campaignID] {
		n += len(batches)
	}
	return n
}

type broadcastCall struct {
	campaignID string
	eventType  string
	data       any
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *mockBroadcaster) BroadcastCampaignEvent(campaignID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{campaignID, eventType, data})
}

func (b *mockBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.eventType == eventType {
			n++
		}
	}
	return n
}

// testServices wires the services over in-memory mocks.
type testServices struct {
	campaignRepo *mockCampaignRepo
	tickRepo     *mockTickRepo
	cache        *mockCache
	broadcaster  *mockBroadcaster
	campaigns    *CampaignService
	commands     *CommandService
	ticks        *TickService
}

func newTestServices() *testServices {
	ts := &testServices{
		campaignRepo: newMockCampaignRepo(),
		tickRepo:     newMockTickRepo(),
		cache:        newMockCache(),
		broadcaster:  &mockBroadcaster{},
	}
	ts.campaigns = NewCampaignService(ts.campaignRepo, ts.tickRepo, ts.cache, nil)
	ts.commands = NewCommandService(ts.campaigns, ts.cache)
	ts.ticks = NewTickService(ts.campaigns, ts.campaignRepo, ts.tickRepo, ts.cache, ts.broadcaster)
	return ts
}
