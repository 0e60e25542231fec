package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types sent over WebSocket.
const (
	EventTickAdvanced   = "tick_advanced"
	EventWarEvent       = "war_event"
	EventCommandsQueued = "commands_queued"
	EventStatusChanged  = "status_changed"
	EventConnected      = "connected"
	EventResync         = "resync"
)

// Client actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionResync      = "resync"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type       string `json:"type"`
	CampaignID string `json:"campaign_id"`
	Data       any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action     string `json:"action"`
	CampaignID string `json:"campaign_id"`
}

// WSConn wraps a WebSocket connection with the seat it authenticated as.
type WSConn struct {
	conn       *websocket.Conn
	campaignID string
	country    string
	send       chan []byte
}

// Hub manages WebSocket connections and campaign-channel subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	campaigns   map[string]map[*WSConn]bool // campaignID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		campaigns:   make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for id, conns := range h.campaigns {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.campaigns, id)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a campaign channel. A connection may only
// follow the campaign its token was issued for.
func (h *Hub) Subscribe(c *WSConn, campaignID string) bool {
	if campaignID != c.campaignID {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.campaigns[campaignID] == nil {
		h.campaigns[campaignID] = make(map[*WSConn]bool)
	}
	h.campaigns[campaignID][c] = true
	return true
}

// Unsubscribe removes a connection from a campaign channel.
func (h *Hub) Unsubscribe(c *WSConn, campaignID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.campaigns[campaignID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.campaigns, campaignID)
		}
	}
}

// BroadcastToCampaign sends an event to all connections subscribed to a campaign.
func (h *Hub) BroadcastToCampaign(campaignID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("campaignId", campaignID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.campaigns[campaignID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("country", c.country).Str("campaignId", campaignID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastToCountry sends an event to every connection playing country in
// the campaign, subscribed or not.
func (h *Hub) BroadcastToCountry(campaignID, country string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("campaignId", campaignID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections {
		if c.campaignID == campaignID && c.country == country {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CampaignSubscriberCount returns the number of connections subscribed to a campaign.
func (h *Hub) CampaignSubscriberCount(campaignID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.campaigns[campaignID])
}
