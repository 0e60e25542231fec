package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/grand-campaign/internal/auth"
	"github.com/freeeve/grand-campaign/internal/middleware"
	"github.com/freeeve/grand-campaign/internal/model"
	"github.com/freeeve/grand-campaign/internal/service"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// Progress is the campaign position sent on connect and on resync, so a
// client can tell which tick_advanced events it missed.
type Progress struct {
	Country  string `json:"country"`
	Status   string `json:"status"`
	Tick     int    `json:"tick"`
	Date     string `json:"date"`
	Checksum string `json:"checksum"`
}

// WSHandler upgrades seat holders to a WebSocket bound to their campaign.
type WSHandler struct {
	hub         *Hub
	jwtMgr      *auth.JWTManager
	campaignSvc *service.CampaignService
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a WSHandler accepting upgrades from allowedOrigins.
func NewWSHandler(hub *Hub, jwtMgr *auth.JWTManager, campaignSvc *service.CampaignService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:         hub,
		jwtMgr:      jwtMgr,
		campaignSvc: campaignSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// ServeWS handles GET /api/v1/ws. The token comes from ?token= since
// browsers cannot set headers on upgrades.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	seat, err := auth.SeatFromRequest(h.jwtMgr, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	campaign, err := h.campaignSvc.GetCampaign(r.Context(), seat.CampaignID)
	if err != nil {
		writeError(w, campaignStatus(err), err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("campaignId", seat.CampaignID).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:       conn,
		campaignID: seat.CampaignID,
		country:    seat.Country,
		send:       make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)
	h.hub.Subscribe(client, seat.CampaignID)
	h.sendProgress(client, EventConnected, campaign)

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("campaignId", seat.CampaignID).Str("country", seat.Country).
		Int("tick", campaign.CurrentTick).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

func (h *WSHandler) sendProgress(c *WSConn, eventType string, campaign *model.Campaign) {
	msg, err := json.Marshal(WSEvent{
		Type:       eventType,
		CampaignID: campaign.ID,
		Data: Progress{
			Country:  c.country,
			Status:   campaign.Status,
			Tick:     campaign.CurrentTick,
			Date:     campaign.CurrentDate,
			Checksum: campaign.Checksum,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal progress")
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("campaignId", c.campaignID).Str("country", c.country).Msg("Dropping progress for slow client")
	}
}

// handleMessage applies one client message.
func (h *WSHandler) handleMessage(ctx context.Context, c *WSConn, msg ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		if !h.hub.Subscribe(c, msg.CampaignID) {
			log.Debug().Str("country", c.country).Str("campaignId", msg.CampaignID).Msg("Ignoring subscription to foreign campaign")
		}
	case ActionUnsubscribe:
		h.hub.Unsubscribe(c, msg.CampaignID)
	case ActionResync:
		campaign, err := h.campaignSvc.GetCampaign(ctx, c.campaignID)
		if err != nil {
			log.Warn().Err(err).Str("campaignId", c.campaignID).Msg("Resync failed")
			return
		}
		h.sendProgress(c, EventResync, campaign)
	default:
		log.Debug().Str("action", msg.Action).Str("country", c.country).Msg("Unknown WebSocket action")
	}
}

// readPump reads client messages until the connection drops.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("campaignId", c.campaignID).Str("country", c.country).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("country", c.country).Msg("WebSocket unexpected close")
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		h.handleMessage(ctx, c, msg)
		cancel()
	}
}

// writePump batches queued messages into frames and keeps the connection
// alive with pings.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			for range len(c.send) {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
