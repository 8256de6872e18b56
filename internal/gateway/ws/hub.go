// Package ws implements the messaging gateway over WebSocket channels: it
// posts messages and question embeds to every client of a channel, collects
// reaction events through timed response windows, and routes prefixed chat
// commands to the command layer.
package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/harmiox/trivia-bot/internal/gateway"
	"github.com/harmiox/trivia-bot/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once a real frontend exists
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// CommandFunc handles one prefixed chat command and returns the reply text.
type CommandFunc func(ctx context.Context, channel, responderID, displayName, text string) string

// Hub manages channel-scoped WebSocket connections and response windows.
type Hub struct {
	logger    zerolog.Logger
	prefix    string
	onCommand CommandFunc

	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	windows  map[uuid.UUID]*window
	closed   bool
}

var _ gateway.Gateway = (*Hub)(nil)

// NewHub creates a hub. prefix marks chat messages that carry commands.
func NewHub(prefix string, logger zerolog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		prefix:   prefix,
		channels: make(map[string]map[*Client]struct{}),
		windows:  make(map[uuid.UUID]*window),
	}
}

// SetCommandHandler installs the command router. Must be called before
// clients connect.
func (h *Hub) SetCommandHandler(fn CommandFunc) {
	h.onCommand = fn
}

// PostMessage broadcasts a plain message to every client of the channel.
func (h *Hub) PostMessage(ctx context.Context, channel, content string) (gateway.MessageRef, error) {
	ref := gateway.MessageRef{ID: uuid.New(), Channel: channel}
	if err := h.broadcast(channel, Outbound{
		Type:    TypeMessage,
		ID:      ref.ID.String(),
		Channel: channel,
		Content: content,
	}); err != nil {
		return gateway.MessageRef{}, err
	}
	return ref, nil
}

// PostEmbed broadcasts a question embed to every client of the channel.
func (h *Hub) PostEmbed(ctx context.Context, channel string, embed gateway.Embed) (gateway.MessageRef, error) {
	payload := &EmbedPayload{
		Description: embed.Description,
		Footer:      embed.Footer,
		ImageURL:    embed.ImageURL,
	}
	for _, f := range embed.Fields {
		payload.Fields = append(payload.Fields, EmbedField{Name: f.Name, Value: f.Value})
	}

	ref := gateway.MessageRef{ID: uuid.New(), Channel: channel}
	if err := h.broadcast(channel, Outbound{
		Type:    TypeEmbed,
		ID:      ref.ID.String(),
		Channel: channel,
		Embed:   payload,
	}); err != nil {
		return gateway.MessageRef{}, err
	}
	return ref, nil
}

// OpenResponseWindow starts collecting reactions to the message until the
// duration elapses or the window is cancelled.
func (h *Hub) OpenResponseWindow(ctx context.Context, ref gateway.MessageRef, validOptions []string, d time.Duration) (gateway.ResponseWindow, error) {
	valid := make(map[string]bool, len(validOptions))
	for _, opt := range validOptions {
		valid[opt] = true
	}

	w := &window{
		hub:    h,
		id:     ref.ID,
		valid:  valid,
		events: make(chan gateway.Response, 256),
		logger: h.logger,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, gateway.ErrUnavailable
	}
	h.windows[ref.ID] = w
	h.mu.Unlock()

	// Cancel reads the timer under w.mu; arm it under the same lock.
	w.mu.Lock()
	if !w.closed {
		w.timer = time.AfterFunc(d, w.Cancel)
	}
	w.mu.Unlock()
	return w, nil
}

// ServeWS upgrades an HTTP request to a channel connection. Required query
// parameters: channel, user_id, username.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	userID := r.URL.Query().Get("user_id")
	username := r.URL.Query().Get("username")
	if channel == "" || userID == "" || username == "" {
		http.Error(w, "channel, user_id and username are required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:         h,
		conn:        conn,
		sendCh:      make(chan Outbound, 64),
		channel:     channel,
		userID:      userID,
		displayName: username,
		logger:      h.logger.With().Str("user_id", userID).Str("channel", channel).Logger(),
	}

	h.register(client)
	go client.writePump()
	client.readPump()
	h.unregister(client)
}

// Close shuts the hub down: every window is cancelled and every client
// disconnected. Posting afterwards fails with gateway.ErrUnavailable.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var windows []*window
	for _, w := range h.windows {
		windows = append(windows, w)
	}
	var clients []*Client
	for _, set := range h.channels {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, w := range windows {
		w.Cancel()
	}
	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) broadcast(channel string, msg Outbound) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return gateway.ErrUnavailable
	}
	var clients []*Client
	for c := range h.channels[channel] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.send(msg)
	}
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[c.channel]
	if !ok {
		set = make(map[*Client]struct{})
		h.channels[c.channel] = set
	}
	set[c] = struct{}{}
	h.logger.Info().Str("user_id", c.userID).Str("channel", c.channel).Msg("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.channels[c.channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.channels, c.channel)
		}
	}
	h.mu.Unlock()
	c.close()
	h.logger.Info().Str("user_id", c.userID).Str("channel", c.channel).Msg("client disconnected")
}

func (h *Hub) dropWindow(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.windows, id)
}

// handleInbound routes one client message: reactions go to their window,
// prefixed chat goes to the command handler.
func (h *Hub) handleInbound(c *Client, msg Inbound) {
	switch msg.Type {
	case TypeReact:
		id, err := uuid.Parse(msg.MessageID)
		if err != nil {
			return
		}
		h.mu.RLock()
		w := h.windows[id]
		h.mu.RUnlock()
		if w == nil {
			return
		}
		w.deliver(gateway.Response{
			ResponderID: c.userID,
			DisplayName: c.displayName,
			Option:      msg.Option,
			At:          time.Now(),
		})
	case TypeChat:
		if h.onCommand == nil || h.prefix == "" || !strings.HasPrefix(msg.Text, h.prefix) {
			return
		}
		reply := h.onCommand(context.Background(), c.channel, c.userID, c.displayName,
			strings.TrimPrefix(msg.Text, h.prefix))
		if reply != "" {
			if _, err := h.PostMessage(context.Background(), c.channel, reply); err != nil {
				h.logger.Warn().Err(err).Msg("failed to post command reply")
			}
		}
	}
}

// window is one timed response collection, keyed by the posted message id.
type window struct {
	hub    *Hub
	id     uuid.UUID
	valid  map[string]bool
	events chan gateway.Response
	timer  *time.Timer
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

var _ gateway.ResponseWindow = (*window)(nil)

func (w *window) Events() <-chan gateway.Response {
	return w.events
}

// Cancel closes the event stream. Safe to call more than once and
// concurrently with deliveries.
func (w *window) Cancel() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.events)
	w.mu.Unlock()

	w.hub.dropWindow(w.id)
}

func (w *window) deliver(resp gateway.Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.valid[resp.Option] {
		return
	}
	select {
	case w.events <- resp:
	default:
		w.logger.Warn().Str("message_id", w.id.String()).Msg("response window buffer full, dropping event")
	}
}

// Client wraps one WebSocket connection with a buffered send queue.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	sendCh      chan Outbound
	channel     string
	userID      string
	displayName string
	logger      zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func (c *Client) send(msg Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.sendCh <- msg:
	default:
		c.logger.Warn().Msg("send queue full, dropping message")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.hub.handleInbound(c, msg)
	}
}
