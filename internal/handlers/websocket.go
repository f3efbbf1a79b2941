package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/models"
	"github.com/pomo1231/solbombs2/internal/services"
)

const (
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessageSettlement    = "SETTLEMENT"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	gameEngine *services.GameEngine
	hub        *WebSocketHub
}

type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	Address models.Address
	Conn    *websocket.Conn

	mu sync.Mutex
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`

	// audience limits delivery to the players an event involves; nil means everyone.
	audience *models.SettlementEvent
}

func NewWebSocketHandler(gameEngine *services.GameEngine) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		gameEngine: gameEngine,
		hub:        hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	who, ok := requireCaller(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to upgrade to websocket")
		return
	}

	client := &Client{
		Address: who,
		Conn:    conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(c, client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("address", who.String()).Msg("websocket error")
			}
			break
		}

		switch msg.Type {
		case MessagePing:
			client.write(&Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		case MessageBalanceUpdate:
			h.sendBalance(c, client)
		}
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	balance, err := h.gameEngine.Balance(c.Request.Context(), client.Address)
	if err != nil {
		log.Warn().Err(err).Str("address", client.Address.String()).Msg("failed to read balance for websocket")
		return
	}

	client.write(&Message{
		Type: MessageBalanceUpdate,
		Data: models.BalanceResponse{Address: client.Address, Balance: balance},
	})
}

// BroadcastSettlement fans a committed event out to the parties it names.
// It never blocks the settlement path: events are dropped when the hub is
// backed up.
func (h *WebSocketHandler) BroadcastSettlement(evt *models.SettlementEvent) {
	msg := &Message{
		Type: MessageSettlement,
		Data: evt,
	}
	if evt.Kind != models.EventTreasurySnapshot {
		msg.audience = evt
	}

	select {
	case h.hub.broadcast <- msg:
	default:
		log.Warn().Str("event", evt.ID).Msg("websocket hub full, dropping settlement")
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true
			log.Debug().Str("address", client.Address.String()).Msg("websocket client registered")

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				log.Debug().Str("address", client.Address.String()).Msg("websocket client unregistered")
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	for client := range hub.clients {
		if message.wants(client.Address) {
			client.write(message)
		}
	}
}

func (m *Message) wants(addr models.Address) bool {
	return m.audience == nil || m.audience.Involves(addr)
}

func (c *Client) write(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.Conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("address", c.Address.String()).Msg("websocket write failed")
	}
}
