package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/foodvlog/backend/internal/auth"
	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type wsClient struct {
	conn  *websocket.Conn
	actor string
	role  string
	mu    sync.Mutex // serializes writes
}

func (cl *wsClient) send(data []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub fans workflow events out to connected actors: vendors and vloggers
// receive events that name them, admins receive everything.
type WSHub struct {
	jwtSecret  string
	subscriber events.Subscriber
	log        *zap.Logger
	mu         sync.RWMutex
	clients    map[*wsClient]struct{}
}

func NewWSHub(jwtSecret string, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		jwtSecret:  jwtSecret,
		subscriber: subscriber,
		log:        log,
		clients:    make(map[*wsClient]struct{}),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamWorkflow, h.dispatch)
}

func (h *WSHub) dispatch(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	recipients := make(map[string]struct{})
	for _, id := range event.Recipients() {
		recipients[id] = struct{}{}
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for cl := range h.clients {
		if _, ok := recipients[cl.actor]; ok || cl.role == rbac.RoleAdmin {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.send(data); err != nil {
			h.log.Debug("ws write failed", zap.String("actor_id", cl.actor), zap.Error(err))
		}
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"success":false,"message":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.jwtSecret, tokenStr)
	if err != nil || !rbac.IsValidRole(claims.Role) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"success":false,"message":"invalid token"}`))
		conn.Close()
		return
	}

	cl := &wsClient{conn: conn, actor: claims.ActorID.String(), role: claims.Role}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
