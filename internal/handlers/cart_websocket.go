package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coffeeshop/internal/middleware"
	"coffeeshop/internal/notify"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type cartMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Event   string `json:"event,omitempty"`
	Items   any    `json:"items,omitempty"`
	Total   string `json:"total,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	origins := h.deps.Origins
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 || slices.Contains(origins, "*") {
				return true
			}
			return slices.Contains(origins, origin)
		},
	}
}

// CartWebSocket pushes the profile's cart every time it changes, from this
// process or any other sharing the notifier.
func (h *Handler) CartWebSocket(c *gin.Context) {
	if h.deps.Notifier == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "live cart disabled"})
		return
	}
	profileID := c.GetString(middleware.ProfileKey)
	if profileID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no profile"})
		return
	}

	// subscribe before the upgrade so no change is missed once connected
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe, err := h.deps.Notifier.Subscribe(ctx, notify.CartTopic(profileID))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	log := h.log.With(zap.String("profile", profileID))
	log.Debug("🔌 cart websocket connected")

	// the reader only notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeWS(conn, cartMessage{Type: "connected", Message: "live cart enabled"}); err != nil {
		return
	}
	if err := h.pushCart(ctx, conn, profileID, ""); err != nil {
		log.Debug("cart websocket write", zap.Error(err))
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("cart websocket closed")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.pushCart(ctx, conn, profileID, string(ev)); err != nil {
				log.Debug("cart websocket write", zap.Error(err))
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// pushCart reloads the cart from storage and sends it.
func (h *Handler) pushCart(ctx context.Context, conn *websocket.Conn, profileID, event string) error {
	s, err := h.openShop(ctx, profileID)
	if err != nil {
		return err
	}
	view := cartView(s.Cart.View())
	return h.writeWS(conn, cartMessage{
		Type:  "cart_updated",
		Event: event,
		Items: view.Items,
		Total: view.Total.StringFixed(2),
		Count: &view.Count,
	})
}

func (h *Handler) writeWS(conn *websocket.Conn, msg cartMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
