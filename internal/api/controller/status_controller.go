package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/greensidehq/greenside/internal/connectivity"
	"github.com/greensidehq/greenside/internal/logger"
)

// StatusController exposes the connectivity state the core owns:
// online, offline, or reconnecting while a refresh is in flight.
type StatusController struct {
	notifier *connectivity.Notifier
	upgrader websocket.Upgrader
}

func NewStatusController(notifier *connectivity.Notifier) *StatusController {
	return &StatusController{
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The CORS middleware already gates browser origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Status handles GET requests for the current connectivity state.
func (sc *StatusController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": sc.notifier.Current()})
}

// statusMessage is the wire shape pushed to websocket subscribers.
type statusMessage struct {
	State connectivity.State `json:"state"`
	At    int64              `json:"at"` // Unix timestamp in milliseconds
}

// Subscribe upgrades to a websocket and pushes every connectivity transition
// until the client disconnects. The rendering layer uses this to drive its
// offline/stale indicator.
func (sc *StatusController) Subscribe(c *gin.Context) {
	conn, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithComponent("status").Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, updates := sc.notifier.Subscribe()
	defer sc.notifier.Unsubscribe(id)
	logger.WithComponent("status").Debugf("subscriber %s connected", id)

	// Reader goroutine: we never expect client messages, but reading is what
	// detects a closed connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-done:
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			msg := statusMessage{State: state, At: time.Now().UnixMilli()}
			if err := conn.WriteJSON(msg); err != nil {
				logger.WithComponent("status").Debugf("subscriber %s write failed: %v", id, err)
				return
			}
		}
	}
}
