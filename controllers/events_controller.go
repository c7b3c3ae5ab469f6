package controllers

import (
	"net/http"
	"time"

	"shop-service/events"
	"shop-service/middleware"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepaliveInterval = 25 * time.Second

type EventsController struct {
	broadcaster *events.Broadcaster
	logger      *zap.Logger
}

func NewEventsController(broadcaster *events.Broadcaster, logger *zap.Logger) *EventsController {
	return &EventsController{broadcaster: broadcaster, logger: logger}
}

// Stream holds the connection open and writes each broadcast event as an SSE
// data frame. The handle is released when the client disconnects, when the
// broadcaster drops the subscriber, or at shutdown.
func (ec *EventsController) Stream(c *gin.Context) {
	sub := ec.broadcaster.Subscribe()
	defer ec.broadcaster.Unsubscribe(sub)

	middleware.SSESubscriberConnected()
	defer middleware.SSESubscriberDisconnected()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	// Comment frame straight away so the client knows the stream is live.
	if _, err := c.Writer.WriteString(":\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.C():
			if !ok {
				return
			}
			if err := sse.Encode(c.Writer, sse.Event{Data: evt}); err != nil {
				ec.logger.Debug("SSE write failed, dropping subscriber", zap.Error(err))
				return
			}
			c.Writer.Flush()
		case <-keepalive.C:
			if _, err := c.Writer.WriteString(":\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
