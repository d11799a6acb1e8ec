package controllers

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/trendhack/dashboard/internal/pkg/realtime"
	"github.com/trendhack/dashboard/internal/pkg/usercontext"
)

// RealtimeController streams change signals to the signed-in user.
type RealtimeController struct {
	hub       *realtime.Hub
	heartbeat time.Duration
}

func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub, heartbeat: realtime.HeartbeatInterval}
}

// HandleStream opens the SSE stream. ?tables= limits the tables and ?row=
// a single row id; the subscription ends with the connection.
func (rc *RealtimeController) HandleStream(c *fiber.Ctx) error {
	row := c.QueryInt("row", 0)
	if row < 0 {
		row = 0
	}
	sub := rc.hub.Subscribe(usercontext.GetUserID(c), realtime.ParseTables(c.Query("tables")), uint(row))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := rc.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		rc.hub.Pump(sub, w, heartbeat)
	}))
	return nil
}
