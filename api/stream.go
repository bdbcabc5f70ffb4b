package api

import (
	"net/http"
	"time"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/gin-gonic/gin"
)

// streamProgress pushes task snapshots over SSE. A snapshot goes out on
// every (status, progress) change, never twice in a row for the same pair;
// the stream closes after the terminal snapshot. Idle streams carry a
// comment heartbeat so clients can tell a stall from a dead connection.
func (s *Server) streamProgress(c *gin.Context) {
	id := c.Param("id")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var (
		sent         bool
		lastStatus   extract.Status
		lastProgress int
	)

	// emit sends the current snapshot if it changed; false ends the stream.
	emit := func() bool {
		t, err := s.store.Get(id)
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
			c.Writer.Flush()
			return false
		}

		if sent && t.Status == lastStatus && t.Progress == lastProgress {
			return true
		}

		c.SSEvent("status", viewOf(t))
		c.Writer.Flush()
		sent = true
		lastStatus, lastProgress = t.Status, t.Progress

		return !t.Status.Terminal()
	}

	if !emit() {
		return
	}

	poll := time.NewTicker(s.PollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(s.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			c.Writer.WriteString(": heartbeat\n\n")
			c.Writer.Flush()
		case <-poll.C:
			if !emit() {
				return
			}
		}
	}
}
