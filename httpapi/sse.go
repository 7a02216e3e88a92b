package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/symposium-chat/symposium/orchestrate"
)

// sseWriter frames orchestration events as server-sent events. Once the
// first event is written the HTTP status is fixed at 200; all later failures
// travel in-band as error events.
type sseWriter struct {
	w       gin.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEWriter(c *gin.Context) *sseWriter {
	flusher, _ := c.Writer.(http.Flusher)
	return &sseWriter{w: c.Writer, flusher: flusher}
}

// Emit writes one event frame and flushes it to the client. The first call
// sets the stream headers.
func (s *sseWriter) Emit(ev orchestrate.Event) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
