package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// StreamEvents handles GET /api/v1/events: a server-sent-events tail of the
// event log, from the moment of connection until the client goes away.
func (s *Server) StreamEvents(c echo.Context) error {
	ctx := c.Request().Context()

	stream, err := s.events.Subscribe(ctx)
	if err != nil {
		return s.writeError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err = fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case e, ok := <-stream:
			if !ok {
				return nil
			}
			body, err := json.Marshal(e)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping unencodable event", "type", e.Type, "error", err)
				continue
			}
			if _, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", e.Type, body); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
