package rest

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StreamEvents opens the persistent event stream. The subscription is
// registered when the transport opens and removed exactly when the
// request context ends; the server never closes the stream on its own
// and runs no heartbeat, so a half-open transport holds its slot until
// the connection finally dies.
func (rc *roomController) StreamEvents(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	sub := rc.Service.Subscribe()
	defer rc.Service.Unsubscribe(sub)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, open := <-sub.C():
			if !open {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
