package fossology

import (
	"log/slog"

	"github.com/fossdrive/fossdrive/internal/transport"
)

// pageSize is the row count requested per upload-listing page.
const pageSize = 100

// Client is the console driver. It owns no connection state of its own;
// the session carries the login cookie, so one Client per authenticated
// workflow.
type Client struct {
	session *transport.Session
	logger  *slog.Logger
}

// New creates a Client over an existing session. Call Login before any
// other operation; the client does not enforce the ordering.
func New(session *transport.Session, logger *slog.Logger) *Client {
	return &Client{
		session: session,
		logger:  logger.With(slog.String("component", "fossology")),
	}
}
