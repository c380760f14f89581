package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// ChangeListener implements domain.ChangeFeed with LISTEN/NOTIFY. A trigger
// on positions is expected to pg_notify the channel with a JSON payload of
// the form {"type","table","record","old_record"}.
type ChangeListener struct {
	client *Client
	logger *slog.Logger
}

// NewChangeListener creates a listener on c.
func NewChangeListener(c *Client, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{
		client: c,
		logger: logger.With(slog.String("component", "pg_listener")),
	}
}

// Subscribe holds one pooled connection in LISTEN mode until ctx is done.
// The returned channel is closed when the subscription ends.
func (l *ChangeListener) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	conn, err := l.client.Pool().Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire listener conn: %w", err)
	}
	if _, err := conn.Exec(ctx, listenSQL(channel)); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres: listen %s: %w", channel, err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		defer func() {
			// The connection still has an active LISTEN; drop it rather
			// than returning it to the pool.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					l.logger.Error("wait for notification failed",
						slog.String("channel", channel),
						slog.String("error", err.Error()),
					)
				}
				return
			}
			select {
			case out <- []byte(n.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// listenSQL quotes channel as an identifier; LISTEN takes no bind
// parameters.
func listenSQL(channel string) string {
	return "LISTEN " + pgx.Identifier{channel}.Sanitize()
}

var _ domain.ChangeFeed = (*ChangeListener)(nil)
