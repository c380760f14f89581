package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Message types pushed to browsers.
const (
	MessageSnapshot = "snapshot"
	MessageChange   = "change"
)

// Message is the JSON frame sent to websocket subscribers. Positions always
// carries the full table after the change was applied.
type Message struct {
	Type        string                 `json:"type"`
	Environment domain.Environment     `json:"environment"`
	Change      *domain.PositionChange `json:"change,omitempty"`
	Positions   []domain.Position      `json:"positions"`
}

// Broadcaster delivers an encoded Message to the subscribers of env.
type Broadcaster interface {
	Broadcast(env domain.Environment, msg []byte)
}

// Notifier forwards operator alerts.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

type openPositionLister interface {
	ListOpen(ctx context.Context, env domain.Environment) ([]domain.Position, error)
}

// Notification event names.
const (
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
	EventFeedError      = "feed_error"
)

// FeedConfig configures one environment's feed.
type FeedConfig struct {
	Env     domain.Environment
	Channel string
	// Resync reloads the table from the store on this interval. Zero
	// disables it.
	Resync time.Duration
}

// Feed seeds a Table from the store and keeps it current from a ChangeFeed.
type Feed struct {
	cfg       FeedConfig
	source    domain.ChangeFeed
	positions openPositionLister
	table     *Table
	out       Broadcaster
	notifier  Notifier
	logger    *slog.Logger
}

// NewFeed creates a Feed. out and notifier may be nil.
func NewFeed(cfg FeedConfig, source domain.ChangeFeed, positions openPositionLister, table *Table, out Broadcaster, notifier Notifier, logger *slog.Logger) *Feed {
	return &Feed{
		cfg:       cfg,
		source:    source,
		positions: positions,
		table:     table,
		out:       out,
		notifier:  notifier,
		logger: logger.With(
			slog.String("component", "live_feed"),
			slog.String("environment", string(cfg.Env)),
		),
	}
}

// Run seeds the table and applies change events until ctx is cancelled.
// Subscription failures are logged and end this feed only; Run returns nil
// in that case so sibling feeds keep running.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.reload(ctx); err != nil {
		f.fail(ctx, "seed", err)
		return nil
	}

	ch, err := f.source.Subscribe(ctx, f.cfg.Channel)
	if err != nil {
		f.fail(ctx, "subscribe", err)
		return nil
	}
	f.logger.Info("live feed started",
		slog.String("channel", f.cfg.Channel),
		slog.Int("open_positions", f.table.Len()),
	)
	defer f.logger.Info("live feed stopped")

	var resync <-chan time.Time
	if f.cfg.Resync > 0 {
		t := time.NewTicker(f.cfg.Resync)
		defer t.Stop()
		resync = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resync:
			if err := f.reload(ctx); err != nil {
				f.logger.Warn("live feed resync failed", slog.String("error", err.Error()))
			}
		case data, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.fail(ctx, "receive", domain.ErrFeedClosed)
				return nil
			}
			if err := f.Handle(ctx, data); err != nil {
				f.logger.Debug("live feed handle message failed",
					slog.String("error", err.Error()),
					slog.Int("payload_len", len(data)),
				)
			}
		}
	}
}

// Handle decodes one change payload, applies it and broadcasts the result.
func (f *Feed) Handle(ctx context.Context, data []byte) error {
	var ch domain.PositionChange
	if err := json.Unmarshal(data, &ch); err != nil {
		return fmt.Errorf("live: decode change: %w", err)
	}
	if ch.Table != "" && ch.Table != "positions" {
		return nil
	}

	f.announce(ctx, ch)

	if !f.table.Apply(ch) {
		return nil
	}
	f.publish(Message{Type: MessageChange, Change: &ch})
	return nil
}

func (f *Feed) reload(ctx context.Context) error {
	rows, err := f.positions.ListOpen(ctx, f.cfg.Env)
	if err != nil {
		return err
	}
	f.table.Seed(rows)
	f.publish(Message{Type: MessageSnapshot})
	return nil
}

func (f *Feed) publish(msg Message) {
	if f.out == nil {
		return
	}
	msg.Environment = f.cfg.Env
	msg.Positions = f.table.Snapshot()
	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Error("live feed encode failed", slog.String("error", err.Error()))
		return
	}
	f.out.Broadcast(f.cfg.Env, data)
}

// announce raises position_opened / position_closed. A close arrives as an
// update whose record is no longer OPEN.
func (f *Feed) announce(ctx context.Context, ch domain.PositionChange) {
	if f.notifier == nil || ch.Record == nil {
		return
	}
	p := ch.Record
	var event, title, body string
	switch {
	case ch.Type == domain.ChangeInsert && p.IsOpen():
		event = EventPositionOpened
		title = fmt.Sprintf("[%s] Position opened", f.cfg.Env)
		body = fmt.Sprintf("%s %s @ %s", p.Symbol, humanize.Ftoa(p.Quantity), humanize.FormatFloat("#,###.##", p.EntryPrice))
	case ch.Type == domain.ChangeUpdate && p.Status == domain.PositionStatusClosed:
		event = EventPositionClosed
		title = fmt.Sprintf("[%s] Position closed", f.cfg.Env)
		pnl, pct := p.PnL()
		body = fmt.Sprintf("%s P&L %s (%.2f%%)", p.Symbol, humanize.FormatFloat("#,###.##", pnl), pct)
		if p.ExitReason != nil {
			body += " " + string(*p.ExitReason)
		}
	default:
		return
	}
	if err := f.notifier.Notify(ctx, event, title, body); err != nil {
		f.logger.Warn("live feed notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (f *Feed) fail(ctx context.Context, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	f.logger.Error("live feed stopped on error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	if f.notifier != nil {
		_ = f.notifier.Notify(ctx, EventFeedError,
			fmt.Sprintf("[%s] Live feed stopped", f.cfg.Env),
			fmt.Sprintf("%s: %v", op, err))
	}
}
