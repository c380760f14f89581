package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, symbol, entry_price, exit_price, quantity, entry_value,
	stop_loss, take_profit_1, take_profit_2, current_price,
	unrealized_pnl, unrealized_pnl_pct, realized_pnl, realized_pnl_pct,
	entry_timestamp, exit_timestamp, exit_reason, status, signal_id`

func scanPositionRow(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var status string
	var exitReason *string

	err := row.Scan(
		&p.ID, &p.Symbol, &p.EntryPrice, &p.ExitPrice, &p.Quantity, &p.EntryValue,
		&p.StopLoss, &p.TakeProfit1, &p.TakeProfit2, &p.CurrentPrice,
		&p.UnrealizedPnL, &p.UnrealizedPnLPct, &p.RealizedPnL, &p.RealizedPnLPct,
		&p.EntryTimestamp, &p.ExitTimestamp, &exitReason, &status, &p.SignalID,
	)
	if err != nil {
		return domain.Position{}, err
	}
	p.Status = domain.PositionStatus(status)
	if exitReason != nil {
		r := domain.ExitReason(*exitReason)
		p.ExitReason = &r
	}
	return p, nil
}

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	defer rows.Close()
	var positions []domain.Position
	for rows.Next() {
		p, err := scanPositionRow(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// ListOpen returns every OPEN position, newest entry first.
func (s *PositionStore) ListOpen(ctx context.Context) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + `
		FROM positions
		WHERE status = $1
		ORDER BY entry_timestamp DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, string(domain.PositionStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("postgres: list open positions: %w", err)
	}
	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan open positions: %w", err)
	}
	return positions, nil
}

// GetByID retrieves a single position by id.
func (s *PositionStore) GetByID(ctx context.Context, id int64) (domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE id = $1`

	p, err := scanPositionRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, fmt.Errorf("postgres: position %d: %w", id, domain.ErrNotFound)
		}
		return domain.Position{}, fmt.Errorf("postgres: get position: %w", err)
	}
	return p, nil
}

// ListJournal returns the positions matching every set field of filter,
// newest entry first. The confidence filter is not applied here because
// confidence lives on the analysis row.
func (s *PositionStore) ListJournal(ctx context.Context, filter domain.JournalFilter) ([]domain.Position, error) {
	query, args := buildJournalQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal: %w", err)
	}
	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan journal: %w", err)
	}
	return positions, nil
}

func buildJournalQuery(f domain.JournalFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + positionSelectCols + ` FROM positions WHERE TRUE`)

	args := []any{}
	argIdx := 1
	add := func(clause string, v any) {
		fmt.Fprintf(&b, " AND "+clause, argIdx)
		args = append(args, v)
		argIdx++
	}

	if sym := strings.TrimSpace(f.Symbol); sym != "" {
		add(`symbol ILIKE $%d ESCAPE '\'`, "%"+escapeLike(sym)+"%")
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	switch f.Outcome {
	case domain.OutcomeWins:
		b.WriteString(" AND realized_pnl > 0")
	case domain.OutcomeLosses:
		b.WriteString(" AND realized_pnl < 0")
	}
	if f.ExitReason != nil {
		add("exit_reason = $%d", string(*f.ExitReason))
	}
	if f.From != nil {
		add("entry_timestamp >= $%d", *f.From)
	}
	if f.To != nil {
		add("entry_timestamp <= $%d", *f.To)
	}

	b.WriteString(" ORDER BY entry_timestamp DESC, id DESC")
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
