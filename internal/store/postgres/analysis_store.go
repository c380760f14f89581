package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// AnalysisStore implements domain.AnalysisStore over ai_analysis_logs.
type AnalysisStore struct {
	pool *pgxpool.Pool
}

// NewAnalysisStore creates a new AnalysisStore backed by the given connection pool.
func NewAnalysisStore(pool *pgxpool.Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

const analysisListCols = `id, symbol, timestamp, setup_found, setup_type, bias, confidence,
	entry_price, stop_loss, take_profit_1, take_profit_2, risk_reward,
	tokens_used, cost_usd`

const analysisDetailCols = analysisListCols + `, latency_ms, prompt_version, response_received`

func scanAnalysisDest(a *domain.AnalysisLog, confidence **string) []any {
	return []any{
		&a.ID, &a.Symbol, &a.Timestamp, &a.SetupFound, &a.SetupType, &a.Bias, confidence,
		&a.EntryPrice, &a.StopLoss, &a.TakeProfit1, &a.TakeProfit2, &a.RiskReward,
		&a.TokensUsed, &a.CostUSD,
	}
}

func toConfidence(s *string) *domain.Confidence {
	if s == nil {
		return nil
	}
	c := domain.Confidence(*s)
	return &c
}

// List returns analyses newest first, optionally filtered by setup_found.
func (s *AnalysisStore) List(ctx context.Context, opts domain.AnalysisListOpts) ([]domain.AnalysisLog, error) {
	query := `SELECT ` + analysisListCols + ` FROM ai_analysis_logs`
	args := []any{}
	argIdx := 1

	if opts.SetupFound != nil {
		query += fmt.Sprintf(" WHERE setup_found = $%d", argIdx)
		args = append(args, *opts.SetupFound)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC, id DESC LIMIT $%d", argIdx)
	args = append(args, opts.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalysisLog
	for rows.Next() {
		var a domain.AnalysisLog
		var confidence *string
		if err := rows.Scan(scanAnalysisDest(&a, &confidence)...); err != nil {
			return nil, fmt.Errorf("postgres: scan analysis: %w", err)
		}
		a.Confidence = toConfidence(confidence)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list analyses: %w", err)
	}
	return out, nil
}

// GetByID returns one analysis including its raw response.
func (s *AnalysisStore) GetByID(ctx context.Context, id int64) (domain.AnalysisLog, error) {
	query := `SELECT ` + analysisDetailCols + ` FROM ai_analysis_logs WHERE id = $1`

	var a domain.AnalysisLog
	var confidence *string
	dest := append(scanAnalysisDest(&a, &confidence), &a.LatencyMS, &a.PromptVersion, &a.ResponseReceived)
	if err := s.pool.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnalysisLog{}, fmt.Errorf("postgres: analysis %d: %w", id, domain.ErrNotFound)
		}
		return domain.AnalysisLog{}, fmt.Errorf("postgres: get analysis: %w", err)
	}
	a.Confidence = toConfidence(confidence)
	return a, nil
}

// ListForJournal returns the journal projection of the given analyses.
func (s *AnalysisStore) ListForJournal(ctx context.Context, ids []int64) (map[int64]domain.JournalAnalysis, error) {
	out := make(map[int64]domain.JournalAnalysis, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const query = `SELECT id, setup_type, confidence, risk_reward, response_received
		FROM ai_analysis_logs
		WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: list journal analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var ja domain.JournalAnalysis
		var confidence *string
		if err := rows.Scan(&id, &ja.SetupType, &confidence, &ja.RiskReward, &ja.ResponseReceived); err != nil {
			return nil, fmt.Errorf("postgres: scan journal analysis: %w", err)
		}
		ja.Confidence = toConfidence(confidence)
		out[id] = ja
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list journal analyses: %w", err)
	}
	return out, nil
}
