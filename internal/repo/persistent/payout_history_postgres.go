package persistent

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/payout-controller/internal/entity"
	"github.com/andreyxaxa/payout-controller/pkg/postgres"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	// Table
	payoutHistoryTable = "payout_history"

	// Columns
	recipientColumn = "recipient"
	amountColumn    = "amount"
	statusColumn    = "status"
	detailColumn    = "detail"
	createdAtColumn = "created_at"
)

type PayoutHistoryRepo struct {
	builder  squirrel.StatementBuilderType
	executor postgres.Executor
}

func NewPayoutHistoryRepo(pg *postgres.Postgres) *PayoutHistoryRepo {
	return &PayoutHistoryRepo{
		builder:  pg.Builder,
		executor: pg.GetExecutor(),
	}
}

func (r *PayoutHistoryRepo) Save(ctx context.Context, outcome entity.PayoutOutcome) error {
	sql, args, err := r.insertQuery(outcome)
	if err != nil {
		return fmt.Errorf("PayoutHistoryRepo - Save - r.insertQuery: %w", err)
	}

	_, err = r.executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("PayoutHistoryRepo - Save - r.executor.Exec: %w", err)
	}

	return nil
}

func (r *PayoutHistoryRepo) insertQuery(outcome entity.PayoutOutcome) (string, []any, error) {
	var amount pgtype.Numeric

	err := amount.Scan(outcome.Amount.String())
	if err != nil {
		return "", nil, fmt.Errorf("amount.Scan: %w", err)
	}

	sql, args, err := r.builder.
		Insert(payoutHistoryTable).
		Columns(
			recipientColumn,
			amountColumn,
			statusColumn,
			detailColumn,
			createdAtColumn,
		).
		Values(
			outcome.Recipient,
			amount,
			string(outcome.Status),
			outcome.Detail,
			outcome.CreatedAt,
		).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("r.builder.ToSql: %w", err)
	}

	return sql, args, nil
}
