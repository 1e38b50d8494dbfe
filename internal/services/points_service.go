package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/ledger"
	"teampulse/internal/models"
)

type pointsServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPointsService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) PointsService {
	return &pointsServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *pointsServiceImpl) Balance(ctx context.Context, userID string) (int64, error) {
	const selectBalanceQuery = `
SELECT balance
FROM balances
WHERE user_id = $1
`
	var balance int64
	err := s.pgPool.QueryRow(
		ctx,
		selectBalanceQuery,
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No cache row means no ledger entries yet.
			return 0, nil
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select balance")
		return 0, err
	}

	return balance, nil
}

func (s *pointsServiceImpl) History(ctx context.Context, userID string, offset, limit uint32) ([]*models.LedgerEntry, error) {
	if limit == 0 {
		limit = 32
	}

	const selectLedgerEntriesQuery = `
SELECT id,
       delta,
       reason,
       task_id,
       created_at
FROM ledger_entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`
	rows, err := s.pgPool.Query(
		ctx,
		selectLedgerEntriesQuery,
		userID,
		limit,
		offset,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select ledger entries")
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.LedgerEntry, 0, limit)
	for rows.Next() {
		entry := &models.LedgerEntry{UserID: userID}
		err = rows.Scan(
			&entry.ID,
			&entry.Delta,
			&entry.Reason,
			&entry.TaskID,
			&entry.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan ledger entry")
			return nil, err
		}
		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return entries, nil
}

// Redeem appends a negative entry for a rewards-shop purchase.
// The balance check runs against the ledger sum inside the same
// transaction, so two concurrent redemptions cannot both spend
// the same points.
func (s *pointsServiceImpl) Redeem(ctx context.Context, params RedeemParams) (*models.LedgerEntry, error) {
	if params.Cost <= 0 {
		return nil, ErrInsufficientPoints
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Locking the user's cache row serializes concurrent
	// redemptions; the sum below is still taken from the ledger.
	const lockBalanceQuery = `
INSERT INTO balances (user_id, balance, updated_at)
VALUES ($1, 0, $2)
ON CONFLICT (user_id) DO NOTHING
`
	_, err = tx.Exec(ctx, lockBalanceQuery, params.UserID, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to ensure balance row")
		return nil, err
	}

	const selectBalanceForUpdateQuery = `
SELECT balance
FROM balances
WHERE user_id = $1
FOR UPDATE
`
	var cached int64
	err = tx.QueryRow(
		ctx,
		selectBalanceForUpdateQuery,
		params.UserID,
	).Scan(&cached)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to lock balance row")
		return nil, err
	}

	const selectLedgerSumQuery = `
SELECT COALESCE(SUM(delta), 0)
FROM ledger_entries
WHERE user_id = $1
`
	var balance int64
	err = tx.QueryRow(
		ctx,
		selectLedgerSumQuery,
		params.UserID,
	).Scan(&balance)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to sum ledger entries")
		return nil, err
	}

	if balance < params.Cost {
		s.logger.Warn().
			Str("user_id", params.UserID).
			Int64("balance", balance).
			Int64("cost", params.Cost).
			Msg("insufficient points for redemption")
		return nil, ErrInsufficientPoints
	}

	now := time.Now()
	entry := &models.LedgerEntry{
		UserID:    params.UserID,
		Delta:     -params.Cost,
		Reason:    models.ReasonRewardRedemption,
		CreatedAt: now,
	}

	const insertLedgerEntryQuery = `
INSERT INTO ledger_entries (user_id, delta, reason, task_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err = tx.QueryRow(
		ctx,
		insertLedgerEntryQuery,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		entry.TaskID,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to insert redemption entry")
		return nil, err
	}

	const upsertBalanceQuery = `
INSERT INTO balances (user_id, balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET balance = balances.balance + EXCLUDED.balance,
              updated_at = EXCLUDED.updated_at
`
	_, err = tx.Exec(
		ctx,
		upsertBalanceQuery,
		entry.UserID,
		entry.Delta,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to update balance cache")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", params.UserID).
		Str("reward", params.Reward).
		Int64("cost", params.Cost).
		Msg("redeemed reward")
	return entry, nil
}

func (s *pointsServiceImpl) Adjust(ctx context.Context, params AdjustParams) (*models.LedgerEntry, error) {
	if params.Delta == 0 {
		return nil, ErrZeroAdjustment
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	entry := &models.LedgerEntry{
		UserID:    params.UserID,
		Delta:     params.Delta,
		Reason:    models.ReasonManualAdjustment,
		CreatedAt: now,
	}

	const insertLedgerEntryQuery = `
INSERT INTO ledger_entries (user_id, delta, reason, task_id, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err = tx.QueryRow(
		ctx,
		insertLedgerEntryQuery,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		entry.TaskID,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to insert adjustment entry")
		return nil, err
	}

	const upsertBalanceQuery = `
INSERT INTO balances (user_id, balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET balance = balances.balance + EXCLUDED.balance,
              updated_at = EXCLUDED.updated_at
`
	_, err = tx.Exec(
		ctx,
		upsertBalanceQuery,
		entry.UserID,
		entry.Delta,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to update balance cache")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", params.UserID).
		Str("actor_id", params.ActorID).
		Int64("delta", params.Delta).
		Msg("adjusted points")
	return entry, nil
}

// Reconcile enforces the cache invariant: for every user,
// balances.balance == SUM(ledger_entries.delta). Drifted rows are
// repaired from the ledger, which stays authoritative.
func (s *pointsServiceImpl) Reconcile(ctx context.Context) (int, error) {
	const selectSumsQuery = `
SELECT user_id, COALESCE(SUM(delta), 0)
FROM ledger_entries
GROUP BY user_id
`
	actual, err := s.selectAmounts(ctx, selectSumsQuery)
	if err != nil {
		return 0, err
	}

	const selectCachedQuery = `
SELECT user_id, balance
FROM balances
`
	cached, err := s.selectAmounts(ctx, selectCachedQuery)
	if err != nil {
		return 0, err
	}

	drifts := ledger.Diff(cached, actual)
	for _, drift := range drifts {
		s.logger.Warn().
			Str("user_id", drift.UserID).
			Int64("cached", drift.Cached).
			Int64("actual", drift.Actual).
			Msg("balance cache drifted from ledger")

		const repairBalanceQuery = `
INSERT INTO balances (user_id, balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET balance = EXCLUDED.balance,
              updated_at = EXCLUDED.updated_at
`
		_, err = s.pgPool.Exec(
			ctx,
			repairBalanceQuery,
			drift.UserID,
			drift.Actual,
			time.Now(),
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", drift.UserID).
				Msg("failed to repair balance cache")
			return 0, err
		}
	}

	if len(drifts) > 0 {
		s.logger.Info().
			Int("repaired", len(drifts)).
			Msg("reconciled balance cache")
	}
	return len(drifts), nil
}

func (s *pointsServiceImpl) selectAmounts(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := s.pgPool.Query(ctx, query)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select balances")
		return nil, err
	}
	defer rows.Close()

	amounts := make(map[string]int64)
	for rows.Next() {
		var userID string
		var amount int64
		err = rows.Scan(&userID, &amount)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan balance")
			return nil, err
		}
		amounts[userID] = amount
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return amounts, nil
}
