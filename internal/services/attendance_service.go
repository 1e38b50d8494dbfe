package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/models"
)

type attendanceServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewAttendanceService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) AttendanceService {
	return &attendanceServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *attendanceServiceImpl) ClockIn(ctx context.Context, userID string) (*models.AttendanceRecord, error) {
	const selectOpenRecordQuery = `
SELECT id
FROM attendance
WHERE user_id = $1 AND
      clock_out IS NULL AND
      clock_in >= date_trunc('day', now())
`
	var openID int64
	err := s.pgPool.QueryRow(
		ctx,
		selectOpenRecordQuery,
		userID,
	).Scan(&openID)
	if err == nil {
		s.logger.Warn().
			Str("user_id", userID).
			Int64("record_id", openID).
			Msg("already clocked in")
		return nil, ErrAlreadyClockedIn
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select open attendance record")
		return nil, err
	}

	record := &models.AttendanceRecord{
		UserID:  userID,
		ClockIn: time.Now(),
	}

	const insertRecordQuery = `
INSERT INTO attendance (user_id, clock_in)
VALUES ($1, $2)
RETURNING id
`
	err = s.pgPool.QueryRow(
		ctx,
		insertRecordQuery,
		record.UserID,
		record.ClockIn,
	).Scan(&record.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to insert attendance record")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("record_id", record.ID).
		Msg("clocked in")
	return record, nil
}

func (s *attendanceServiceImpl) ClockOut(ctx context.Context, userID string) (*models.AttendanceRecord, error) {
	now := time.Now()

	const closeRecordQuery = `
UPDATE attendance
SET clock_out = $1
WHERE user_id = $2 AND
      clock_out IS NULL
RETURNING id, clock_in
`
	record := &models.AttendanceRecord{
		UserID:   userID,
		ClockOut: &now,
	}
	err := s.pgPool.QueryRow(
		ctx,
		closeRecordQuery,
		now,
		userID,
	).Scan(
		&record.ID,
		&record.ClockIn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("user_id", userID).
				Msg("no open clock-in to close")
			return nil, ErrNotClockedIn
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to close attendance record")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("record_id", record.ID).
		Msg("clocked out")
	return record, nil
}
