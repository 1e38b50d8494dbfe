package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/models"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewSessionService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *sessionServiceImpl) GetSessionUser(ctx context.Context, sessionID string) (*SessionUser, error) {
	result := &SessionUser{
		User: &models.User{},
	}

	const selectSessionUserQuery = `
SELECT u.id,
       u.email,
       u.display_name,
       u.role,
       s.fingerprint
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSessionUserQuery,
		sessionID,
	).Scan(
		&result.User.ID,
		&result.User.Email,
		&result.User.DisplayName,
		&result.User.Role,
		&result.Fingerprint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to select session user")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", sessionID).
		Str("user_id", result.User.ID).
		Msg("selected session user")

	return result, nil
}
