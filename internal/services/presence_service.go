package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"teampulse/internal/presence"
)

type presenceServiceImpl struct {
	logger        zerolog.Logger
	pgPool        *pgxpool.Pool
	idleThreshold time.Duration
}

func NewPresenceService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	idleThreshold time.Duration,
) PresenceService {
	if idleThreshold <= 0 {
		idleThreshold = presence.DefaultIdleThreshold
	}
	return &presenceServiceImpl{
		logger:        logger,
		pgPool:        pgPool,
		idleThreshold: idleThreshold,
	}
}

func (s *presenceServiceImpl) Heartbeat(ctx context.Context, userID string, taskID *string) error {
	// Last write wins across tabs and devices; the row is a hint
	// that readers re-derive against attendance anyway.
	const upsertPresenceQuery = `
INSERT INTO presence (user_id, status, task_id, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id)
DO UPDATE SET status = CASE WHEN presence.status = $5 THEN $2 ELSE presence.status END,
              task_id = EXCLUDED.task_id,
              updated_at = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(
		ctx,
		upsertPresenceQuery,
		userID,
		presence.StatusOnline,
		taskID,
		time.Now(),
		presence.StatusIdle,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to upsert presence")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Msg("recorded presence heartbeat")

	return nil
}

func (s *presenceServiceImpl) SetStatus(ctx context.Context, userID, status string) error {
	if !presence.IsValidStatus(status) {
		return ErrInvalidPresenceStatus
	}
	return s.WriteStatus(ctx, userID, status)
}

func (s *presenceServiceImpl) WriteStatus(ctx context.Context, userID, status string) error {
	const upsertStatusQuery = `
INSERT INTO presence (user_id, status, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET status = EXCLUDED.status,
              updated_at = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(
		ctx,
		upsertStatusQuery,
		userID,
		status,
		time.Now(),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("status", status).
			Msg("failed to write presence status")
		return err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Str("status", status).
		Msg("wrote presence status")

	return nil
}

// DemoteStale is the storage-side counterpart of the tracker's
// sweep. It leaves updated_at untouched so readers still see how
// stale the row really is.
func (s *presenceServiceImpl) DemoteStale(ctx context.Context, now time.Time) (int64, error) {
	const demoteStaleQuery = `
UPDATE presence
SET status = $1
WHERE status = $2 AND
      updated_at < $3
`
	tag, err := s.pgPool.Exec(
		ctx,
		demoteStaleQuery,
		presence.StatusIdle,
		presence.StatusOnline,
		now.Add(-s.idleThreshold),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to demote stale presence rows")
		return 0, err
	}

	demoted := tag.RowsAffected()
	if demoted > 0 {
		s.logger.Debug().
			Int64("count", demoted).
			Msg("demoted stale presence rows")
	}
	return demoted, nil
}

// presenceHint is the volatile half of a team presence row: the
// stored status, the current task and today's clock-in state.
type presenceHint struct {
	status    string
	taskID    *string
	updatedAt time.Time
	clockedIn bool
}

// TeamPresence derives every user's display status. The roster
// (identity) read is authoritative and its failure fails the call;
// the hint read is not. Users whose hints could not be read render
// offline, so a bad presence or attendance row degrades the users
// it touches instead of failing the whole listing.
func (s *presenceServiceImpl) TeamPresence(ctx context.Context) ([]*TeamPresenceEntry, error) {
	const selectRosterQuery = `
SELECT id,
       display_name
FROM users
ORDER BY display_name
`
	rows, err := s.pgPool.Query(ctx, selectRosterQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select team roster")
		return nil, err
	}
	defer rows.Close()

	var entries []*TeamPresenceEntry
	for rows.Next() {
		entry := &TeamPresenceEntry{Status: presence.StatusOffline}
		err = rows.Scan(
			&entry.UserID,
			&entry.DisplayName,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan roster row")
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

	hints := s.selectPresenceHints(ctx)

	now := time.Now()
	for _, entry := range entries {
		hint, ok := hints[entry.UserID]
		if !ok {
			continue
		}
		applyPresenceHint(entry, hint, now, s.idleThreshold)
	}

	s.logger.Debug().
		Int("count", len(entries)).
		Int("hints", len(hints)).
		Msg("derived team presence")
	return entries, nil
}

// selectPresenceHints reads the stored presence rows joined with
// today's open clock-ins. Errors are logged, never returned: a
// scan failure is fatal to the pgx result set, so the hints read
// before it still apply and every user left without a hint renders
// offline.
func (s *presenceServiceImpl) selectPresenceHints(ctx context.Context) map[string]presenceHint {
	const selectHintsQuery = `
SELECT u.id,
       p.status,
       p.task_id,
       p.updated_at,
       a.id IS NOT NULL AS clocked_in
FROM users u
LEFT JOIN presence p ON p.user_id = u.id
LEFT JOIN attendance a ON a.user_id = u.id AND
                          a.clock_out IS NULL AND
                          a.clock_in >= date_trunc('day', now())
`
	hints := make(map[string]presenceHint)

	rows, err := s.pgPool.Query(ctx, selectHintsQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select presence hints, degrading team to offline")
		return hints
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    string
			hint      presenceHint
			stored    *string
			updatedAt *time.Time
		)
		err = rows.Scan(
			&userID,
			&stored,
			&hint.taskID,
			&updatedAt,
			&hint.clockedIn,
		)
		if err != nil {
			break
		}
		if stored != nil {
			hint.status = *stored
		}
		if updatedAt != nil {
			hint.updatedAt = *updatedAt
		}
		hints[userID] = hint
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("read", len(hints)).
			Msg("presence hint read failed, degrading unread users to offline")
	}
	return hints
}

// applyPresenceHint upgrades a defaulted-offline roster entry with
// a successfully read hint. The current task is only exposed for
// users who are not offline.
func applyPresenceHint(entry *TeamPresenceEntry, hint presenceHint, now time.Time, idleThreshold time.Duration) {
	entry.Status = presence.Derive(hint.clockedIn, hint.status, hint.updatedAt, now, idleThreshold)
	if entry.Status != presence.StatusOffline {
		entry.TaskID = hint.taskID
	}
}
