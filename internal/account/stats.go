package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"banchogate/pkg/database"
	"banchogate/pkg/kv"
)

// Stats is one mode's performance record, as presented in USER_STATS.
type Stats struct {
	RankedScore   int64
	TotalScore    int64
	Accuracy      float32
	PlayCount     int32
	PP            int32
	Rank          int32
}

// StatsRepository fetches a mode's Stats, resolving the leaderboard
// rank from the shared key/value store's sorted-set index.
type StatsRepository interface {
	Fetch(ctx context.Context, userID int32, mode int8) (Stats, error)
}

// SQLStatsRepository reads performance columns from `users_stats` and
// resolves rank from a `ripple:<leaderboard>:<stats_prefix>` zset.
type SQLStatsRepository struct {
	conn  *database.Connection
	store kv.Store
}

// NewSQLStatsRepository wires a connection and the shared KV store the
// leaderboard zsets live in.
func NewSQLStatsRepository(conn *database.Connection, store kv.Store) *SQLStatsRepository {
	return &SQLStatsRepository{conn: conn, store: store}
}

func (r *SQLStatsRepository) Fetch(ctx context.Context, userID int32, mode int8) (Stats, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT ranked_score, total_score, accuracy, playcount, pp FROM users_stats WHERE user_id = ? AND mode = ?`,
		userID, mode,
	)

	var s Stats
	if err := row.Scan(&s.RankedScore, &s.TotalScore, &s.Accuracy, &s.PlayCount, &s.PP); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stats{}, ErrNotFound
		}
		return Stats{}, fmt.Errorf("fetch stats for user %d mode %d: %w", userID, mode, err)
	}

	rank, found, err := r.store.ZRevRank(ctx, leaderboardKey(mode), fmt.Sprintf("%d", userID))
	if err != nil {
		return Stats{}, fmt.Errorf("fetch leaderboard rank for user %d mode %d: %w", userID, mode, err)
	}
	if found {
		s.Rank = int32(rank) + 1
	}

	return s, nil
}

func leaderboardKey(mode int8) string {
	return fmt.Sprintf("ripple:leaderboard:%d", mode)
}
