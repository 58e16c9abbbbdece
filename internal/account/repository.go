package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"banchogate/pkg/database"
)

// ErrNotFound is returned by Repository lookups that find no matching
// row.
var ErrNotFound = errors.New("account: not found")

// Repository is the account persistence contract the bancho core
// depends on. It never sees SQL.
type Repository interface {
	FetchByID(ctx context.Context, id int32) (Account, error)
	FetchByName(ctx context.Context, name string) (Account, error)
	UpdatePrivileges(ctx context.Context, a Account) error
	AddFriend(ctx context.Context, userID, friendID int32) error
	RemoveFriend(ctx context.Context, userID, friendID int32) error
}

// SQLRepository backs Repository with the relational tables `users`,
// `users_stats`, `users_relationships`, via the shared multi-driver
// connection.
type SQLRepository struct {
	conn *database.Connection
}

// NewSQLRepository wraps an already-open connection.
func NewSQLRepository(conn *database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

const selectAccountColumns = `id, username, email, privileges, password_bcrypt, country,
	clan_id, clan_privileges, silence_end, donor_expire, freeze_end`

func (r *SQLRepository) FetchByID(ctx context.Context, id int32) (Account, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+selectAccountColumns+` FROM users WHERE id = ?`, id)
	return scanAccountWithFriends(ctx, r.conn, row, id)
}

func (r *SQLRepository) FetchByName(ctx context.Context, name string) (Account, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+selectAccountColumns+` FROM users WHERE safe_name = ?`, SafeName(name))

	var a Account
	if err := scanAccountRow(row, &a); err != nil {
		return Account{}, err
	}

	friends, err := loadFriends(ctx, r.conn, a.ID)
	if err != nil {
		return Account{}, err
	}
	a.Friends = friends

	return a, nil
}

func (r *SQLRepository) UpdatePrivileges(ctx context.Context, a Account) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE users SET privileges = ? WHERE id = ?`, a.Privileges, a.ID)
	if err != nil {
		return fmt.Errorf("update privileges for account %d: %w", a.ID, err)
	}
	return nil
}

func (r *SQLRepository) AddFriend(ctx context.Context, userID, friendID int32) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users_relationships (user_id, friend_id) VALUES (?, ?)`, userID, friendID)
	if err != nil {
		return fmt.Errorf("add friend %d for account %d: %w", friendID, userID, err)
	}
	return nil
}

func (r *SQLRepository) RemoveFriend(ctx context.Context, userID, friendID int32) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM users_relationships WHERE user_id = ? AND friend_id = ?`, userID, friendID)
	if err != nil {
		return fmt.Errorf("remove friend %d for account %d: %w", friendID, userID, err)
	}
	return nil
}

func scanAccountWithFriends(ctx context.Context, conn *database.Connection, row *sql.Row, id int32) (Account, error) {
	var a Account
	if err := scanAccountRow(row, &a); err != nil {
		return Account{}, err
	}

	friends, err := loadFriends(ctx, conn, id)
	if err != nil {
		return Account{}, err
	}
	a.Friends = friends

	return a, nil
}

func scanAccountRow(row *sql.Row, a *Account) error {
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Privileges, &a.PasswordBcrypt, &a.Country,
		&a.ClanID, &a.ClanPrivileges, &a.SilenceEnd, &a.DonorExpire, &a.FreezeEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("scan account: %w", err)
	}
	return nil
}

func loadFriends(ctx context.Context, conn *database.Connection, id int32) (map[int32]struct{}, error) {
	rows, err := conn.QueryContext(ctx, `SELECT friend_id FROM users_relationships WHERE user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load friends for account %d: %w", id, err)
	}
	defer rows.Close()

	friends := make(map[int32]struct{})
	for rows.Next() {
		var friendID int32
		if err := rows.Scan(&friendID); err != nil {
			return nil, fmt.Errorf("scan friend row: %w", err)
		}
		friends[friendID] = struct{}{}
	}

	return friends, rows.Err()
}
