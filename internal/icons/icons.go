// Package icons serves the main-menu icon the login welcome stream
// advertises: a small, frequently-read, rarely-written table a caller
// picks one row from at random.
package icons

import (
	"context"
	"fmt"
	"math/rand"

	"banchogate/pkg/database"
)

// Icon is one row of the main-menu icon rotation.
type Icon struct {
	ImageURL string
	ClickURL string
}

// Repository serves the current main-menu icon rotation.
type Repository interface {
	FetchRandom(ctx context.Context) (Icon, error)
}

// SQLRepository backs Repository with the `main_menu_icons` table.
type SQLRepository struct {
	conn *database.Connection
}

// NewSQLRepository wraps an already-open connection.
func NewSQLRepository(conn *database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// FetchRandom returns one of the currently-active icons, chosen
// uniformly at random among rows matching `is_current = 1`.
func (r *SQLRepository) FetchRandom(ctx context.Context) (Icon, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT image_url, click_url FROM main_menu_icons WHERE is_current = 1`)
	if err != nil {
		return Icon{}, fmt.Errorf("fetch main menu icons: %w", err)
	}
	defer rows.Close()

	var all []Icon
	for rows.Next() {
		var icon Icon
		if err := rows.Scan(&icon.ImageURL, &icon.ClickURL); err != nil {
			return Icon{}, fmt.Errorf("scan main menu icon: %w", err)
		}
		all = append(all, icon)
	}
	if err := rows.Err(); err != nil {
		return Icon{}, err
	}
	if len(all) == 0 {
		return Icon{}, fmt.Errorf("no current main menu icons configured")
	}

	return all[rand.Intn(len(all))], nil
}
