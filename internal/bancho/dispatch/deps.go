// Package dispatch wires every client->server packet to its handler:
// the registry table builder (schema + handler + restricted flag per
// packet id) and handle_request, the loop that walks one HTTP batch
// and coalesces the session mutation it produces.
package dispatch

import (
	"log/slog"

	"banchogate/internal/account"
	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/match"
	"banchogate/internal/bancho/session"
	"banchogate/pkg/metrics"
)

// Deps collects the stores and external collaborators every handler
// closure needs. One Deps builds one process-lifetime Table.
type Deps struct {
	Sessions *session.Store
	Channels *channel.Store
	Matches  *match.Store
	Accounts account.Repository
	Stats    account.StatsRepository
	Metrics  *metrics.BanchoMetrics
	Logger   *slog.Logger
}
