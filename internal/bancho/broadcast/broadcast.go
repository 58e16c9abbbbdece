// Package broadcast wires the cross-process pub/sub channels bancho
// subscribes to: announcements from an external admin surface, and
// live restriction of an account that's currently online. Both are
// external collaborators reaching into running sessions between polls
// rather than waiting for the client's next login.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"banchogate/internal/account"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
	"banchogate/pkg/pubsub"
)

// ChannelAnnounce carries a plain-text message fanned out to every
// online session as a NOTIFICATION packet.
const ChannelAnnounce = "bancho:announce"

// ChannelRestrict carries the decimal account id of a user whose
// privileges changed outside bancho (an admin action) and who must be
// told immediately rather than on their next login.
const ChannelRestrict = "bancho:restrict"

// Deps are the collaborators the registered handlers need.
type Deps struct {
	Sessions          *session.Store
	Accounts          account.Repository
	RestrictedMessage string
	Logger            *slog.Logger
}

// Register subscribes bus to every channel broadcast handles.
func Register(bus *pubsub.Bus, deps Deps) {
	bus.Subscribe(ChannelAnnounce, deps.handleAnnounce)
	bus.Subscribe(ChannelRestrict, deps.handleRestrict)
}

func (d Deps) handleAnnounce(ctx context.Context, payload string) error {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}
	return fanout.ToGlobal(ctx, d.Sessions, notificationPacket(payload), nil)
}

// handleRestrict re-reads the account's privileges and, if it's no
// longer public, pushes a NOTIFICATION carrying RestrictedMessage
// followed by ACCOUNT_RESTRICTED, then refreshes the
// session's cached Account so subsequent handlers see the change. A
// user with no live session is a no-op — their next login already
// carries the restriction.
func (d Deps) handleRestrict(ctx context.Context, payload string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 32)
	if err != nil {
		d.Logger.WarnContext(ctx, "restrict broadcast: malformed account id", "payload", payload, "error", err)
		return nil
	}

	sess, err := d.Sessions.FetchByID(ctx, int32(id))
	if err != nil {
		return fmt.Errorf("restrict broadcast: fetch session: %w", err)
	}
	if sess == nil {
		return nil
	}

	acc, err := d.Accounts.FetchByID(ctx, int32(id))
	if err != nil {
		return fmt.Errorf("restrict broadcast: fetch account: %w", err)
	}
	sess.Account = acc

	if sess.IsPublic() {
		return d.Sessions.Update(ctx, sess)
	}

	if err := fanout.ToSession(ctx, d.Sessions, sess.Account.ID, notificationPacket(d.RestrictedMessage)); err != nil {
		return err
	}
	if err := fanout.ToSession(ctx, d.Sessions, sess.Account.ID, simplePacket(packets.AccountRestricted)); err != nil {
		return err
	}

	return d.Sessions.Update(ctx, sess)
}

func simplePacket(id packets.Out) []byte {
	return wire.Frame(uint16(id), nil)
}

func notificationPacket(msg string) []byte {
	w := wire.NewWriter()
	w.WriteString(msg)
	return wire.Frame(uint16(packets.Notification), w.Bytes())
}
