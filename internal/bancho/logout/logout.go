// Package logout implements the bancho logout algorithm: tearing a
// session out of every channel, match, and spectator relationship it
// holds before it is removed from the store.
package logout

import (
	"context"
	"time"

	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/match"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/spectate"
	"banchogate/internal/bancho/wire"
)

// minAge is the window after login during which a LOGOUT packet is
// suppressed, since clients send one as part of their own startup
// jitter immediately after connecting.
const minAge = time.Second

// Handle removes sess from the world: it leaves every channel it
// belongs to (dissolving empty ephemeral ones), leaves its match and
// stops spectating, clears its outbound queue, and deletes it from the
// session store and the global session-id list. If sess was public it
// broadcasts USER_LOGOUT to everyone else. A session logging out
// within minAge of its own login is a no-op, since that's almost
// always the client's startup LOGOUT rather than a real disconnect.
func Handle(ctx context.Context, sessions *session.Store, channels *channel.Store, matches *match.Store, sess *session.Session) error {
	if sess.LoginTime != 0 && time.Now().Unix()-sess.LoginTime < int64(minAge.Seconds()) {
		return nil
	}

	if sess.Spectating != nil {
		if host, err := sessions.FetchByID(ctx, *sess.Spectating); err != nil {
			return err
		} else if host != nil {
			if err := spectate.Remove(ctx, sessions, channels, host, sess); err != nil {
				return err
			}
		}
	}

	if sess.Match != nil {
		if m, err := matches.FetchByID(ctx, *sess.Match); err != nil {
			return err
		} else if m != nil {
			if err := match.Leave(ctx, matches, channels, sessions, m, sess); err != nil {
				return err
			}
		}
	}

	names := make([]string, 0, len(sess.Channels))
	for name := range sess.Channels {
		names = append(names, name)
	}
	for _, name := range names {
		c, err := channels.FetchByName(ctx, name)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		if err := channel.Leave(ctx, sessions, channels, sess, c); err != nil {
			return err
		}
	}

	if _, err := sessions.DequeueData(ctx, sess.Account.ID); err != nil {
		return err
	}

	wasPublic := sess.IsPublic()

	if err := sessions.RemoveFromSessionList(ctx, sess); err != nil {
		return err
	}
	if err := sessions.Delete(ctx, sess); err != nil {
		return err
	}

	if !wasPublic {
		return nil
	}

	w := wire.NewWriter()
	w.WriteI32(sess.Account.ID)
	packet := wire.Frame(uint16(packets.UserLogout), w.Bytes())
	return fanout.ToGlobal(ctx, sessions, packet, nil)
}
