package channel

import (
	"context"

	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// InfoPacket frames this channel's CHANNEL_INFO payload, using the
// wire-visible name rewrite for ephemeral channels.
func (c *Channel) InfoPacket() []byte {
	w := wire.NewWriter()
	wire.OsuChannel{
		Name:        WireName(c.Name),
		Topic:       c.Description,
		PlayerCount: int32(len(c.Members)),
	}.Serialise(w)
	return wire.Frame(uint16(packets.ChannelInfo), w.Bytes())
}

func simplePacket(id packets.Out) []byte {
	return wire.Frame(uint16(id), nil)
}

// Join adds sess as a member of c if allowed, returning false without
// joining if sess is already a member.
func Join(ctx context.Context, sessions *session.Store, store *Store, sess *session.Session, c *Channel) (bool, error) {
	if _, already := c.Members[sess.Account.ID]; already {
		return false, nil
	}

	if !c.CanRead(sess.Account.IsAdmin()) {
		return false, nil
	}
	if c.Name == "#lobby" && !sess.InLobby {
		return false, nil
	}

	c.Members[sess.Account.ID] = struct{}{}
	sess.Channels[c.Name] = struct{}{}

	if err := store.Update(ctx, c); err != nil {
		return false, err
	}
	if err := sessions.Update(ctx, sess); err != nil {
		return false, err
	}

	if err := fanout.ToSession(ctx, sessions, sess.Account.ID, simplePacket(packets.ChannelJoinSuccess)); err != nil {
		return false, err
	}

	return true, announce(ctx, sessions, store, c)
}

// Leave removes sess from c, disposing a temp channel once it empties
// and otherwise persisting the updated member set.
func Leave(ctx context.Context, sessions *session.Store, store *Store, sess *session.Session, c *Channel) error {
	delete(c.Members, sess.Account.ID)
	delete(sess.Channels, c.Name)

	if err := sessions.Update(ctx, sess); err != nil {
		return err
	}

	if len(c.Members) == 0 && c.Temp {
		return store.Delete(ctx, c)
	}

	if err := store.Update(ctx, c); err != nil {
		return err
	}
	return announce(ctx, sessions, store, c)
}

// announce fans out CHANNEL_INFO: to members only for temp channels,
// otherwise to every session with read access.
func announce(ctx context.Context, sessions *session.Store, store *Store, c *Channel) error {
	packet := c.InfoPacket()

	if c.Temp {
		ids := make([]int32, 0, len(c.Members))
		for id := range c.Members {
			ids = append(ids, id)
		}
		return fanout.ToSessions(ctx, sessions, ids, packet, nil)
	}

	all, err := sessions.FetchAll(ctx)
	if err != nil {
		return err
	}
	for _, s := range all {
		if !c.CanRead(s.Account.IsAdmin()) {
			continue
		}
		if err := fanout.ToSession(ctx, sessions, s.Account.ID, packet); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage delivers text from sender to channel c. Requires
// membership and write access; the sender never receives its own
// message back (bancho convention). The outgoing Message's target is
// rewritten to the wire-visible channel name.
func SendMessage(ctx context.Context, sessions *session.Store, c *Channel, text string, sender *session.Session) error {
	if _, member := c.Members[sender.Account.ID]; !member {
		return nil
	}
	if !c.CanWrite(sender.Account.IsAdmin()) {
		return nil
	}

	w := wire.NewWriter()
	wire.Message{
		SenderName: sender.Account.Name,
		Content:    text,
		Target:     WireName(c.Name),
		SenderID:   sender.Account.ID,
	}.Serialise(w)
	packet := wire.Frame(uint16(packets.SendMessage), w.Bytes())

	ids := make([]int32, 0, len(c.Members))
	for id := range c.Members {
		ids = append(ids, id)
	}

	return fanout.ToSessions(ctx, sessions, ids, packet, &sender.Account.ID)
}
