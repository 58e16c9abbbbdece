// Package spectate implements spectator mode: the ephemeral
// `#spec_<hostId>` channel a host's first spectator opens, the
// fellow-spectator join/leave notifications, and raw replay-frame
// forwarding.
package spectate

import (
	"context"

	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

func simplePacket(id packets.Out, userID int32) []byte {
	w := wire.NewWriter()
	w.WriteI32(userID)
	return wire.Frame(uint16(id), w.Bytes())
}

// Add seats spectator on host: it opens `#spec_<host.id>` (and joins
// host to it) on the first spectator, notifies every existing
// co-spectator of the newcomer, briefs the newcomer on every existing
// co-spectator, and tells host a new spectator joined.
func Add(ctx context.Context, sessions *session.Store, channels *channel.Store, host, spectator *session.Session) error {
	specChannel, err := channels.FetchByName(ctx, channel.SpectatorChannelName(host.Account.ID))
	if err != nil {
		return err
	}
	if specChannel == nil {
		specChannel = channel.NewSpectatorChannel(host.Account.ID)
		if _, err := channel.Join(ctx, sessions, channels, host, specChannel); err != nil {
			return err
		}
	}

	existing := make([]int32, 0, len(host.Spectators))
	for id := range host.Spectators {
		existing = append(existing, id)
	}

	if _, err := channel.Join(ctx, sessions, channels, spectator, specChannel); err != nil {
		return err
	}

	for _, id := range existing {
		if err := fanout.ToSession(ctx, sessions, id, simplePacket(packets.FellowSpectatorJoined, spectator.Account.ID)); err != nil {
			return err
		}
	}
	for _, id := range existing {
		if err := fanout.ToSession(ctx, sessions, spectator.Account.ID, simplePacket(packets.FellowSpectatorJoined, id)); err != nil {
			return err
		}
	}

	if err := fanout.ToSession(ctx, sessions, host.Account.ID, simplePacket(packets.SpectatorJoined, spectator.Account.ID)); err != nil {
		return err
	}

	host.Spectators[spectator.Account.ID] = struct{}{}
	hostID := host.Account.ID
	spectator.Spectating = &hostID

	if err := sessions.Update(ctx, host); err != nil {
		return err
	}
	return sessions.Update(ctx, spectator)
}

// Remove is the symmetric teardown of Add: it drops spectator from
// host's spectator set, notifies host and every remaining co-spectator,
// and disposes `#spec_<host.id>` once host.Spectators empties.
func Remove(ctx context.Context, sessions *session.Store, channels *channel.Store, host, spectator *session.Session) error {
	delete(host.Spectators, spectator.Account.ID)
	spectator.Spectating = nil

	if err := sessions.Update(ctx, spectator); err != nil {
		return err
	}

	if err := fanout.ToSession(ctx, sessions, host.Account.ID, simplePacket(packets.SpectatorLeft, spectator.Account.ID)); err != nil {
		return err
	}
	for id := range host.Spectators {
		if err := fanout.ToSession(ctx, sessions, id, simplePacket(packets.FellowSpectatorLeft, spectator.Account.ID)); err != nil {
			return err
		}
	}

	specChannel, err := channels.FetchByName(ctx, channel.SpectatorChannelName(host.Account.ID))
	if err != nil {
		return err
	}
	if specChannel != nil {
		if err := channel.Leave(ctx, sessions, channels, spectator, specChannel); err != nil {
			return err
		}
	}

	if len(host.Spectators) == 0 {
		if err := sessions.Update(ctx, host); err != nil {
			return err
		}
		if specChannel != nil {
			return channel.Leave(ctx, sessions, channels, host, specChannel)
		}
		return nil
	}

	return sessions.Update(ctx, host)
}

// CantSpectate notifies host and every co-spectator that spectator
// could not load the currently-playing beatmap.
func CantSpectate(ctx context.Context, sessions *session.Store, host, spectator *session.Session) error {
	packet := simplePacket(packets.SpectatorCantSpectate, spectator.Account.ID)

	if err := fanout.ToSession(ctx, sessions, host.Account.ID, packet); err != nil {
		return err
	}
	for id := range host.Spectators {
		if id == spectator.Account.ID {
			continue
		}
		if err := fanout.ToSession(ctx, sessions, id, packet); err != nil {
			return err
		}
	}
	return nil
}

// Frames forwards rawPayload — the SPECTATE_FRAMES bundle, captured
// verbatim and never re-encoded — to every one of host's current
// spectators.
func Frames(ctx context.Context, sessions *session.Store, host *session.Session, rawPayload []byte) error {
	packet := wire.Frame(uint16(packets.OutSpectateFrames), rawPayload)

	ids := make([]int32, 0, len(host.Spectators))
	for id := range host.Spectators {
		ids = append(ids, id)
	}
	return fanout.ToSessions(ctx, sessions, ids, packet, nil)
}
