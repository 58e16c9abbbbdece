package dispatch

import (
	"context"

	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/match"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/presence"
	"banchogate/internal/bancho/registry"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/social"
	"banchogate/internal/bancho/spectate"
	"banchogate/internal/bancho/wire"
)

// self type-asserts the concrete session out of the registry's
// decoupling interface. Every handler below does this first: the
// registry only knows ID()/Privileges(), but handlers need the rest
// of the session's state.
func self(sess registry.Session) *session.Session {
	return sess.(*session.Session)
}

func simplePacket(id packets.Out) []byte {
	return wire.Frame(uint16(id), nil)
}

// currentMatch resolves sess's own match, or nil if it isn't seated in
// one (a stale sess.Match after a store outage, say).
func (d *Deps) currentMatch(ctx context.Context, sess *session.Session) (*match.Match, error) {
	if sess.Match == nil {
		return nil, nil
	}
	return d.Matches.FetchByID(ctx, *sess.Match)
}

func (d *Deps) changeAction(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	presence.Apply(sess, presence.Update{
		PresenceFilter: sess.Status.PresenceFilter,
		Action:         payload["action"].(int8),
		ActionText:     payload["action_text"].(string),
		MapMD5:         payload["map_md5"].(string),
		Mods:           payload["mods"].(int32),
		MapID:          payload["map_id"].(int32),
		Mode:           payload["mode"].(int8),
	})
	return nil
}

func (d *Deps) sendPublicMessage(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	msg := payload["message"].(wire.Message)

	c, err := d.Channels.FetchByName(ctx, msg.Target)
	if err != nil || c == nil {
		return err
	}
	return channel.SendMessage(ctx, d.Sessions, c, msg.Content, sess)
}

func (d *Deps) sendPrivateMessage(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	msg := payload["message"].(wire.Message)
	return social.SendPrivateMessage(ctx, d.Sessions, sess, msg.Target, msg.Content)
}

func (d *Deps) requestStatusUpdate(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	packet, err := presence.StatsPacket(ctx, d.Stats, sess)
	if err != nil {
		return err
	}
	return fanout.ToSession(ctx, d.Sessions, sess.Account.ID, packet)
}

func (d *Deps) ping(ctx context.Context, s registry.Session, payload map[string]any) error {
	return nil
}

func (d *Deps) startSpectating(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	targetID := payload["target_id"].(int32)

	host, err := d.Sessions.FetchByID(ctx, targetID)
	if err != nil || host == nil {
		return err
	}
	return spectate.Add(ctx, d.Sessions, d.Channels, host, sess)
}

func (d *Deps) stopSpectating(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	if sess.Spectating == nil {
		return nil
	}
	host, err := d.Sessions.FetchByID(ctx, *sess.Spectating)
	if err != nil || host == nil {
		return err
	}
	return spectate.Remove(ctx, d.Sessions, d.Channels, host, sess)
}

func (d *Deps) spectateFrames(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	return spectate.Frames(ctx, d.Sessions, sess, payload["data"].([]byte))
}

func (d *Deps) cantSpectate(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	if sess.Spectating == nil {
		return nil
	}
	host, err := d.Sessions.FetchByID(ctx, *sess.Spectating)
	if err != nil || host == nil {
		return err
	}
	return spectate.CantSpectate(ctx, d.Sessions, host, sess)
}

func (d *Deps) partLobby(ctx context.Context, s registry.Session, payload map[string]any) error {
	self(s).InLobby = false
	return nil
}

func (d *Deps) joinLobby(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	sess.InLobby = true

	all, err := d.Matches.FetchAll(ctx)
	if err != nil {
		return err
	}
	for _, m := range all {
		w := wire.NewWriter()
		m.Serialise(w, true)
		if err := fanout.ToSession(ctx, d.Sessions, sess.Account.ID, wire.Frame(uint16(packets.NewMatch), w.Bytes())); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deps) createMatch(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	r := wire.NewReader(payload["match"].([]byte))
	template := match.Deserialise(r)

	_, err := match.Create(ctx, d.Matches, d.Channels, d.Sessions, template, sess)
	return err
}

func (d *Deps) joinMatch(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	matchID := payload["match_id"].(int32)
	password := payload["password"].(string)

	m, err := d.Matches.FetchByID(ctx, matchID)
	if err != nil {
		return err
	}
	if m == nil {
		return fanout.ToSession(ctx, d.Sessions, sess.Account.ID, simplePacket(packets.MatchJoinFail))
	}

	err = match.Join(ctx, d.Matches, d.Channels, d.Sessions, m, sess, password)
	if err == match.ErrAlreadyInMatch || err == match.ErrMatchFull {
		return fanout.ToSession(ctx, d.Sessions, sess.Account.ID, simplePacket(packets.MatchJoinFail))
	}
	return err
}

func (d *Deps) partMatch(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.Leave(ctx, d.Matches, d.Channels, d.Sessions, m, sess)
}

func (d *Deps) matchChangeSlot(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.ChangeSlot(ctx, d.Matches, m, sess, int(payload["slot"].(int32)))
}

func (d *Deps) matchReady(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.SetSlotStatus(ctx, d.Matches, m, sess, match.SlotReady)
}

func (d *Deps) matchNotReady(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.SetSlotStatus(ctx, d.Matches, m, sess, match.SlotNotReady)
}

func (d *Deps) matchHasBeatmap(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.SetSlotStatus(ctx, d.Matches, m, sess, match.SlotNotReady)
}

func (d *Deps) matchNoBeatmap(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.SetSlotStatus(ctx, d.Matches, m, sess, match.SlotNoMap)
}

func (d *Deps) matchLock(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	if err := match.Lock(ctx, d.Matches, m, sess, int(payload["slot"].(int32))); err == match.ErrNotHost {
		d.Logger.WarnContext(ctx, "non-host attempted match lock", "user", sess.Account.ID, "match", m.ID)
		return nil
	} else {
		return err
	}
}

func (d *Deps) matchChangeSettings(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}

	r := wire.NewReader(payload["match"].([]byte))
	template := match.Deserialise(r)

	err = match.ChangeSettings(ctx, d.Matches, m, sess, match.Settings{
		Name:         template.Name,
		Password:     template.Password,
		Freemod:      template.Freemod,
		MapID:        template.MapID,
		MapMD5:       template.MapMD5,
		MapTitle:     template.MapTitle,
		TeamType:     template.TeamType,
		WinCondition: template.WinCondition,
	})
	if err == match.ErrNotHost {
		d.Logger.WarnContext(ctx, "non-host attempted match settings change", "user", sess.Account.ID, "match", m.ID)
		return nil
	}
	return err
}

func (d *Deps) matchChangePassword(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}

	r := wire.NewReader(payload["match"].([]byte))
	template := match.Deserialise(r)

	if err := match.ChangePassword(ctx, d.Matches, m, sess, template.Password); err == match.ErrNotHost {
		d.Logger.WarnContext(ctx, "non-host attempted match password change", "user", sess.Account.ID, "match", m.ID)
		return nil
	} else {
		return err
	}
}

func (d *Deps) matchChangeTeam(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.ChangeTeam(ctx, d.Matches, m, sess)
}

func (d *Deps) matchStart(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	if sess.Account.ID != m.HostID {
		d.Logger.WarnContext(ctx, "non-host attempted match start", "user", sess.Account.ID, "match", m.ID)
		return nil
	}

	missingMap := match.Start(m)
	if err := d.Matches.Update(ctx, m, true); err != nil {
		return err
	}

	immune := make(map[int32]struct{}, len(missingMap))
	for _, id := range missingMap {
		immune[id] = struct{}{}
	}

	ids := make([]int32, 0, match.NumSlots)
	for i := range m.Slots {
		if id := m.Slots[i].SessionID; id != nil {
			if _, skip := immune[*id]; skip {
				continue
			}
			ids = append(ids, *id)
		}
	}
	return fanout.ToSessions(ctx, d.Sessions, ids, simplePacket(packets.OutMatchStart), nil)
}

func (d *Deps) matchScoreUpdate(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.ScoreUpdate(ctx, d.Sessions, m, payload["data"].([]byte), sess)
}

func (d *Deps) matchComplete(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.PlayerFinish(ctx, d.Matches, d.Sessions, m, sess, false)
}

func (d *Deps) matchFailed(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.PlayerFinish(ctx, d.Matches, d.Sessions, m, sess, true)
}

func (d *Deps) matchLoadComplete(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.LoadComplete(ctx, d.Matches, d.Sessions, m, sess)
}

func (d *Deps) matchSkipRequest(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.SkipRequest(ctx, d.Matches, d.Sessions, m, sess)
}

func (d *Deps) matchTransferHost(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	if err := match.TransferHost(ctx, d.Matches, d.Sessions, m, sess, int(payload["slot"].(int32))); err == match.ErrNotHost {
		d.Logger.WarnContext(ctx, "non-host attempted host transfer", "user", sess.Account.ID, "match", m.ID)
		return nil
	} else {
		return err
	}
}

func (d *Deps) matchInvite(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.currentMatch(ctx, sess)
	if err != nil || m == nil {
		return err
	}
	return match.Invite(ctx, d.Sessions, m, sess, payload["target_id"].(int32))
}

func (d *Deps) tournamentJoinMatchChannel(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	matchID := payload["match_id"].(int32)

	m, err := d.Matches.FetchByID(ctx, matchID)
	if err != nil || m == nil {
		return err
	}
	c, err := d.Channels.FetchByName(ctx, channel.MatchChannelName(matchID))
	if err != nil || c == nil {
		return err
	}
	if _, err := channel.Join(ctx, d.Sessions, d.Channels, sess, c); err != nil {
		return err
	}

	m.TourneyClients = append(m.TourneyClients, sess.Account.ID)
	return d.Matches.Update(ctx, m, false)
}

func (d *Deps) tournamentLeaveMatchChannel(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	matchID := payload["match_id"].(int32)

	m, err := d.Matches.FetchByID(ctx, matchID)
	if err != nil || m == nil {
		return err
	}
	c, err := d.Channels.FetchByName(ctx, channel.MatchChannelName(matchID))
	if err != nil || c == nil {
		return err
	}
	if err := channel.Leave(ctx, d.Sessions, d.Channels, sess, c); err != nil {
		return err
	}

	out := m.TourneyClients[:0]
	for _, id := range m.TourneyClients {
		if id != sess.Account.ID {
			out = append(out, id)
		}
	}
	m.TourneyClients = out
	return d.Matches.Update(ctx, m, false)
}

func (d *Deps) tournamentMatchInfoRequest(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	m, err := d.Matches.FetchByID(ctx, payload["match_id"].(int32))
	if err != nil || m == nil {
		return err
	}
	w := wire.NewWriter()
	m.Serialise(w, true)
	return fanout.ToSession(ctx, d.Sessions, sess.Account.ID, wire.Frame(uint16(packets.UpdateMatch), w.Bytes()))
}

func (d *Deps) channelJoin(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	c, err := d.Channels.FetchByName(ctx, payload["name"].(string))
	if err != nil || c == nil {
		return err
	}
	_, err = channel.Join(ctx, d.Sessions, d.Channels, sess, c)
	return err
}

func (d *Deps) channelPart(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	c, err := d.Channels.FetchByName(ctx, payload["name"].(string))
	if err != nil || c == nil {
		return err
	}
	return channel.Leave(ctx, d.Sessions, d.Channels, sess, c)
}

func (d *Deps) friendAdd(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	target, err := d.Sessions.FetchByID(ctx, payload["target_id"].(int32))
	if err != nil {
		return err
	}
	if target == nil {
		d.Logger.WarnContext(ctx, "friend add of offline target", "user", sess.Account.ID)
		return nil
	}
	return social.AddFriend(ctx, d.Accounts, d.Sessions, sess, target)
}

func (d *Deps) friendRemove(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	target, err := d.Sessions.FetchByID(ctx, payload["target_id"].(int32))
	if err != nil {
		return err
	}
	if target == nil {
		d.Logger.WarnContext(ctx, "friend remove of offline target", "user", sess.Account.ID)
		return nil
	}
	return social.RemoveFriend(ctx, d.Accounts, d.Sessions, sess, target)
}

func (d *Deps) setAwayMessage(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	msg := payload["message"].(wire.Message)
	if msg.Content == "" {
		sess.AwayMessage = nil
		return nil
	}
	sess.AwayMessage = &msg.Content
	return nil
}

func (d *Deps) userStatsRequest(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	return presence.StatsRequest(ctx, d.Sessions, d.Stats, sess, payload["ids"].([]int32))
}

func (d *Deps) userPresenceRequest(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	return presence.PresenceRequest(ctx, d.Sessions, sess, payload["ids"].([]int32))
}

func (d *Deps) userPresenceRequestAll(ctx context.Context, s registry.Session, payload map[string]any) error {
	return presence.PresenceRequestAll(ctx, d.Sessions, self(s))
}

func (d *Deps) toggleBlockNonFriendDMs(ctx context.Context, s registry.Session, payload map[string]any) error {
	sess := self(s)
	return social.SetFriendOnlyDMs(ctx, d.Sessions, sess, payload["value"].(int32) != 0)
}

func (d *Deps) receiveUpdates(ctx context.Context, s registry.Session, payload map[string]any) error {
	self(s).Status.PresenceFilter = int8(payload["filter"].(int32))
	return nil
}
