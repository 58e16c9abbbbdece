// Package presence implements status updates, the extended-mode
// mapping STATUS_UPDATE applies to relax/autopilot variants, and the
// USER_STATS/USER_PRESENCE packets the stats/presence-request family
// and the login welcome stream both emit.
package presence

import (
	"context"

	"banchogate/internal/account"
	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// Extended-mode mod bits a status update folds into the reported mode.
const (
	modRelax     int32 = 1 << 7
	modAutopilot int32 = 1 << 13
)

// ModeFromMods maps a vanilla mode (0=std, 1=taiko, 2=catch, 3=mania)
// plus the active mods onto the extended mode space relax/autopilot
// variants occupy: 4-6 relax std/taiko/catch, 7 autopilot std. Mania
// has no relax/autopilot variant and passes through unchanged.
func ModeFromMods(mode int8, mods int32) int8 {
	if mode == 3 {
		return mode
	}
	if mode == 0 && mods&modAutopilot != 0 {
		return 7
	}
	if mods&modRelax != 0 {
		return mode + 4
	}
	return mode
}

// Update is the STATUS_UPDATE payload: the six fields a client reports
// about its current activity.
type Update struct {
	PresenceFilter int8
	Action         int8
	ActionText     string
	MapMD5         string
	Mods           int32
	MapID          int32
	Mode           int8
}

// Apply writes u into sess.Status, running the mode through
// ModeFromMods first.
func Apply(sess *session.Session, u Update) {
	sess.Status = session.Status{
		PresenceFilter: u.PresenceFilter,
		Action:         u.Action,
		ActionText:     u.ActionText,
		MapMD5:         u.MapMD5,
		MapID:          u.MapID,
		Mods:           u.Mods,
		Mode:           ModeFromMods(u.Mode, u.Mods),
	}
}

// StatsPacket frames USER_STATS for sess, querying stats through the
// account stats repository.
func StatsPacket(ctx context.Context, stats account.StatsRepository, sess *session.Session) ([]byte, error) {
	s, err := stats.Fetch(ctx, sess.Account.ID, sess.Status.Mode)
	if err != nil {
		return nil, err
	}

	w := wire.NewWriter()
	w.WriteI32(sess.Account.ID)
	w.WriteI8(sess.Status.Action)
	w.WriteString(sess.Status.ActionText)
	w.WriteString(sess.Status.MapMD5)
	w.WriteI32(sess.Status.Mods)
	w.WriteU8(uint8(sess.Status.Mode))
	w.WriteI32(sess.Status.MapID)

	rankedScore := s.RankedScore
	pp := int16(s.PP)
	if s.PP > 0x7FFF {
		rankedScore = int64(s.PP)
		pp = 0
	}
	w.WriteI64(rankedScore)
	w.WriteF32(float32(s.Accuracy) / 100)
	w.WriteI32(s.PlayCount)
	w.WriteI64(s.TotalScore)
	w.WriteI32(s.Rank)
	w.WriteI16(pp)

	return wire.Frame(uint16(packets.UserStats), w.Bytes()), nil
}

// PresencePacket frames USER_PRESENCE for sess.
func PresencePacket(sess *session.Session) []byte {
	w := wire.NewWriter()
	w.WriteI32(sess.Account.ID)
	w.WriteString(sess.Account.Name)
	w.WriteI8(int8(sess.UTCOffset))
	w.WriteU8(countryCode(sess.Geolocation.CountryCode))
	w.WriteU8(sess.Account.BanchoPrivilegesByte())
	w.WriteF32(float32(sess.Geolocation.Long))
	w.WriteF32(float32(sess.Geolocation.Lat))
	w.WriteI32(0) // global rank; always 0

	return wire.Frame(uint16(packets.UserPresence), w.Bytes())
}

// countryCode is a placeholder ISO-3166 numeric lookup: it always
// returns 0, and no country-code table is present in this module.
func countryCode(_ string) uint8 { return 0 }

// StatsRequest sends the caller stats for every id in targets that is
// public or the caller itself.
func StatsRequest(ctx context.Context, sessions *session.Store, stats account.StatsRepository, caller *session.Session, targets []int32) error {
	for _, id := range targets {
		target, err := sessions.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}
		if !target.IsPublic() && target.Account.ID != caller.Account.ID {
			continue
		}
		packet, err := StatsPacket(ctx, stats, target)
		if err != nil {
			return err
		}
		if err := fanout.ToSession(ctx, sessions, caller.Account.ID, packet); err != nil {
			return err
		}
	}
	return nil
}

// PresenceRequest sends the caller presence for every id in targets
// that is public or the caller itself.
func PresenceRequest(ctx context.Context, sessions *session.Store, caller *session.Session, targets []int32) error {
	for _, id := range targets {
		target, err := sessions.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}
		if !target.IsPublic() && target.Account.ID != caller.Account.ID {
			continue
		}
		if err := fanout.ToSession(ctx, sessions, caller.Account.ID, PresencePacket(target)); err != nil {
			return err
		}
	}
	return nil
}

// PresenceRequestAll is PresenceRequest over every online session.
func PresenceRequestAll(ctx context.Context, sessions *session.Store, caller *session.Session) error {
	all, err := sessions.FetchAll(ctx)
	if err != nil {
		return err
	}
	ids := make([]int32, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.Account.ID)
	}
	return PresenceRequest(ctx, sessions, caller, ids)
}
