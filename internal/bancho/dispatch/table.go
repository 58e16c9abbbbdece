package dispatch

import (
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/registry"
)

// NewTable builds the process-wide packet-id -> handler table. This is
// the static replacement for the source protocol's reflected
// register_packet annotations: every row below is
// (id, schema, handler, allow_restricted).
func NewTable(d *Deps) *registry.Table {
	t := registry.NewTable(d.Logger)

	statusSchema := registry.Schema{
		registry.I8("action"),
		registry.Str("action_text"),
		registry.Str("map_md5"),
		registry.I32("mods"),
		registry.I8("mode"),
		registry.I32("map_id"),
	}
	messageSchema := registry.Schema{registry.Msg("message")}
	nameSchema := registry.Schema{registry.Str("name")}
	targetIDSchema := registry.Schema{registry.I32("target_id")}
	slotSchema := registry.Schema{registry.I32("slot")}
	matchIDSchema := registry.Schema{registry.I32("match_id")}

	t.Register(packets.ChangeAction, statusSchema, d.changeAction, true)
	t.Register(packets.SendPublicMessage, messageSchema, d.sendPublicMessage, false)
	// LOGOUT is intercepted by HandleRequest before table lookup — it
	// tears the session down rather than mutating and persisting it,
	// so it never goes through an Entry.
	t.Register(packets.RequestStatusUpdate, registry.Schema{}, d.requestStatusUpdate, true)
	t.Register(packets.Ping, registry.Schema{}, d.ping, true)

	t.Register(packets.StartSpectating, targetIDSchema, d.startSpectating, false)
	t.Register(packets.StopSpectating, registry.Schema{}, d.stopSpectating, false)
	t.Register(packets.SpectateFrames, registry.Schema{registry.Raw("data")}, d.spectateFrames, false)
	t.Register(packets.CantSpectate, registry.Schema{}, d.cantSpectate, false)

	t.Register(packets.SendPrivateMessage, messageSchema, d.sendPrivateMessage, false)

	t.Register(packets.PartLobby, registry.Schema{}, d.partLobby, false)
	t.Register(packets.JoinLobby, registry.Schema{}, d.joinLobby, false)

	t.Register(packets.CreateMatch, registry.Schema{registry.Raw("match")}, d.createMatch, false)
	t.Register(packets.JoinMatch, registry.Schema{
		registry.I32("match_id"),
		registry.Str("password"),
	}, d.joinMatch, false)
	t.Register(packets.PartMatch, registry.Schema{}, d.partMatch, false)

	t.Register(packets.MatchChangeSlot, slotSchema, d.matchChangeSlot, false)
	t.Register(packets.MatchReady, registry.Schema{}, d.matchReady, false)
	t.Register(packets.MatchLock, slotSchema, d.matchLock, false)
	t.Register(packets.MatchChangeSettings, registry.Schema{registry.Raw("match")}, d.matchChangeSettings, false)
	t.Register(packets.MatchStart, registry.Schema{}, d.matchStart, false)
	t.Register(packets.MatchScoreUpdate, registry.Schema{registry.Raw("data")}, d.matchScoreUpdate, false)
	t.Register(packets.MatchComplete, registry.Schema{}, d.matchComplete, false)
	t.Register(packets.MatchLoadComplete, registry.Schema{}, d.matchLoadComplete, false)
	t.Register(packets.MatchNoBeatmap, registry.Schema{}, d.matchNoBeatmap, false)
	t.Register(packets.MatchNotReady, registry.Schema{}, d.matchNotReady, false)
	t.Register(packets.MatchFailed, registry.Schema{}, d.matchFailed, false)
	t.Register(packets.MatchHasBeatmap, registry.Schema{}, d.matchHasBeatmap, false)
	t.Register(packets.MatchSkipRequest, registry.Schema{}, d.matchSkipRequest, false)
	t.Register(packets.MatchTransferHost, slotSchema, d.matchTransferHost, false)
	t.Register(packets.MatchChangeTeam, registry.Schema{}, d.matchChangeTeam, false)
	t.Register(packets.MatchChangePassword, registry.Schema{registry.Raw("match")}, d.matchChangePassword, false)
	t.Register(packets.MatchInvite, targetIDSchema, d.matchInvite, false)

	t.Register(packets.ChannelJoin, nameSchema, d.channelJoin, false)
	t.Register(packets.ChannelPart, nameSchema, d.channelPart, false)

	t.Register(packets.FriendAdd, targetIDSchema, d.friendAdd, false)
	t.Register(packets.FriendRemove, targetIDSchema, d.friendRemove, false)

	t.Register(packets.ReceiveUpdates, registry.Schema{registry.I32("filter")}, d.receiveUpdates, false)
	t.Register(packets.SetAwayMessage, messageSchema, d.setAwayMessage, false)

	t.Register(packets.UserStatsRequest, registry.Schema{registry.I32List("ids")}, d.userStatsRequest, true)
	t.Register(packets.UserPresenceRequest, registry.Schema{registry.I32List("ids")}, d.userPresenceRequest, true)
	t.Register(packets.UserPresenceRequestAll, registry.Schema{}, d.userPresenceRequestAll, true)
	t.Register(packets.ToggleBlockNonFriendDMs, registry.Schema{registry.I32("value")}, d.toggleBlockNonFriendDMs, false)

	t.Register(packets.TournamentMatchInfoRequest, matchIDSchema, d.tournamentMatchInfoRequest, false)
	t.Register(packets.TournamentJoinMatchChannel, matchIDSchema, d.tournamentJoinMatchChannel, false)
	t.Register(packets.TournamentLeaveMatchChannel, matchIDSchema, d.tournamentLeaveMatchChannel, false)

	return t
}
