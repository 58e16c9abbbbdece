// Package packets enumerates the bancho packet ids this gate understands,
// split into the client->server (In) and server->client (Out) numbering
// spaces the wire protocol keeps independent.
package packets

// In is a client->server packet id.
type In uint16

// Client -> server packet ids, in the wire protocol's established
// numbering.
const (
	ChangeAction               In = 0
	SendPublicMessage          In = 1
	Logout                     In = 2
	RequestStatusUpdate        In = 3
	Ping                       In = 4
	StartSpectating            In = 16
	StopSpectating             In = 17
	SpectateFrames             In = 18
	CantSpectate               In = 21
	SendPrivateMessage         In = 25
	PartLobby                  In = 29
	JoinLobby                  In = 30
	CreateMatch                In = 31
	JoinMatch                  In = 32
	PartMatch                  In = 33
	MatchChangeSlot            In = 38
	MatchReady                 In = 39
	MatchLock                  In = 40
	MatchChangeSettings        In = 41
	MatchStart                 In = 44
	MatchScoreUpdate           In = 47
	MatchComplete              In = 49
	MatchLoadComplete          In = 52
	MatchNoBeatmap             In = 54
	MatchNotReady              In = 55
	MatchFailed                In = 56
	MatchHasBeatmap            In = 61
	MatchSkipRequest           In = 62
	ChannelJoin                In = 63
	MatchTransferHost          In = 70
	FriendAdd                  In = 73
	FriendRemove               In = 74
	MatchChangeTeam            In = 77
	ChannelPart                In = 78
	ReceiveUpdates             In = 79
	SetAwayMessage             In = 82
	UserStatsRequest           In = 85
	MatchInvite                In = 87
	MatchChangePassword        In = 90
	TournamentMatchInfoRequest In = 93
	UserPresenceRequest        In = 97
	UserPresenceRequestAll     In = 98
	ToggleBlockNonFriendDMs    In = 99
	TournamentJoinMatchChannel In = 108
	TournamentLeaveMatchChannel In = 109
)

// Out is a server->client packet id.
type Out uint16

// Server -> client packet ids, in the wire protocol's established
// numbering.
const (
	UserID                   Out = 5
	SendMessage              Out = 7
	Pong                     Out = 8
	UserStats                Out = 11
	UserLogout               Out = 12
	SpectatorJoined          Out = 13
	SpectatorLeft            Out = 14
	OutSpectateFrames        Out = 15
	VersionUpdate            Out = 19
	SpectatorCantSpectate    Out = 22
	Notification             Out = 24
	UpdateMatch              Out = 26
	NewMatch                 Out = 27
	DisposeMatch             Out = 28
	MatchJoinSuccess         Out = 36
	MatchJoinFail            Out = 37
	FellowSpectatorJoined    Out = 42
	FellowSpectatorLeft      Out = 43
	OutMatchStart            Out = 46
	MatchTransferHostOut     Out = 50
	MatchAllPlayersLoaded    Out = 53
	MatchPlayerFailed        Out = 57
	MatchComplete_           Out = 58
	MatchSkip                Out = 61
	ChannelJoinSuccess       Out = 64
	ChannelInfo              Out = 65
	ChannelKick              Out = 66
	ChannelAutoJoin          Out = 67
	BanchoPrivileges         Out = 71
	FriendsList              Out = 72
	ProtocolVersion          Out = 75
	MainMenuIcon             Out = 76
	Restart                  Out = 86
	Invite                   Out = 88
	ChannelInfoEnd           Out = 89
	SilenceEnd               Out = 92
	UserSilenced             Out = 94
	UserPresenceSingle       Out = 95
	UserPresenceBundle       Out = 96
	UserDMBlocked            Out = 100
	TargetIsSilenced         Out = 101
	VersionUpdateForced      Out = 102
	AccountRestricted        Out = 104
	MatchAbort               Out = 106
	UserPresence             Out = 107
)
