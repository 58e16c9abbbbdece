// Package session owns the session state machine: per-session
// identity, runtime status, channel/spectator/match membership, and
// the per-session outbound byte queue. Sessions are shared state,
// persisted as JSON in the shared key/value store and rehydrated with
// their owning account on every read.
package session

import (
	"strings"
	"time"

	"banchogate/internal/account"
)

// SafeName lowercases name and replaces spaces with underscores, the
// key every session index is keyed by.
func SafeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Status is the client-reported presence/activity state: presence
// filter, action, action text, current map, mods, mode.
type Status struct {
	PresenceFilter int8
	Action         int8
	ActionText     string
	MapMD5         string
	MapID          int32
	Mods           int32
	Mode           int8
}

// DefaultStatus is the status a freshly logged-in session starts with.
func DefaultStatus() Status {
	return Status{Action: ActionIdle}
}

// Action values, a subset of the client's activity enum.
const (
	ActionIdle int8 = 0
)

// LastNP records the last /np (now-playing) beatmap the session
// announced, used to resolve an immediately-following INVITE/request.
type LastNP struct {
	MapID int32
	Mode  int8
}

// Hardware is the client's reported hardware fingerprint.
type Hardware struct {
	RunningUnderWine bool
	OsuMD5           string
	AdaptersMD5      string
	UninstallMD5     string
	DiskMD5          string
	Adapters         []string
}

// Geolocation is the request-derived origin the session logged in
// from.
type Geolocation struct {
	CountryCode string
	Long        float64
	Lat         float64
	IP          string
}

// ClientVersion is the parsed `bYYYYMMDD[.R][stream]` osu! version
// string.
type ClientVersion struct {
	Date   string // YYYYMMDD
	Revision int
	Stream string
}

// Session owns an Account plus all runtime state the bancho core
// mutates during a connection's lifetime.
type Session struct {
	Account account.Account
	Token   string

	Geolocation Geolocation
	UTCOffset   int

	Status Status

	Channels    map[string]struct{}
	Spectators  map[int32]struct{}
	Spectating  *int32
	Match       *int32

	FriendOnlyDMs bool
	InLobby       bool

	AwayMessage *string

	ClientVersion ClientVersion
	Hardware      Hardware

	LastNP *LastNP

	// LoginTime is the unix time (seconds) the session was created,
	// used to suppress the immediate-LOGOUT race.
	LoginTime int64
}

// ID is the account id this session belongs to.
func (s *Session) ID() int32 { return s.Account.ID }

// Name is the account's display name.
func (s *Session) Name() string { return s.Account.Name }

// SafeNameValue is the session's safe-name index key.
func (s *Session) SafeNameValue() string { return SafeName(s.Account.Name) }

// Privileges satisfies registry.Session.
func (s *Session) Privileges() int64 { return s.Account.BanchoPrivileges() }

// IsPublic reports whether the underlying account has USER_PUBLIC.
func (s *Session) IsPublic() bool { return s.Account.IsPublic() }

// Silenced reports whether the session's account is silenced at now.
func (s *Session) Silenced(now int64) bool { return s.Account.Silenced(now) }

// New constructs a fresh Session for a just-authenticated account.
func New(acc account.Account, geo Geolocation, utcOffset int, friendOnlyDMs bool, version ClientVersion, hw Hardware) *Session {
	return &Session{
		Account:       acc,
		Geolocation:   geo,
		UTCOffset:     utcOffset,
		Status:        DefaultStatus(),
		Channels:      make(map[string]struct{}),
		Spectators:    make(map[int32]struct{}),
		FriendOnlyDMs: friendOnlyDMs,
		ClientVersion: version,
		Hardware:      hw,
		LoginTime:     time.Now().Unix(),
	}
}
