// Package channel owns chat channels: persistent channels loaded from
// configuration, plus the ephemeral `#spec_<hostId>` and
// `#multi_<matchId>` channels spectator mode and multiplayer matches
// create on demand.
package channel

import "strings"

// Channel is a chat channel and its member set.
type Channel struct {
	Name        string
	Description string
	PublicRead  bool
	PublicWrite bool
	Temp        bool // auto-disposed when the last member leaves
	Hidden      bool

	Members map[int32]struct{}
}

// New returns a persistent channel as loaded from configuration.
func New(name, description string, publicRead, publicWrite, hidden bool) *Channel {
	return &Channel{
		Name:        name,
		Description: description,
		PublicRead:  publicRead,
		PublicWrite: publicWrite,
		Hidden:      hidden,
		Members:     make(map[int32]struct{}),
	}
}

// NewSpectatorChannel returns the ephemeral channel spectator mode
// opens for hostID.
func NewSpectatorChannel(hostID int32) *Channel {
	return &Channel{
		Name:        SpectatorChannelName(hostID),
		Description: "Spectator chat",
		PublicRead:  true,
		PublicWrite: true,
		Temp:        true,
		Hidden:      true,
		Members:     make(map[int32]struct{}),
	}
}

// NewMatchChannel returns the ephemeral channel a multiplayer match
// opens for matchID.
func NewMatchChannel(matchID int32) *Channel {
	return &Channel{
		Name:        MatchChannelName(matchID),
		Description: "Multiplayer chat",
		PublicRead:  true,
		PublicWrite: true,
		Temp:        true,
		Hidden:      true,
		Members:     make(map[int32]struct{}),
	}
}

// SpectatorChannelName builds the ephemeral spectator channel name for
// a host.
func SpectatorChannelName(hostID int32) string {
	return channelNameWithID("#spec_", hostID)
}

// MatchChannelName builds the ephemeral multiplayer channel name for a
// match.
func MatchChannelName(matchID int32) string {
	return channelNameWithID("#multi_", matchID)
}

func channelNameWithID(prefix string, id int32) string {
	return prefix + itoa(id)
}

func itoa(id int32) string {
	if id == 0 {
		return "0"
	}
	neg := id < 0
	if neg {
		id = -id
	}
	var buf [12]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// WireName is the channel name rewritten for the wire: `#multi_*` and
// `#spec_*` are presented to clients as `#multiplayer`/`#spectator`.
func WireName(name string) string {
	switch {
	case strings.HasPrefix(name, "#multi_"):
		return "#multiplayer"
	case strings.HasPrefix(name, "#spec_"):
		return "#spectator"
	default:
		return name
	}
}

// CanRead reports whether a session with isAdmin privilege may read
// (join/see) this channel.
func (c *Channel) CanRead(isAdmin bool) bool {
	return c.PublicRead || isAdmin
}

// CanWrite reports whether a session with isAdmin privilege may post
// to this channel.
func (c *Channel) CanWrite(isAdmin bool) bool {
	return c.PublicWrite || isAdmin
}

// VisibleDuringLogin reports whether this channel should be offered in
// the login welcome stream's CHANNEL_INFO list — `#lobby`, hidden and
// temp channels are skipped during login per spec §4.6 step 7.
func (c *Channel) VisibleDuringLogin() bool {
	return !c.Hidden && !c.Temp && c.Name != "#lobby"
}
