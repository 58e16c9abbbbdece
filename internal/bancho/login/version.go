package login

import (
	"regexp"
	"strconv"
	"time"

	"banchogate/internal/bancho/session"
)

var osuVersionPattern = regexp.MustCompile(`^b(\d{8})(?:\.(\d))?(beta|cuttingedge|dev|tourney)?$`)

// StaleAfter is the maximum age a client version may report before the
// handshake forces an update.
const StaleAfter = 90 * 24 * time.Hour

// ParseClientVersion matches the osu! version string
// `bYYYYMMDD[.R][stream]`. A missing stream defaults to "stable".
func ParseClientVersion(raw string) (session.ClientVersion, bool) {
	m := osuVersionPattern.FindStringSubmatch(raw)
	if m == nil {
		return session.ClientVersion{}, false
	}

	revision := 0
	if m[2] != "" {
		revision, _ = strconv.Atoi(m[2])
	}
	stream := m[3]
	if stream == "" {
		stream = "stable"
	}

	return session.ClientVersion{Date: m[1], Revision: revision, Stream: stream}, true
}

// IsStale reports whether v is more than StaleAfter old relative to
// now.
func IsStale(v session.ClientVersion, now time.Time) bool {
	parsed, err := time.Parse("20060102", v.Date)
	if err != nil {
		return true
	}
	return parsed.Before(now.Add(-StaleAfter))
}
