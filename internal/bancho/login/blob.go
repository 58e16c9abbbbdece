// Package login implements the tokenless login request: blob parsing,
// client-version and hardware-fingerprint validation, and the welcome
// byte stream the handshake emits on success.
package login

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed is returned by ParseBlob when the request body doesn't
// match the `username\npassword_md5\nclient_line` shape.
var ErrMalformed = errors.New("login: malformed blob")

// Blob is the raw, unvalidated fields a login request body decodes
// into, before version/hardware parsing or account lookup.
type Blob struct {
	Username     string
	PasswordMD5  string
	OsuVersion   string
	UTCOffset    int
	DisplayCity  bool
	AdaptersStr   string
	OsuPathMD5    string
	AdaptersMD5   string
	UninstallMD5  string
	DiskMD5       string
	FriendOnlyDMs bool
}

// ParseBlob decodes the tokenless POST body. The body is
// `username\npassword_md5\nclient_line`, where client_line is
// `osu_version|utc_offset|display_city|client_hashes|pm_private` and
// client_hashes is five colon-separated fields with a trailing
// delimiter to strip: `osu_path:adapters:adapters_md5:uninstall_md5:disk_md5:`.
func ParseBlob(body []byte) (Blob, error) {
	parts := strings.SplitN(string(body), "\n", 3)
	if len(parts) != 3 {
		return Blob{}, ErrMalformed
	}
	username, passwordMD5, remainder := parts[0], parts[1], parts[2]

	clientFields := strings.SplitN(remainder, "|", 5)
	if len(clientFields) != 5 {
		return Blob{}, ErrMalformed
	}
	osuVersion, utcOffsetStr, displayCity, clientHashes, pmPrivate := clientFields[0], clientFields[1], clientFields[2], clientFields[3], clientFields[4]

	utcOffset, err := strconv.Atoi(utcOffsetStr)
	if err != nil {
		return Blob{}, ErrMalformed
	}

	clientHashes = strings.TrimSuffix(clientHashes, ":")
	hashFields := strings.SplitN(clientHashes, ":", 5)
	if len(hashFields) != 5 {
		return Blob{}, ErrMalformed
	}

	return Blob{
		Username:      username,
		PasswordMD5:   passwordMD5,
		OsuVersion:    osuVersion,
		UTCOffset:     utcOffset,
		DisplayCity:   displayCity == "1",
		OsuPathMD5:    hashFields[0],
		AdaptersStr:   hashFields[1],
		AdaptersMD5:   hashFields[2],
		UninstallMD5:  hashFields[3],
		DiskMD5:       hashFields[4],
		FriendOnlyDMs: pmPrivate == "1",
	}, nil
}
