// Package account is the external collaborator that owns persistent
// identity: the relational account record, stats lookups, friend
// relationships and password verification. The bancho core never
// touches SQL directly — it depends only on the interfaces this
// package satisfies (Repository, StatsRepository, PasswordVerifier).
package account

import "strings"

// Account is the persistent identity a Session wraps at login. The
// bancho core edits its session's copy (the friend set, the
// pending-verification bit) and writes each such change back through
// Repository (UpdatePrivileges, AddFriend, RemoveFriend).
type Account struct {
	ID       int32
	Name     string
	Email    string

	Privileges int64

	PasswordBcrypt string
	Country        string

	Friends map[int32]struct{}

	ClanID         int32
	ClanPrivileges int64

	SilenceEnd  int64 // unix epoch
	DonorExpire int64
	FreezeEnd   int64
}

// SafeName lowercases name and replaces spaces with underscores — the
// canonical key every session/account index is keyed by.
func SafeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// SafeNameValue returns the account's safe-name.
func (a Account) SafeNameValue() string {
	return SafeName(a.Name)
}

// Silenced reports whether the account is currently under a chat
// silence, given the current unix time.
func (a Account) Silenced(now int64) bool {
	return a.SilenceEnd > now
}
