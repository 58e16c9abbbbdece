package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"banchogate/internal/account"
	"banchogate/pkg/kv"
)

const sessionsKey = "sessions"

// record is the JSON shape persisted under the three session indices.
// Account is rehydrated from the account repository on every read, so
// only the account id is persisted here, alongside the runtime fields.
type record struct {
	AccountID int32 `json:"account_id"`

	Token string `json:"token"`

	Geolocation Geolocation `json:"geolocation"`
	UTCOffset   int         `json:"utc_offset"`

	Status Status `json:"status"`

	Channels   []string `json:"channels"`
	Spectators []int32  `json:"spectators"`
	Spectating *int32   `json:"spectating"`
	Match      *int32   `json:"match"`

	FriendOnlyDMs bool    `json:"friend_only_dms"`
	InLobby       bool    `json:"in_lobby"`
	AwayMessage   *string `json:"away_message"`

	ClientVersion ClientVersion `json:"client_version"`
	Hardware      Hardware      `json:"hardware"`

	LastNP *LastNP `json:"last_np"`

	LoginTime int64 `json:"login_time"`
}

func toRecord(s *Session) record {
	channels := make([]string, 0, len(s.Channels))
	for name := range s.Channels {
		channels = append(channels, name)
	}

	spectators := make([]int32, 0, len(s.Spectators))
	for id := range s.Spectators {
		spectators = append(spectators, id)
	}

	return record{
		AccountID:     s.Account.ID,
		Token:         s.Token,
		Geolocation:   s.Geolocation,
		UTCOffset:     s.UTCOffset,
		Status:        s.Status,
		Channels:      channels,
		Spectators:    spectators,
		Spectating:    s.Spectating,
		Match:         s.Match,
		FriendOnlyDMs: s.FriendOnlyDMs,
		InLobby:       s.InLobby,
		AwayMessage:   s.AwayMessage,
		ClientVersion: s.ClientVersion,
		Hardware:      s.Hardware,
		LastNP:        s.LastNP,
		LoginTime:     s.LoginTime,
	}
}

func (r record) toSession(acc account.Account) *Session {
	channels := make(map[string]struct{}, len(r.Channels))
	for _, name := range r.Channels {
		channels[name] = struct{}{}
	}

	spectators := make(map[int32]struct{}, len(r.Spectators))
	for _, id := range r.Spectators {
		spectators[id] = struct{}{}
	}

	return &Session{
		Account:       acc,
		Token:         r.Token,
		Geolocation:   r.Geolocation,
		UTCOffset:     r.UTCOffset,
		Status:        r.Status,
		Channels:      channels,
		Spectators:    spectators,
		Spectating:    r.Spectating,
		Match:         r.Match,
		FriendOnlyDMs: r.FriendOnlyDMs,
		InLobby:       r.InLobby,
		AwayMessage:   r.AwayMessage,
		ClientVersion: r.ClientVersion,
		Hardware:      r.Hardware,
		LastNP:        r.LastNP,
		LoginTime:     r.LoginTime,
	}
}

// Store owns the session-store operations of the spec: lookups by id,
// safe-name and token, creation, persistence, the global session-id
// list, and per-session outbound queues.
type Store struct {
	kv       kv.Store
	accounts account.Repository
}

// NewStore wires the shared KV store and the account repository every
// read rehydrates against.
func NewStore(store kv.Store, accounts account.Repository) *Store {
	return &Store{kv: store, accounts: accounts}
}

func (s *Store) FetchByID(ctx context.Context, id int32) (*Session, error) {
	return s.fetch(ctx, fmt.Sprintf("id_%d", id))
}

func (s *Store) FetchByName(ctx context.Context, name string) (*Session, error) {
	return s.fetch(ctx, fmt.Sprintf("name_%s", SafeName(name)))
}

func (s *Store) FetchByToken(ctx context.Context, token string) (*Session, error) {
	return s.fetch(ctx, fmt.Sprintf("token_%s", token))
}

func (s *Store) fetch(ctx context.Context, field string) (*Session, error) {
	raw, ok, err := s.kv.HGet(ctx, sessionsKey, field)
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", field, err)
	}
	if !ok {
		return nil, nil
	}

	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", field, err)
	}

	acc, err := s.accounts.FetchByID(ctx, r.AccountID)
	if err != nil {
		return nil, fmt.Errorf("rehydrate account %d for session %s: %w", r.AccountID, field, err)
	}

	return r.toSession(acc), nil
}

// FetchAll returns every logged-in session.
func (s *Store) FetchAll(ctx context.Context) ([]*Session, error) {
	all, err := s.kv.HGetAll(ctx, sessionsKey)
	if err != nil {
		return nil, fmt.Errorf("fetch all sessions: %w", err)
	}

	seen := make(map[int32]struct{})
	var sessions []*Session

	for field, raw := range all {
		if len(field) < 3 || field[:3] != "id_" {
			continue // avoid double-counting the name_/token_ aliases
		}

		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", field, err)
		}
		if _, dup := seen[r.AccountID]; dup {
			continue
		}
		seen[r.AccountID] = struct{}{}

		acc, err := s.accounts.FetchByID(ctx, r.AccountID)
		if err != nil {
			return nil, fmt.Errorf("rehydrate account %d: %w", r.AccountID, err)
		}
		sessions = append(sessions, r.toSession(acc))
	}

	return sessions, nil
}

// Create constructs and persists a brand-new session with a fresh UUID
// token.
func (s *Store) Create(ctx context.Context, acc account.Account, geo Geolocation, utcOffset int, friendOnlyDMs bool, version ClientVersion, hw Hardware) (*Session, error) {
	sess := New(acc, geo, utcOffset, friendOnlyDMs, version, hw)
	sess.Token = uuid.NewString()

	if err := s.Update(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// Update rewrites all three indices under the session's lock.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:sessions:%d", sess.Account.ID))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	raw, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("encode session %d: %w", sess.Account.ID, err)
	}

	for _, field := range []string{
		fmt.Sprintf("id_%d", sess.Account.ID),
		fmt.Sprintf("name_%s", sess.SafeNameValue()),
		fmt.Sprintf("token_%s", sess.Token),
	} {
		if err := s.kv.HSet(ctx, sessionsKey, field, string(raw)); err != nil {
			return fmt.Errorf("persist session %d: %w", sess.Account.ID, err)
		}
	}

	return nil
}

// AddToSessionList appends sess's id to the global session-id list,
// after persisting it.
func (s *Store) AddToSessionList(ctx context.Context, sess *Session) error {
	if err := s.Update(ctx, sess); err != nil {
		return err
	}

	lock, err := kv.Acquire(ctx, s.kv, "locks:session_list")
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	return s.kv.LPush(ctx, "session_list", fmt.Sprintf("%d", sess.Account.ID))
}

// RemoveFromSessionList removes sess's id from the global list.
func (s *Store) RemoveFromSessionList(ctx context.Context, sess *Session) error {
	lock, err := kv.Acquire(ctx, s.kv, "locks:session_list")
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	return s.kv.LRem(ctx, "session_list", fmt.Sprintf("%d", sess.Account.ID))
}

// Delete removes all three indices for sess.
func (s *Store) Delete(ctx context.Context, sess *Session) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:sessions:%d", sess.Account.ID))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	for _, field := range []string{
		fmt.Sprintf("id_%d", sess.Account.ID),
		fmt.Sprintf("name_%s", sess.SafeNameValue()),
		fmt.Sprintf("token_%s", sess.Token),
	} {
		if err := s.kv.HDel(ctx, sessionsKey, field); err != nil {
			return fmt.Errorf("delete session %d: %w", sess.Account.ID, err)
		}
	}

	return nil
}
