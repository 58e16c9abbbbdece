package channel

import (
	"context"
	"encoding/json"
	"fmt"

	"banchogate/pkg/kv"
)

const channelsKey = "channels"

type record struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PublicRead  bool    `json:"public_read"`
	PublicWrite bool    `json:"public_write"`
	Temp        bool    `json:"temp"`
	Hidden      bool    `json:"hidden"`
	Members     []int32 `json:"members"`
}

func toRecord(c *Channel) record {
	members := make([]int32, 0, len(c.Members))
	for id := range c.Members {
		members = append(members, id)
	}
	return record{
		Name: c.Name, Description: c.Description,
		PublicRead: c.PublicRead, PublicWrite: c.PublicWrite,
		Temp: c.Temp, Hidden: c.Hidden, Members: members,
	}
}

func (r record) toChannel() *Channel {
	members := make(map[int32]struct{}, len(r.Members))
	for _, id := range r.Members {
		members[id] = struct{}{}
	}
	return &Channel{
		Name: r.Name, Description: r.Description,
		PublicRead: r.PublicRead, PublicWrite: r.PublicWrite,
		Temp: r.Temp, Hidden: r.Hidden, Members: members,
	}
}

// Config is a persistent channel's seed definition, as loaded from
// configuration at startup.
type Config struct {
	Name        string
	Description string
	PublicRead  bool
	PublicWrite bool
	Hidden      bool
}

// Store owns the channel-store operations of the spec: fetch by name,
// fetch all, update, delete, and seed persistent channels at startup.
type Store struct {
	kv kv.Store
}

// NewStore wires the shared KV store.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func (s *Store) FetchByName(ctx context.Context, name string) (*Channel, error) {
	raw, ok, err := s.kv.HGet(ctx, channelsKey, name)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}

	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", name, err)
	}
	return r.toChannel(), nil
}

func (s *Store) FetchAll(ctx context.Context) ([]*Channel, error) {
	all, err := s.kv.HGetAll(ctx, channelsKey)
	if err != nil {
		return nil, fmt.Errorf("fetch all channels: %w", err)
	}

	channels := make([]*Channel, 0, len(all))
	for name, raw := range all {
		var r record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode channel %s: %w", name, err)
		}
		channels = append(channels, r.toChannel())
	}
	return channels, nil
}

// Update writes the channel's JSON blob under the channel's lock.
func (s *Store) Update(ctx context.Context, c *Channel) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:channels:%s", c.Name))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	raw, err := json.Marshal(toRecord(c))
	if err != nil {
		return fmt.Errorf("encode channel %s: %w", c.Name, err)
	}

	if err := s.kv.HSet(ctx, channelsKey, c.Name, string(raw)); err != nil {
		return fmt.Errorf("persist channel %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes the channel, used once it empties.
func (s *Store) Delete(ctx context.Context, c *Channel) error {
	lock, err := kv.Acquire(ctx, s.kv, fmt.Sprintf("locks:channels:%s", c.Name))
	if err != nil {
		return err
	}
	defer lock.Unlock(ctx)

	if err := s.kv.HDel(ctx, channelsKey, c.Name); err != nil {
		return fmt.Errorf("delete channel %s: %w", c.Name, err)
	}
	return nil
}

// Initialise seeds the persistent channels from configuration, skipping
// names already present in the store.
func (s *Store) Initialise(ctx context.Context, seeds []Config) error {
	for _, seed := range seeds {
		existing, err := s.FetchByName(ctx, seed.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		c := New(seed.Name, seed.Description, seed.PublicRead, seed.PublicWrite, seed.Hidden)
		if err := s.Update(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
