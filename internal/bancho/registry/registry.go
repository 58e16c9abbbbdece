// Package registry binds incoming packet ids to a typed payload decoder
// and a handler, replacing the dynamic reflected-annotation binding of
// the original protocol with a static, declarative table built at
// startup.
package registry

import (
	"context"
	"log/slog"

	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/wire"
)

// Session is the minimal view a handler needs of the calling session.
// The concrete type lives in internal/bancho/session; this interface
// keeps the registry free of a dependency on that package.
type Session interface {
	ID() int32
	Privileges() int64
}

// Handler processes one decoded packet for a session.
type Handler func(ctx context.Context, sess Session, payload map[string]any) error

// Entry is one row of the dispatch table.
type Entry struct {
	Schema     Schema
	Handle     Handler
	Restricted bool // visible to restricted (non-public) sessions too
}

// Table is a packet-id -> Entry map, split into the public and
// restricted views handle_request chooses between.
type Table struct {
	logger     *slog.Logger
	public     map[packets.In]Entry
	restricted map[packets.In]Entry
}

// NewTable returns an empty table.
func NewTable(logger *slog.Logger) *Table {
	return &Table{
		logger:     logger,
		public:     make(map[packets.In]Entry),
		restricted: make(map[packets.In]Entry),
	}
}

// Register adds id to the table. allowRestricted mirrors the source
// protocol's register_packet(..., allow_restricted=...) flag: a
// restricted session's dispatch map only contains entries registered
// with allowRestricted true.
func (t *Table) Register(id packets.In, schema Schema, handler Handler, allowRestricted bool) {
	entry := Entry{Schema: schema, Handle: handler, Restricted: allowRestricted}
	t.public[id] = entry
	if allowRestricted {
		t.restricted[id] = entry
	}
}

// For selects the public or restricted dispatch map per USER_PUBLIC.
func (t *Table) For(privileges int64) map[packets.In]Entry {
	const userPublic = 1 << 0
	if privileges&userPublic != 0 {
		return t.public
	}
	return t.restricted
}

// Decode walks the entry's schema, producing a field-name -> value map a
// handler can type-assert into its own typed view.
func Decode(schema Schema, payload []byte) map[string]any {
	r := wire.NewReader(payload)
	out := make(map[string]any, len(schema))

	for _, field := range schema {
		if field.Raw {
			out[field.Name] = r.Remaining()
			continue
		}
		out[field.Name] = field.Read(r)
	}

	return out
}
