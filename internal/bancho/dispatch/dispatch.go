package dispatch

import (
	"context"
	"strconv"

	"banchogate/internal/bancho/logout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/registry"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// HandleRequest implements handle_request: split body into framed
// packets, pick the public or restricted dispatch map off sess's own
// privileges, decode and invoke each recognized packet in order, then
// persist sess once if anything but LOGOUT mutated it. Returns the
// drained outbound queue as the HTTP response body.
//
// LOGOUT is special-cased ahead of the table: it tears the session
// down instead of mutating it, so the loop stops there and the queue
// is returned immediately without a final session.Update.
func (d *Deps) HandleRequest(ctx context.Context, table *registry.Table, sess *session.Session, body []byte) ([]byte, error) {
	dispatchMap := table.For(sess.Account.Privileges)
	mutated := false

	for _, pkt := range wire.Split(body) {
		id := packets.In(pkt.Header.ID)

		if pkt.Incomplete {
			continue
		}

		if id == packets.Logout {
			if err := logout.Handle(ctx, d.Sessions, d.Channels, d.Matches, sess); err != nil {
				return nil, err
			}
			if d.Metrics != nil {
				d.Metrics.PacketsHandled.WithLabelValues("logout").Inc()
			}
			return d.Sessions.DequeueData(ctx, sess.Account.ID)
		}

		entry, ok := dispatchMap[id]
		if !ok {
			if d.Metrics != nil {
				d.Metrics.PacketsUnknown.Inc()
			}
			continue
		}

		payload := registry.Decode(entry.Schema, pkt.Payload)
		if err := entry.Handle(ctx, sess, payload); err != nil {
			return nil, err
		}
		mutated = true

		if d.Metrics != nil {
			d.Metrics.PacketsHandled.WithLabelValues(packetLabel(id)).Inc()
		}
	}

	if mutated {
		if err := d.Sessions.Update(ctx, sess); err != nil {
			return nil, err
		}
	}

	return d.Sessions.DequeueData(ctx, sess.Account.ID)
}

func packetLabel(id packets.In) string {
	return strconv.Itoa(int(id))
}
