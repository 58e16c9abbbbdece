package social

import (
	"context"
	"log/slog"
	"time"

	"banchogate/internal/bancho/fanout"
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/wire"
)

// ignoredRecipients are accepted and silently dropped: the official
// client sends them as chat-log pseudo-targets, never real recipients.
var ignoredRecipients = map[string]struct{}{
	"#highlight": {},
	"#userlog":   {},
}

func recipientNamePacket(id packets.Out, recipientName string) []byte {
	w := wire.NewWriter()
	w.WriteString(recipientName)
	return wire.Frame(uint16(id), w.Bytes())
}

// SendPrivateMessage delivers a DM from sender to the session named
// recipientName, resolved via lookup. A silenced sender's message is
// dropped with no reply. Delivery is refused (with a compensating
// packet to the sender) when the recipient enforces friend-only DMs
// and the sender isn't a friend, or the recipient is silenced; an
// offline recipient drops the message with a logged warning and no
// reply.
func SendPrivateMessage(ctx context.Context, sessions *session.Store, sender *session.Session, recipientName, text string) error {
	if _, ignored := ignoredRecipients[recipientName]; ignored {
		return nil
	}

	if sender.Silenced(time.Now().Unix()) {
		return nil
	}

	recipient, err := sessions.FetchByName(ctx, recipientName)
	if err != nil {
		return err
	}
	if recipient == nil {
		slog.WarnContext(ctx, "private message to offline recipient dropped", "sender", sender.Account.ID, "recipient", recipientName)
		return nil
	}

	if recipient.FriendOnlyDMs {
		if _, friend := recipient.Account.Friends[sender.Account.ID]; !friend {
			return fanout.ToSession(ctx, sessions, sender.Account.ID, recipientNamePacket(packets.UserDMBlocked, recipientName))
		}
	}

	if recipient.Silenced(time.Now().Unix()) {
		return fanout.ToSession(ctx, sessions, sender.Account.ID, recipientNamePacket(packets.TargetIsSilenced, recipientName))
	}

	w := wire.NewWriter()
	wire.Message{
		SenderName: sender.Account.Name,
		Content:    text,
		Target:     recipient.Account.Name,
		SenderID:   sender.Account.ID,
	}.Serialise(w)
	packet := wire.Frame(uint16(packets.SendMessage), w.Bytes())

	return fanout.ToSession(ctx, sessions, recipient.Account.ID, packet)
}
