package login

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"banchogate/internal/account"
	"banchogate/internal/bancho/channel"
	"banchogate/internal/bancho/presence"
	"banchogate/internal/bancho/session"
	"banchogate/internal/bancho/social"
	"banchogate/internal/icons"
	"banchogate/internal/oui"
)

// Dependencies are the external collaborators the login handshake
// reaches into, beyond the bancho core stores it's handed directly.
type Dependencies struct {
	Accounts account.Repository
	Sessions *session.Store
	Channels *channel.Store
	Stats    account.StatsRepository
	Verifier account.PasswordVerifier
	Icons    icons.Repository
	Oui      *oui.Cache // nil disables the adapter-vendor check
	Logger   *slog.Logger
}

// Handle runs the full tokenless-login algorithm: blob parsing,
// version/hardware validation, credential verification, duplicate
// rejection, session creation, and the welcome byte stream. The
// returned body is always a complete response; token is empty unless a
// session was created.
func (d Dependencies) Handle(ctx context.Context, body []byte, geo session.Geolocation) (respBody []byte, token string, err error) {
	start := time.Now()

	blob, err := ParseBlob(body)
	if err != nil {
		d.Logger.WarnContext(ctx, "malformed login blob", "error", err)
		return userIDPacket(-5), "", nil
	}

	version, ok := ParseClientVersion(blob.OsuVersion)
	if !ok || IsStale(version, start) {
		d.Logger.WarnContext(ctx, "forced update", "version", blob.OsuVersion)
		return append(versionUpdateForcedPacket(), userIDPacket(-2)...), "", nil
	}

	macs, wine, ok := ParseAdapters(blob.AdaptersStr)
	if !ok {
		d.Logger.WarnContext(ctx, "bad client hardware report", "user", blob.Username)
		return userIDPacket(-5), "", nil
	}

	acc, err := d.Accounts.FetchByName(ctx, blob.Username)
	if errors.Is(err, account.ErrNotFound) || (err == nil && !d.Verifier.Verify(blob.PasswordMD5, acc.PasswordBcrypt)) {
		return userIDPacket(-1), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	existing, err := d.Sessions.FetchByID(ctx, acc.ID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		body := append(userIDPacket(-1), notificationPacket("You are already logged in!")...)
		return body, "", nil
	}

	hw := session.Hardware{
		RunningUnderWine: wine,
		OsuMD5:           blob.OsuPathMD5,
		AdaptersMD5:      blob.AdaptersMD5,
		UninstallMD5:     blob.UninstallMD5,
		DiskMD5:          blob.DiskMD5,
		Adapters:         macs,
	}
	d.checkAdapterVendors(ctx, blob.Username, macs)

	sess, err := d.Sessions.Create(ctx, acc, geo, blob.UTCOffset, blob.FriendOnlyDMs, version, hw)
	if err != nil {
		return nil, "", err
	}

	respBody, err = d.welcomeStream(ctx, sess, start)
	if err != nil {
		return nil, "", err
	}

	return respBody, sess.Token, nil
}

// welcomeStream assembles the exact packet sequence spec step 7
// prescribes: protocol/id/privileges, the visible-channel info table,
// icon/friends/silence, own presence+stats, then every other session's
// presence+stats (fanning our own back to them when we're public),
// ACCOUNT_RESTRICTED for a non-public session, pending-verification
// clearing, global registration, and a closing
// elapsed-time notification.
func (d Dependencies) welcomeStream(ctx context.Context, sess *session.Session, loginStart time.Time) ([]byte, error) {
	var out []byte
	out = append(out, protocolVersionPacket()...)
	out = append(out, userIDPacket(sess.Account.ID)...)
	out = append(out, banchoPrivilegesPacket(sess.Account.BanchoPrivileges())...)

	channels, err := d.Channels.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		if !c.VisibleDuringLogin() || !c.CanRead(sess.Account.IsAdmin()) {
			continue
		}
		out = append(out, c.InfoPacket()...)
		if _, err := channel.Join(ctx, d.Sessions, d.Channels, sess, c); err != nil {
			return nil, err
		}
	}
	out = append(out, channelInfoEndPacket()...)

	if icon, err := d.Icons.FetchRandom(ctx); err == nil {
		out = append(out, mainMenuIconPacket(icon.ImageURL, icon.ClickURL)...)
	} else {
		d.Logger.WarnContext(ctx, "no main menu icon available", "error", err)
	}

	out = append(out, friendsListPacket(social.FriendIDs(sess))...)
	out = append(out, silenceEndPacket(sess.Account.SilenceEnd)...)

	ownStats, err := presence.StatsPacket(ctx, d.Stats, sess)
	if err != nil {
		return nil, err
	}
	out = append(out, presence.PresencePacket(sess)...)
	out = append(out, ownStats...)

	others, err := d.Sessions.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, other := range others {
		if other.Account.ID == sess.Account.ID {
			continue
		}

		otherStats, err := presence.StatsPacket(ctx, d.Stats, other)
		if err != nil {
			return nil, err
		}
		otherPacket := append(presence.PresencePacket(other), otherStats...)
		out = append(out, otherPacket...)

		if sess.IsPublic() {
			selfPacket := append(presence.PresencePacket(sess), ownStats...)
			if err := enqueueToOther(ctx, d.Sessions, other, selfPacket); err != nil {
				return nil, err
			}
		}
	}

	if !sess.IsPublic() {
		out = append(out, accountRestrictedPacket()...)
	}

	if sess.Account.PendingVerification() {
		sess.Account.Privileges &^= account.PrivPendingVerification
		if err := d.Accounts.UpdatePrivileges(ctx, sess.Account); err != nil {
			return nil, err
		}
	}

	if err := d.Sessions.AddToSessionList(ctx, sess); err != nil {
		return nil, err
	}

	elapsed := time.Since(loginStart)
	out = append(out, notificationPacket(elapsedMessage(elapsed))...)

	return out, nil
}

// checkAdapterVendors flags network adapters whose MAC prefix isn't
// registered to any known vendor — a hint of a spoofed adapter list,
// never enough on its own to reject the login. Best-effort: a cache
// miss or lookup error is itself just logged and never blocks login.
func (d Dependencies) checkAdapterVendors(ctx context.Context, username string, macs []string) {
	if d.Oui == nil {
		return
	}
	for _, mac := range macs {
		entry, found, err := d.Oui.Lookup(ctx, mac)
		if err != nil {
			d.Logger.WarnContext(ctx, "oui lookup failed", "user", username, "error", err)
			continue
		}
		if !found {
			d.Logger.WarnContext(ctx, "unrecognized network adapter vendor", "user", username, "mac", mac)
			continue
		}
		d.Logger.DebugContext(ctx, "adapter vendor resolved", "user", username, "mac", mac, "organization", entry.Organization)
	}
}

func enqueueToOther(ctx context.Context, sessions *session.Store, other *session.Session, data []byte) error {
	return sessions.EnqueueData(ctx, other.Account.ID, data)
}

func elapsedMessage(d time.Duration) string {
	return "Welcome back! Login took " + d.Round(time.Millisecond).String() + "."
}
