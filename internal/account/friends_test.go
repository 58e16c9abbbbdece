package account

import "testing"

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"Alice":      "alice",
		"Bob Smith":  "bob_smith",
		"  Spaced  ": "__spaced__",
	}

	for in, want := range cases {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBanchoPrivileges(t *testing.T) {
	a := Account{Privileges: PrivUserNormal | PrivAdminManageUsers}
	priv := a.BanchoPrivileges()

	if priv&BanchoSupporter == 0 {
		t.Error("expected supporter bit always set")
	}
	if priv&BanchoPlayer == 0 {
		t.Error("expected player bit from USER_NORMAL")
	}
	if priv&BanchoModerator == 0 {
		t.Error("expected moderator bit from ADMIN_MANAGE_USERS")
	}
	if priv&BanchoDeveloper != 0 {
		t.Error("moderator should take precedence over developer")
	}
}

func TestBanchoPrivilegesDeveloperFallback(t *testing.T) {
	a := Account{Privileges: PrivAdminManageSettings}
	priv := a.BanchoPrivileges()

	if priv&BanchoModerator != 0 {
		t.Error("did not expect moderator without ADMIN_MANAGE_USERS")
	}
	if priv&BanchoDeveloper == 0 {
		t.Error("expected developer bit from ADMIN_MANAGE_SETTINGS")
	}
}

func TestSilenced(t *testing.T) {
	a := Account{SilenceEnd: 100}
	if !a.Silenced(50) {
		t.Error("expected silenced at t=50 with silence_end=100")
	}
	if a.Silenced(150) {
		t.Error("expected not silenced at t=150 with silence_end=100")
	}
}

func TestBcryptVerifierCaches(t *testing.T) {
	v := NewBcryptVerifier()
	hash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // bcrypt("secret")

	if !v.Verify("secret", hash) {
		t.Fatal("expected first verify to succeed")
	}
	if !v.Verify("secret", hash) {
		t.Fatal("expected cached verify to succeed")
	}
	if v.Verify("wrong", hash) {
		t.Fatal("expected mismatched plain against a cached hash to fail, not return the cached plain")
	}
}
