package security

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(now func() time.Time) *LinkTokenCodec {
	return NewLinkTokenCodec("email-secret", 24*time.Hour, "reset-secret", time.Hour, now)
}

func TestLinkTokenCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(nil)
	token, err := c.Issue(PurposeVerifyEmail, "a@x.com", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	email, id, err := c.Verify(PurposeVerifyEmail, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if email != "a@x.com" || id != 7 {
		t.Errorf("got (%q, %d), want (a@x.com, 7)", email, id)
	}
}

func TestLinkTokenCodec_PurposeIsolation(t *testing.T) {
	c := newTestCodec(nil)

	verifyToken, _ := c.Issue(PurposeVerifyEmail, "a@x.com", 7)
	if _, _, err := c.Verify(PurposeResetPassword, verifyToken); !errors.Is(err, ErrLinkTokenInvalid) {
		t.Errorf("verify-email token on reset path: err = %v, want ErrLinkTokenInvalid", err)
	}

	resetToken, _ := c.Issue(PurposeResetPassword, "a@x.com", 7)
	if _, _, err := c.Verify(PurposeVerifyEmail, resetToken); !errors.Is(err, ErrLinkTokenInvalid) {
		t.Errorf("reset token on verify-email path: err = %v, want ErrLinkTokenInvalid", err)
	}
}

func TestLinkTokenCodec_Expired(t *testing.T) {
	now := time.Now()
	issuer := newTestCodec(func() time.Time { return now.Add(-2 * time.Hour) })
	token, _ := issuer.Issue(PurposeResetPassword, "a@x.com", 7)

	verifier := newTestCodec(func() time.Time { return now })
	if _, _, err := verifier.Verify(PurposeResetPassword, token); !errors.Is(err, ErrLinkTokenExpired) {
		t.Errorf("err = %v, want ErrLinkTokenExpired", err)
	}
}

func TestLinkTokenCodec_Garbage(t *testing.T) {
	c := newTestCodec(nil)
	if _, _, err := c.Verify(PurposeVerifyEmail, "garbage"); !errors.Is(err, ErrLinkTokenInvalid) {
		t.Errorf("err = %v, want ErrLinkTokenInvalid", err)
	}
	if _, _, err := c.Verify(Purpose("other"), "garbage"); !errors.Is(err, ErrLinkTokenInvalid) {
		t.Errorf("unknown purpose err = %v, want ErrLinkTokenInvalid", err)
	}
}
