package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
)

func newAuthService(users UserStore, notifier Notifier) *AuthService {
	return NewAuthService(users, notifier, "test-secret", time.Hour, 10*time.Minute)
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *httpx.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected an API error, got %v", err)
	}
	if apiErr.Status != status {
		t.Fatalf("expected status %d, got %d (%s)", status, apiErr.Status, apiErr.Message)
	}
}

func TestRegister(t *testing.T) {
	users := newMemUserStore()
	notifier := &recordingNotifier{}
	svc := newAuthService(users, notifier)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Name: "Jo Dupont", Email: "Jo@X.fr", Password: "Abcdef1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if user.Email != "jo@x.fr" {
		t.Errorf("expected a lowered email, got %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("self-registration must force the user role, got %q", user.Role)
	}
	if public := user.PublicProfile(); public.Password != "" {
		t.Error("public profile must not carry the password hash")
	}
	if len(notifier.welcomes) != 1 {
		t.Errorf("expected one welcome email, got %d", len(notifier.welcomes))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMemUserStore()
	svc := newAuthService(users, &recordingNotifier{})

	in := RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"}
	if _, _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, _, err := svc.Register(context.Background(), in)
	assertStatus(t, err, 409)
}

func TestRegisterValidationListsEveryField(t *testing.T) {
	svc := newAuthService(newMemUserStore(), &recordingNotifier{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name: "J", Email: "pas-un-email", Password: "court",
	})

	var apiErr *httpx.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected an API error, got %v", err)
	}
	if len(apiErr.Fields) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(apiErr.Fields), apiErr.Fields)
	}
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	users := newMemUserStore()
	svc := newAuthService(users, &recordingNotifier{})
	svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})

	_, _, errWrongPass := svc.Login(context.Background(), "jo@x.fr", "Mauvais1")
	_, _, errNoUser := svc.Login(context.Background(), "inconnu@x.fr", "Abcdef1")

	assertStatus(t, errWrongPass, 401)
	assertStatus(t, errNoUser, 401)

	var a, b *httpx.APIError
	errors.As(errWrongPass, &a)
	errors.As(errNoUser, &b)
	if a.Message != b.Message {
		t.Error("login failures must not reveal whether the email exists")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	users := newMemUserStore()
	svc := newAuthService(users, &recordingNotifier{})
	user, _, _ := svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})

	user.IsActive = false
	users.Update(context.Background(), user)

	_, _, err := svc.Login(context.Background(), "jo@x.fr", "Abcdef1")
	assertStatus(t, err, 401)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	users := newMemUserStore()
	svc := newAuthService(users, &recordingNotifier{})
	svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})

	user, _, err := svc.Login(context.Background(), "jo@x.fr", "Abcdef1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.LastLogin == nil {
		t.Error("expected lastLogin to be set")
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	users := newMemUserStore()
	notifier := &recordingNotifier{}
	svc := newAuthService(users, notifier)

	if err := svc.ForgotPassword(context.Background(), "inconnu@x.fr"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(notifier.resets) != 0 {
		t.Error("no email may be sent for an unknown address")
	}
}

func TestForgotPasswordStoresOnlyTheHash(t *testing.T) {
	users := newMemUserStore()
	notifier := &recordingNotifier{}
	svc := newAuthService(users, notifier)
	svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})

	if err := svc.ForgotPassword(context.Background(), "jo@x.fr"); err != nil {
		t.Fatalf("forgot-password failed: %v", err)
	}
	if len(notifier.resets) != 1 {
		t.Fatalf("expected one reset email, got %d", len(notifier.resets))
	}

	raw := notifier.resets[0]
	stored, _ := users.FindByEmail(context.Background(), "jo@x.fr")
	if stored.PasswordResetToken == "" {
		t.Fatal("expected a stored reset token hash")
	}
	if stored.PasswordResetToken == raw {
		t.Error("the raw token must never be persisted")
	}
}

func TestResetPasswordTokenIsSingleUse(t *testing.T) {
	users := newMemUserStore()
	notifier := &recordingNotifier{}
	svc := newAuthService(users, notifier)
	svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})
	svc.ForgotPassword(context.Background(), "jo@x.fr")
	token := notifier.resets[0]

	user, session, err := svc.ResetPassword(context.Background(), token, "Nouveau1")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if session == "" {
		t.Error("expected a fresh session token")
	}
	if user.PasswordResetToken != "" {
		t.Error("expected the reset fields to be cleared")
	}

	_, _, err = svc.ResetPassword(context.Background(), token, "Encore1x")
	assertStatus(t, err, 400)

	if _, _, err := svc.Login(context.Background(), "jo@x.fr", "Nouveau1"); err != nil {
		t.Errorf("login with the new password failed: %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	users := newMemUserStore()
	notifier := &recordingNotifier{}
	svc := newAuthService(users, notifier)
	svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})
	svc.ForgotPassword(context.Background(), "jo@x.fr")

	stored, _ := users.FindByEmail(context.Background(), "jo@x.fr")
	stored.PasswordResetExpires = time.Now().Add(-time.Minute)
	users.Update(context.Background(), stored)

	_, _, err := svc.ResetPassword(context.Background(), notifier.resets[0], "Nouveau1")
	assertStatus(t, err, 400)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	users := newMemUserStore()
	svc := newAuthService(users, &recordingNotifier{})
	user, _, _ := svc.Register(context.Background(), RegisterInput{Name: "Jo Dupont", Email: "jo@x.fr", Password: "Abcdef1"})

	err := svc.ChangePassword(context.Background(), user, "Mauvais1", "Nouveau1")
	assertStatus(t, err, 400)

	if err := svc.ChangePassword(context.Background(), user, "Abcdef1", "Nouveau1"); err != nil {
		t.Fatalf("change-password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "jo@x.fr", "Nouveau1"); err != nil {
		t.Errorf("login with the new password failed: %v", err)
	}
}
