package services

import (
	"context"
	"testing"

	"github.com/autoparc/autoparc-api/internal/models"
)

func seedUser(t *testing.T, users *memUserStore, role string, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test Personne", Email: email, Role: role, IsActive: true}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return user
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	admin := seedUser(t, users, models.RoleAdmin, "admin@autoparc.fr")

	err := svc.Deactivate(context.Background(), admin, admin.ID.Hex())
	assertStatus(t, err, 409)

	stored, _ := users.FindByID(context.Background(), admin.ID)
	if !stored.IsActive {
		t.Error("the account must stay active after the rejected call")
	}
}

func TestDeactivateAndReactivate(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	admin := seedUser(t, users, models.RoleAdmin, "admin@autoparc.fr")
	target := seedUser(t, users, models.RoleUser, "cible@autoparc.fr")

	if err := svc.Deactivate(context.Background(), admin, target.ID.Hex()); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	stored, _ := users.FindByID(context.Background(), target.ID)
	if stored.IsActive {
		t.Error("expected the account to be inactive")
	}

	reactivated, err := svc.Activate(context.Background(), target.ID.Hex())
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !reactivated.IsActive {
		t.Error("expected the account to be active again")
	}
}

func TestUpdateIgnoresRoleForNonAdmin(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	user := seedUser(t, users, models.RoleUser, "jo@autoparc.fr")

	role := models.RoleAdmin
	name := "Jo Renommé"
	updated, err := svc.Update(context.Background(), user, user.ID.Hex(), UpdateUserInput{
		Name: &name, Role: &role,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Jo Renommé" {
		t.Errorf("expected the name change to apply, got %q", updated.Name)
	}
	if updated.Role != models.RoleUser {
		t.Errorf("a non-admin must not change roles, got %q", updated.Role)
	}
}

func TestUpdateOtherUserRequiresAdmin(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	actor := seedUser(t, users, models.RoleManager, "manager@autoparc.fr")
	target := seedUser(t, users, models.RoleUser, "cible@autoparc.fr")

	name := "Intrus"
	_, err := svc.Update(context.Background(), actor, target.ID.Hex(), UpdateUserInput{Name: &name})
	assertStatus(t, err, 403)
}

func TestUpdateEmailUniqueness(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	admin := seedUser(t, users, models.RoleAdmin, "admin@autoparc.fr")
	target := seedUser(t, users, models.RoleUser, "cible@autoparc.fr")

	email := "admin@autoparc.fr"
	_, err := svc.Update(context.Background(), admin, target.ID.Hex(), UpdateUserInput{Email: &email})
	assertStatus(t, err, 409)
}

func TestChangeRole(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	target := seedUser(t, users, models.RoleUser, "cible@autoparc.fr")

	updated, err := svc.ChangeRole(context.Background(), target.ID.Hex(), models.RoleManager)
	if err != nil {
		t.Fatalf("role change failed: %v", err)
	}
	if updated.Role != models.RoleManager {
		t.Errorf("expected manager, got %q", updated.Role)
	}

	_, err = svc.ChangeRole(context.Background(), target.ID.Hex(), "super-admin")
	assertStatus(t, err, 400)
}

func TestGetOtherUserRequiresAdmin(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	actor := seedUser(t, users, models.RoleUser, "jo@autoparc.fr")
	other := seedUser(t, users, models.RoleUser, "autre@autoparc.fr")

	if _, err := svc.Get(context.Background(), actor, actor.ID.Hex()); err != nil {
		t.Errorf("self lookup failed: %v", err)
	}

	_, err := svc.Get(context.Background(), actor, other.ID.Hex())
	assertStatus(t, err, 403)
}

func TestListStripsSecrets(t *testing.T) {
	users := newMemUserStore()
	svc := NewUserService(users)
	user := seedUser(t, users, models.RoleUser, "jo@autoparc.fr")
	user.Password = "$2a$10$hash"
	user.PasswordResetToken = "hash-de-token"
	users.Update(context.Background(), user)

	listed, _, stats, err := svc.List(context.Background(), ListUsersInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one user, got %d", len(listed))
	}
	if listed[0].Password != "" || listed[0].PasswordResetToken != "" {
		t.Error("listing must never expose password or reset token")
	}
	if stats.TotalUsers != 1 || stats.ActiveUsers != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
