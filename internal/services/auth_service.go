package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
)

// AuthService covers self-service account operations: registration, login,
// password lifecycle and profile updates.
type AuthService struct {
	users     UserStore
	notifier  Notifier
	jwtSecret []byte
	tokenTTL  time.Duration
	resetTTL  time.Duration
}

func NewAuthService(users UserStore, notifier Notifier, jwtSecret string, tokenTTL, resetTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		notifier:  notifier,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		resetTTL:  resetTTL,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken issues the session JWT carrying the user id and role.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

func (in RegisterInput) validate() error {
	var errs fieldErrors
	if !lengthBetween(in.Name, 2, 50) {
		errs.add("name", "Le nom doit contenir entre 2 et 50 caractères")
	}
	if !models.ValidEmail(in.Email) {
		errs.add("email", "Veuillez entrer un email valide")
	}
	if !models.ValidPassword(in.Password) {
		errs.add("password", "Le mot de passe doit contenir au moins 6 caractères, une minuscule, une majuscule et un chiffre")
	}
	if in.Company != "" && !lengthBetween(in.Company, 0, 100) {
		errs.add("company", "Le nom de l'entreprise ne peut pas dépasser 100 caractères")
	}
	if in.Phone != "" && !models.ValidPhone(in.Phone) {
		errs.add("phone", "Veuillez entrer un numéro de téléphone valide")
	}
	return errs.err()
}

// Register creates a self-service account. The role is always "user"; any
// supplied role is ignored by the request shape itself.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, "", err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", storeErr(err)
	}
	if existing != nil {
		return nil, "", httpx.NewConflictError("Un utilisateur avec cet email existe déjà")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", httpx.NewStorageError("Erreur serveur interne")
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     models.RoleUser,
		Company:  in.Company,
		Phone:    in.Phone,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", storeErr(err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", httpx.NewStorageError("Erreur serveur interne")
	}

	// Welcome email only after the account is durably stored.
	s.notifier.Welcome(user.Email, user.Name)

	return user, token, nil
}

// Login checks existence, then the active flag, then the password, and never
// reveals which one failed beyond the active-account case.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)

	var errs fieldErrors
	if !models.ValidEmail(email) {
		errs.add("email", "Veuillez entrer un email valide")
	}
	if password == "" {
		errs.add("password", "Le mot de passe est requis")
	}
	if err := errs.err(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", storeErr(err)
	}
	if user == nil {
		return nil, "", httpx.NewAuthenticationError("Email ou mot de passe incorrect")
	}
	if !user.IsActive {
		return nil, "", httpx.NewAuthenticationError("Compte désactivé. Contactez l'administrateur.")
	}
	if !VerifyPassword(password, user.Password) {
		return nil, "", httpx.NewAuthenticationError("Email ou mot de passe incorrect")
	}

	user.RecordLogin()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", storeErr(err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", httpx.NewStorageError("Erreur serveur interne")
	}
	return user, token, nil
}

// ForgotPassword generates a reset token when the address is known. Only the
// SHA-256 hash of the token is stored; the raw value goes out by email and is
// otherwise discarded. Unknown addresses are indistinguishable from known
// ones in the response, and no email is sent for them.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !models.ValidEmail(email) {
		var errs fieldErrors
		errs.add("email", "Veuillez entrer un email valide")
		return errs.err()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storeErr(err)
	}
	if user == nil {
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return httpx.NewStorageError("Erreur serveur interne")
	}
	token := hex.EncodeToString(raw)

	user.PasswordResetToken = hashResetToken(token)
	user.PasswordResetExpires = time.Now().Add(s.resetTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return storeErr(err)
	}

	s.notifier.PasswordReset(user.Email, user.Name, token)
	return nil
}

// ResetPassword consumes a reset token. The token is single-use: the stored
// hash is cleared on success, so replaying it fails the lookup.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*models.User, string, error) {
	if !models.ValidPassword(password) {
		var errs fieldErrors
		errs.add("password", "Le mot de passe doit contenir au moins 6 caractères, une minuscule, une majuscule et un chiffre")
		return nil, "", errs.err()
	}

	user, err := s.users.FindByResetToken(ctx, hashResetToken(token), time.Now())
	if err != nil {
		return nil, "", storeErr(err)
	}
	if user == nil {
		return nil, "", httpx.NewBadRequestError("Token invalide ou expiré")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", httpx.NewStorageError("Erreur serveur interne")
	}
	user.Password = hash
	user.ClearResetToken()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", storeErr(err)
	}

	authToken, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", httpx.NewStorageError("Erreur serveur interne")
	}
	return user, authToken, nil
}

// ChangePassword requires the current password before accepting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, current, password string) error {
	var errs fieldErrors
	if current == "" {
		errs.add("currentPassword", "Le mot de passe actuel est requis")
	}
	if !models.ValidPassword(password) {
		errs.add("password", "Le mot de passe doit contenir au moins 6 caractères, une minuscule, une majuscule et un chiffre")
	}
	if err := errs.err(); err != nil {
		return err
	}

	if !VerifyPassword(current, user.Password) {
		return httpx.NewBadRequestError("Mot de passe actuel incorrect")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return httpx.NewStorageError("Erreur serveur interne")
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return storeErr(err)
	}
	return nil
}

type ProfileInput struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
}

// UpdateProfile applies the self-service profile fields. Absent fields stay
// untouched; empty strings clear the optional ones.
func (s *AuthService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) error {
	var errs fieldErrors
	if in.Name != nil && !lengthBetween(*in.Name, 2, 50) {
		errs.add("name", "Le nom doit contenir entre 2 et 50 caractères")
	}
	if in.Company != nil && !lengthBetween(*in.Company, 0, 100) {
		errs.add("company", "Le nom de l'entreprise ne peut pas dépasser 100 caractères")
	}
	if in.Phone != nil && *in.Phone != "" && !models.ValidPhone(*in.Phone) {
		errs.add("phone", "Veuillez entrer un numéro de téléphone valide")
	}
	if err := errs.err(); err != nil {
		return err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Company != nil {
		user.Company = *in.Company
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return storeErr(err)
	}
	return nil
}

// RecordLogin persists the last-seen timestamp for an authenticated request.
func (s *AuthService) RecordLogin(ctx context.Context, user *models.User) error {
	user.RecordLogin()
	if err := s.users.Update(ctx, user); err != nil {
		return storeErr(err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
