package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, token, err := h.auth.Register(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Inscription réussie", fiber.Map{
		"user":  user.PublicProfile(),
		"token": token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, token, err := h.auth.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Connexion réussie", fiber.Map{
		"user":  user.PublicProfile(),
		"token": token,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"user": user.PublicProfile(),
	})
}

// ForgotPassword always answers with the same message so the route cannot be
// used to probe which emails are registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	if err := h.auth.ForgotPassword(c.Context(), in.Email); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK,
		"Si cet email existe, vous recevrez un lien de réinitialisation", nil)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, token, err := h.auth.ResetPassword(c.Context(), c.Params("token"), in.Password)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Mot de passe réinitialisé avec succès", fiber.Map{
		"user":  user.PublicProfile(),
		"token": token,
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in struct {
		CurrentPassword string `json:"currentPassword"`
		Password        string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user := middleware.CurrentUser(c)
	if err := h.auth.ChangePassword(c.Context(), user, in.CurrentPassword, in.Password); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Mot de passe modifié avec succès", nil)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user := middleware.CurrentUser(c)
	if err := h.auth.UpdateProfile(c.Context(), user, in); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Profil mis à jour avec succès", fiber.Map{
		"user": user.PublicProfile(),
	})
}

// Logout is stateless with bearer tokens; the client just discards its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return httpx.Success(c, fiber.StatusOK, "Déconnexion réussie", nil)
}
