package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	in := services.ListUsersInput{
		Role:     c.Query("role"),
		IsActive: queryBool(c, "isActive"),
		Page:     c.QueryInt("page"),
		Limit:    c.QueryInt("limit"),
		Sort:     c.Query("sort"),
	}

	users, pagination, stats, err := h.users.List(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"users":      users,
		"pagination": pagination,
		"stats":      stats,
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.Context(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"user": user})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in services.CreateUserInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, err := h.users.Create(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Utilisateur créé avec succès", fiber.Map{"user": user})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in services.UpdateUserInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, err := h.users.Update(c.Context(), middleware.CurrentUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Utilisateur mis à jour avec succès", fiber.Map{"user": user})
}

// Deactivate is the delete route: accounts are flagged inactive, never
// removed.
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.users.Deactivate(c.Context(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Utilisateur désactivé avec succès", nil)
}

func (h *UserHandler) Activate(c *fiber.Ctx) error {
	user, err := h.users.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Utilisateur réactivé avec succès", fiber.Map{"user": user})
}

func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	user, err := h.users.ChangeRole(c.Context(), c.Params("id"), in.Role)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Rôle modifié avec succès", fiber.Map{"user": user})
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	users, pagination, err := h.users.Search(c.Context(), c.Query("q"),
		c.QueryInt("page"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"users":      users,
		"pagination": pagination,
	})
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.users.Stats(c.Context())
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"stats": stats})
}

// queryBool reads an optional boolean query parameter; absence and malformed
// values both mean "no filter".
func queryBool(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
