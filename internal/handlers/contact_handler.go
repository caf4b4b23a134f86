package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/services"
)

type ContactHandler struct {
	contacts *services.ContactService
}

func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// Create is the public contact form. Only a trimmed acknowledgement is
// returned; the stored record stays internal.
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var in services.CreateContactInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}
	in.IPAddress = c.IP()
	in.UserAgent = c.Get("User-Agent")

	contact, err := h.contacts.Create(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated,
		"Message envoyé avec succès. Nous vous répondrons dans les plus brefs délais.", fiber.Map{
			"id":        contact.ID,
			"name":      contact.Name,
			"email":     contact.Email,
			"subject":   contact.Subject,
			"createdAt": contact.CreatedAt,
		})
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	in := services.ListContactsInput{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Type:     c.Query("type"),
		Page:     c.QueryInt("page"),
		Limit:    c.QueryInt("limit"),
		Sort:     c.Query("sort"),
	}

	contacts, pagination, stats, err := h.contacts.List(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"contacts":   contacts,
		"pagination": pagination,
		"stats":      stats,
	})
}

func (h *ContactHandler) Get(c *fiber.Ctx) error {
	contact, err := h.contacts.Get(c.Context(), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"contact": contact})
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	var in services.TriageInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.UpdateTriage(c.Context(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Contact mis à jour avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) UpdateStatus(c *fiber.Ctx) error {
	var in struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.UpdateStatus(c.Context(), c.Params("id"), in.Status)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Statut modifié avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) AddResponse(c *fiber.Ctx) error {
	var in struct {
		Message    string `json:"message"`
		IsInternal bool   `json:"isInternal"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.AddResponse(c.Context(), middleware.CurrentUser(c),
		c.Params("id"), in.Message, in.IsInternal)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Réponse ajoutée avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) Assign(c *fiber.Ctx) error {
	var in struct {
		AssignedTo string `json:"assignedTo"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.Assign(c.Context(), c.Params("id"), in.AssignedTo)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Contact assigné avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) UpdateTags(c *fiber.Ctx) error {
	var in struct {
		Action string   `json:"action"`
		Tags   []string `json:"tags"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.UpdateTags(c.Context(), c.Params("id"), in.Action, in.Tags)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Tags mis à jour avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) ScheduleFollowUp(c *fiber.Ctx) error {
	var in struct {
		FollowUpDate time.Time `json:"followUpDate"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	contact, err := h.contacts.ScheduleFollowUp(c.Context(), c.Params("id"), in.FollowUpDate)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Suivi planifié avec succès", fiber.Map{"contact": contact})
}

func (h *ContactHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.contacts.StatsOverview(c.Context())
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"stats": stats})
}

func (h *ContactHandler) Assigned(c *fiber.Ctx) error {
	contacts, err := h.contacts.Assigned(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"contacts": contacts})
}
