package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/services"
)

type VehicleHandler struct {
	vehicles *services.VehicleService
}

func NewVehicleHandler(vehicles *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

func (h *VehicleHandler) List(c *fiber.Ctx) error {
	in := services.ListVehiclesInput{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Brand:    c.Query("brand"),
		FuelType: c.Query("fuelType"),
		MinPrice: queryFloat(c, "minPrice"),
		MaxPrice: queryFloat(c, "maxPrice"),
		MinYear:  queryInt(c, "minYear"),
		MaxYear:  queryInt(c, "maxYear"),
		Page:     c.QueryInt("page"),
		Limit:    c.QueryInt("limit"),
		Sort:     c.Query("sort"),
	}

	vehicles, pagination, stats, err := h.vehicles.List(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"vehicles":   vehicles,
		"pagination": pagination,
		"stats":      stats,
	})
}

func (h *VehicleHandler) Get(c *fiber.Ctx) error {
	vehicle, err := h.vehicles.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) Create(c *fiber.Ctx) error {
	var in services.VehicleInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.Create(c.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Véhicule créé avec succès", fiber.Map{"vehicle": vehicle})
}

// CreatePublic is the anonymous intake form: restricted fields, status forced
// to Disponible.
func (h *VehicleHandler) CreatePublic(c *fiber.Ctx) error {
	var in services.VehicleInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.CreatePublic(c.Context(), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Véhicule enregistré avec succès", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) Update(c *fiber.Ctx) error {
	var in services.VehicleInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.Update(c.Context(), middleware.CurrentUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Véhicule mis à jour avec succès", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) Delete(c *fiber.Ctx) error {
	if err := h.vehicles.SoftDelete(c.Context(), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Véhicule supprimé avec succès", nil)
}

func (h *VehicleHandler) ChangeStatus(c *fiber.Ctx) error {
	var in struct {
		Status  string `json:"status"`
		Details string `json:"details"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.ChangeStatus(c.Context(), middleware.CurrentUser(c), c.Params("id"), in.Status, in.Details)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Statut modifié avec succès", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) AddHistory(c *fiber.Ctx) error {
	var in struct {
		Action  string `json:"action"`
		Details string `json:"details"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.AddHistory(c.Context(), middleware.CurrentUser(c), c.Params("id"), in.Action, in.Details)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Entrée d'historique ajoutée", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) AddMaintenance(c *fiber.Ctx) error {
	var in services.MaintenanceInput
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.vehicles.AddMaintenance(c.Context(), middleware.CurrentUser(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Service de maintenance ajouté", fiber.Map{"vehicle": vehicle})
}

func (h *VehicleHandler) Search(c *fiber.Ctx) error {
	vehicles, pagination, err := h.vehicles.Search(c.Context(), c.Query("q"),
		c.QueryInt("page"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{
		"vehicles":   vehicles,
		"pagination": pagination,
	})
}

func (h *VehicleHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.vehicles.Stats(c.Context())
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "", fiber.Map{"stats": stats})
}

func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryInt(c *fiber.Ctx, key string) *int {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}
