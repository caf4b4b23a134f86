package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/middleware"
	"github.com/autoparc/autoparc-api/internal/services"
)

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return httpx.NewBadRequestError("Aucun fichier fourni")
	}

	result, err := h.uploads.UploadImage(c.Context(), fh)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Image envoyée avec succès", fiber.Map{"image": result})
}

func (h *UploadHandler) UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return httpx.NewBadRequestError("Aucun fichier fourni")
	}

	results, err := h.uploads.UploadImages(c.Context(), form.File["images"])
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Images envoyées avec succès", fiber.Map{"images": results})
}

func (h *UploadHandler) UploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("document")
	if err != nil {
		return httpx.NewBadRequestError("Aucun fichier fourni")
	}

	result, err := h.uploads.UploadDocument(c.Context(), fh)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Document envoyé avec succès", fiber.Map{"document": result})
}

func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	if err := h.uploads.Delete(c.Context(), c.Params("mediaId")); err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Fichier supprimé avec succès", nil)
}

func (h *UploadHandler) AttachVehicleImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return httpx.NewBadRequestError("Aucun fichier fourni")
	}

	vehicle, err := h.uploads.AttachVehicleImages(c.Context(), middleware.CurrentUser(c),
		c.Params("vehicleId"), form.File["images"])
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusCreated, "Images ajoutées au véhicule", fiber.Map{"vehicle": vehicle})
}

func (h *UploadHandler) SetPrimaryImage(c *fiber.Ctx) error {
	var in struct {
		ImageID string `json:"imageId"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httpx.NewBadRequestError("Corps de requête invalide")
	}

	vehicle, err := h.uploads.SetPrimaryImage(c.Context(), middleware.CurrentUser(c),
		c.Params("vehicleId"), in.ImageID)
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Image principale définie", fiber.Map{"vehicle": vehicle})
}

func (h *UploadHandler) DeleteVehicleImage(c *fiber.Ctx) error {
	vehicle, err := h.uploads.DeleteVehicleImage(c.Context(), middleware.CurrentUser(c),
		c.Params("vehicleId"), c.Params("imageId"))
	if err != nil {
		return err
	}
	return httpx.Success(c, fiber.StatusOK, "Image supprimée avec succès", fiber.Map{"vehicle": vehicle})
}
