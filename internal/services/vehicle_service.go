package services

import (
	"context"
	"fmt"
	"time"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// VehicleService owns the vehicle lifecycle: listing, creation, updates,
// status transitions, history and maintenance.
type VehicleService struct {
	vehicles VehicleStore
	users    UserStore
}

func NewVehicleService(vehicles VehicleStore, users UserStore) *VehicleService {
	return &VehicleService{vehicles: vehicles, users: users}
}

type VehicleInput struct {
	Brand          string                `json:"brand"`
	Model          string                `json:"model"`
	Year           int                   `json:"year"`
	Price          float64               `json:"price"`
	PriceEUR       float64               `json:"priceEUR"`
	Category       string                `json:"category"`
	Description    string                `json:"description"`
	Status         string                `json:"status"`
	Specifications models.Specifications `json:"specifications"`
	Location       models.Location       `json:"location"`
}

func (in VehicleInput) validate() error {
	var errs fieldErrors
	if !lengthBetween(in.Brand, 2, 50) {
		errs.add("brand", "La marque doit contenir entre 2 et 50 caractères")
	}
	if !lengthBetween(in.Model, 2, 100) {
		errs.add("model", "Le modèle doit contenir entre 2 et 100 caractères")
	}
	if in.Year < 1900 || in.Year > time.Now().Year()+1 {
		errs.add("year", "L'année doit être comprise entre 1900 et l'année prochaine")
	}
	if in.Price < 0 {
		errs.add("price", "Le prix en FCFA doit être un nombre positif")
	}
	if in.PriceEUR < 0 {
		errs.add("priceEUR", "Le prix en euros doit être un nombre positif")
	}
	if !models.ValidVehicleCategory(in.Category) {
		errs.add("category", "Catégorie invalide")
	}
	if !lengthBetween(in.Description, 0, 1000) {
		errs.add("description", "La description ne peut pas dépasser 1000 caractères")
	}
	if in.Status != "" && !models.ValidVehicleStatus(in.Status) {
		errs.add("status", "Statut invalide")
	}
	spec := in.Specifications
	if spec.Transmission != "" && !models.ValidTransmission(spec.Transmission) {
		errs.add("specifications.transmission", "Transmission invalide")
	}
	if spec.FuelType != "" && !models.ValidFuelType(spec.FuelType) {
		errs.add("specifications.fuelType", "Type de carburant invalide")
	}
	if spec.Mileage < 0 {
		errs.add("specifications.mileage", "Le kilométrage ne peut pas être négatif")
	}
	if spec.Doors != 0 && (spec.Doors < 2 || spec.Doors > 5) {
		errs.add("specifications.doors", "Le nombre de portes doit être compris entre 2 et 5")
	}
	if spec.Seats != 0 && (spec.Seats < 2 || spec.Seats > 9) {
		errs.add("specifications.seats", "Le nombre de sièges doit être compris entre 2 et 9")
	}
	return errs.err()
}

func (in VehicleInput) toVehicle() *models.Vehicle {
	status := in.Status
	if status == "" {
		status = models.VehicleStatusAvailable
	}
	return &models.Vehicle{
		Brand:          in.Brand,
		Model:          in.Model,
		Year:           in.Year,
		Price:          in.Price,
		PriceEUR:       in.PriceEUR,
		Category:       in.Category,
		Description:    in.Description,
		Status:         status,
		Specifications: in.Specifications,
		Location:       in.Location,
		Images:         []models.VehicleImage{},
		History:        []models.HistoryEntry{},
		Documents:      []models.VehicleDocument{},
		IsActive:       true,
	}
}

type ListVehiclesInput struct {
	Category string
	Status   string
	Brand    string
	FuelType string
	MinPrice *float64
	MaxPrice *float64
	MinYear  *int
	MaxYear  *int
	Page     int
	Limit    int
	Sort     string
}

func (in ListVehiclesInput) validate() error {
	var errs fieldErrors
	if in.Category != "" && !models.ValidVehicleCategory(in.Category) {
		errs.add("category", "Catégorie invalide")
	}
	if in.Status != "" && !models.ValidVehicleStatus(in.Status) {
		errs.add("status", "Statut invalide")
	}
	if in.FuelType != "" && !models.ValidFuelType(in.FuelType) {
		errs.add("fuelType", "Type de carburant invalide")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		errs.add("minPrice", "Le prix minimum doit être positif")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		errs.add("maxPrice", "Le prix maximum doit être positif")
	}
	if in.MinYear != nil && *in.MinYear < 1900 {
		errs.add("minYear", "L'année minimum doit être supérieure à 1900")
	}
	if in.MaxYear != nil && *in.MaxYear < 1900 {
		errs.add("maxYear", "L'année maximum doit être supérieure à 1900")
	}
	return errs.err()
}

// List returns the public catalog: soft-deleted vehicles are always
// excluded, aggregate stats ride along.
func (s *VehicleService) List(ctx context.Context, in ListVehiclesInput) ([]models.Vehicle, httpx.Pagination, repo.VehicleStats, error) {
	if err := in.validate(); err != nil {
		return nil, httpx.Pagination{}, repo.VehicleStats{}, err
	}

	page, limit := normalizePage(in.Page, in.Limit, 10, 100)
	vehicles, total, err := s.vehicles.List(ctx, repo.VehicleFilter{
		Category: in.Category,
		Status:   in.Status,
		Brand:    in.Brand,
		FuelType: in.FuelType,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		MinYear:  in.MinYear,
		MaxYear:  in.MaxYear,
		Page:     page,
		Limit:    limit,
		Sort:     in.Sort,
	})
	if err != nil {
		return nil, httpx.Pagination{}, repo.VehicleStats{}, storeErr(err)
	}

	stats, err := s.vehicles.Stats(ctx)
	if err != nil {
		return nil, httpx.Pagination{}, repo.VehicleStats{}, storeErr(err)
	}

	for i := range vehicles {
		vehicles[i].CreatedByUser = lookupRef(ctx, s.users, vehicles[i].CreatedBy)
	}
	return vehicles, httpx.NewPagination(page, limit, total), stats, nil
}

func (s *VehicleService) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if vehicle == nil {
		return nil, httpx.NewNotFoundError("Véhicule non trouvé")
	}
	vehicle.CreatedByUser = lookupRef(ctx, s.users, vehicle.CreatedBy)
	vehicle.UpdatedByUser = lookupRef(ctx, s.users, vehicle.UpdatedBy)
	return vehicle, nil
}

// Create is the manager/admin variant: the actor becomes the owner and the
// creation is logged in the history.
func (s *VehicleService) Create(ctx context.Context, actor *models.User, in VehicleInput) (*models.Vehicle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	vehicle := in.toVehicle()
	vehicle.CreatedBy = actor.ID
	vehicle.AppendHistory("Véhicule créé", actor.ID, "Création initiale du véhicule")
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	vehicle.CreatedByUser = lookupRef(ctx, s.users, vehicle.CreatedBy)
	return vehicle, nil
}

// CreatePublic is the unauthenticated variant: restricted field set, status
// forced to Disponible, no owner.
func (s *VehicleService) CreatePublic(ctx context.Context, in VehicleInput) (*models.Vehicle, error) {
	in.Status = ""
	if err := in.validate(); err != nil {
		return nil, err
	}

	vehicle := in.toVehicle()
	vehicle.Status = models.VehicleStatusAvailable
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

// Update edits a vehicle. Only the creator or an admin may update; a
// soft-deleted vehicle is treated as gone on this owner-gated route.
func (s *VehicleService) Update(ctx context.Context, actor *models.User, id string, in VehicleInput) (*models.Vehicle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	vehicle, err := s.findMutable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated := in.toVehicle()
	vehicle.Brand = updated.Brand
	vehicle.Model = updated.Model
	vehicle.Year = updated.Year
	vehicle.Price = updated.Price
	vehicle.PriceEUR = updated.PriceEUR
	vehicle.Category = updated.Category
	vehicle.Description = updated.Description
	vehicle.Status = updated.Status
	vehicle.Specifications = updated.Specifications
	vehicle.Location = updated.Location
	vehicle.UpdatedBy = actor.ID
	vehicle.AppendHistory("Véhicule modifié", actor.ID, "Mise à jour des informations")

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	vehicle.CreatedByUser = lookupRef(ctx, s.users, vehicle.CreatedBy)
	vehicle.UpdatedByUser = lookupRef(ctx, s.users, vehicle.UpdatedBy)
	return vehicle, nil
}

// SoftDelete flips isActive off; the record stays retrievable by id.
func (s *VehicleService) SoftDelete(ctx context.Context, actor *models.User, id string) error {
	vehicle, err := s.findMutable(ctx, actor, id)
	if err != nil {
		return err
	}

	vehicle.IsActive = false
	vehicle.UpdatedBy = actor.ID
	vehicle.AppendHistory("Véhicule supprimé", actor.ID, "Suppression du véhicule")
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return storeErr(err)
	}
	return nil
}

// ChangeStatus records the old→new transition in the history.
func (s *VehicleService) ChangeStatus(ctx context.Context, actor *models.User, id, status, details string) (*models.Vehicle, error) {
	var errs fieldErrors
	if !models.ValidVehicleStatus(status) {
		errs.add("status", "Statut invalide")
	}
	if !lengthBetween(details, 0, 500) {
		errs.add("details", "Les détails ne peuvent pas dépasser 500 caractères")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	vehicle, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := vehicle.Status
	vehicle.Status = status
	vehicle.UpdatedBy = actor.ID
	if details == "" {
		details = fmt.Sprintf("Changement de statut: %s → %s", oldStatus, status)
	}
	vehicle.AppendHistory("Changement de statut", actor.ID, details)

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

func (s *VehicleService) AddHistory(ctx context.Context, actor *models.User, id, action, details string) (*models.Vehicle, error) {
	var errs fieldErrors
	if !lengthBetween(action, 1, 200) {
		errs.add("action", "L'action doit contenir entre 1 et 200 caractères")
	}
	if !lengthBetween(details, 0, 500) {
		errs.add("details", "Les détails ne peuvent pas dépasser 500 caractères")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	vehicle, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	vehicle.AppendHistory(action, actor.ID, details)
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

type MaintenanceInput struct {
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Cost        float64   `json:"cost"`
	Garage      string    `json:"garage"`
}

func (s *VehicleService) AddMaintenance(ctx context.Context, actor *models.User, id string, in MaintenanceInput) (*models.Vehicle, error) {
	var errs fieldErrors
	if in.Date.IsZero() {
		errs.add("date", "Date invalide")
	}
	if !lengthBetween(in.Type, 1, 100) {
		errs.add("type", "Le type doit contenir entre 1 et 100 caractères")
	}
	if !lengthBetween(in.Description, 0, 500) {
		errs.add("description", "La description ne peut pas dépasser 500 caractères")
	}
	if in.Cost < 0 {
		errs.add("cost", "Le coût doit être un nombre positif")
	}
	if !lengthBetween(in.Garage, 0, 100) {
		errs.add("garage", "Le nom du garage ne peut pas dépasser 100 caractères")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	vehicle, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	vehicle.AddMaintenanceService(models.ServiceEntry{
		Date:        in.Date,
		Type:        in.Type,
		Description: in.Description,
		Cost:        in.Cost,
		Garage:      in.Garage,
	})
	vehicle.AppendHistory("Service de maintenance ajouté", actor.ID, "Type: "+in.Type)

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

func (s *VehicleService) Search(ctx context.Context, q string, page, limit int) ([]models.Vehicle, httpx.Pagination, error) {
	if !lengthBetween(q, 2, 200) {
		var errs fieldErrors
		errs.add("q", "La recherche doit contenir au moins 2 caractères")
		return nil, httpx.Pagination{}, errs.err()
	}

	page, limit = normalizePage(page, limit, 10, 50)
	vehicles, total, err := s.vehicles.Search(ctx, q, page, limit)
	if err != nil {
		return nil, httpx.Pagination{}, storeErr(err)
	}
	for i := range vehicles {
		vehicles[i].CreatedByUser = lookupRef(ctx, s.users, vehicles[i].CreatedBy)
	}
	return vehicles, httpx.NewPagination(page, limit, total), nil
}

func (s *VehicleService) Stats(ctx context.Context) (repo.VehicleStats, error) {
	stats, err := s.vehicles.Stats(ctx)
	if err != nil {
		return repo.VehicleStats{}, storeErr(err)
	}
	return stats, nil
}

// findExisting resolves an id on routes without an ownership gate.
func (s *VehicleService) findExisting(ctx context.Context, id string) (*models.Vehicle, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if vehicle == nil {
		return nil, httpx.NewNotFoundError("Véhicule non trouvé")
	}
	return vehicle, nil
}

// findMutable resolves an id on owner-gated routes: soft-deleted records
// count as not found, and the actor must own the vehicle or be admin.
func (s *VehicleService) findMutable(ctx context.Context, actor *models.User, id string) (*models.Vehicle, error) {
	vehicle, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsActive {
		return nil, httpx.NewNotFoundError("Véhicule non trouvé")
	}
	if err := requireOwnershipOrAdmin(actor, vehicle.CreatedBy); err != nil {
		return nil, err
	}
	return vehicle, nil
}
