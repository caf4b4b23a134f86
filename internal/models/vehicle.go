package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle category, status and specification enums, in the wording the API
// exposes.
var (
	VehicleCategories = []string{"Achat", "Location", "Option d'achat", "Deux-roues", "Électrique/Hybride"}
	VehicleStatuses   = []string{"Disponible", "En maintenance", "Affecté", "Vendu", "Réservé"}
	Transmissions     = []string{"Manuelle", "Automatique", "Semi-automatique"}
	FuelTypes         = []string{"Essence", "Diesel", "Électrique", "Hybride", "GPL", "Hydrogène"}
	DocumentTypes     = []string{"Carte grise", "Assurance", "Contrôle technique", "Facture", "Autre"}
)

const VehicleStatusAvailable = "Disponible"

func ValidVehicleCategory(s string) bool { return contains(VehicleCategories, s) }
func ValidVehicleStatus(s string) bool   { return contains(VehicleStatuses, s) }
func ValidTransmission(s string) bool    { return contains(Transmissions, s) }
func ValidFuelType(s string) bool        { return contains(FuelTypes, s) }
func ValidDocumentType(s string) bool    { return contains(DocumentTypes, s) }

type VehicleImage struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	URL       string             `bson:"url" json:"url"`
	MediaID   string             `bson:"media_id" json:"mediaId"`
	IsPrimary bool               `bson:"is_primary" json:"isPrimary"`
}

type VehicleDocument struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Type       string             `bson:"type" json:"type"`
	URL        string             `bson:"url" json:"url"`
	MediaID    string             `bson:"media_id" json:"mediaId"`
	ExpiryDate *time.Time         `bson:"expiry_date,omitempty" json:"expiryDate,omitempty"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploadedAt"`
}

type HistoryEntry struct {
	Action  string             `bson:"action" json:"action"`
	Date    time.Time          `bson:"date" json:"date"`
	User    primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Details string             `bson:"details,omitempty" json:"details,omitempty"`
}

type ServiceEntry struct {
	Date        time.Time `bson:"date" json:"date"`
	Type        string    `bson:"type" json:"type"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Cost        float64   `bson:"cost,omitempty" json:"cost,omitempty"`
	Garage      string    `bson:"garage,omitempty" json:"garage,omitempty"`
}

type Maintenance struct {
	LastService    *time.Time     `bson:"last_service,omitempty" json:"lastService,omitempty"`
	NextService    *time.Time     `bson:"next_service,omitempty" json:"nextService,omitempty"`
	ServiceHistory []ServiceEntry `bson:"service_history,omitempty" json:"serviceHistory"`
}

type Specifications struct {
	Engine       string `bson:"engine,omitempty" json:"engine,omitempty"`
	Transmission string `bson:"transmission,omitempty" json:"transmission,omitempty"`
	FuelType     string `bson:"fuel_type,omitempty" json:"fuelType,omitempty"`
	Mileage      int    `bson:"mileage,omitempty" json:"mileage,omitempty"`
	Color        string `bson:"color,omitempty" json:"color,omitempty"`
	Doors        int    `bson:"doors,omitempty" json:"doors,omitempty"`
	Seats        int    `bson:"seats,omitempty" json:"seats,omitempty"`
}

type Location struct {
	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
}

type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Brand          string             `bson:"brand" json:"brand"`
	Model          string             `bson:"model" json:"model"`
	Year           int                `bson:"year" json:"year"`
	Price          float64            `bson:"price" json:"price"`
	PriceEUR       float64            `bson:"price_eur,omitempty" json:"priceEUR,omitempty"`
	Category       string             `bson:"category" json:"category"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Images         []VehicleImage     `bson:"images" json:"images"`
	Specifications Specifications     `bson:"specifications" json:"specifications"`
	Status         string             `bson:"status" json:"status"`
	Location       Location           `bson:"location,omitempty" json:"location,omitempty"`
	History        []HistoryEntry     `bson:"history" json:"history"`
	Maintenance    Maintenance        `bson:"maintenance" json:"maintenance"`
	Documents      []VehicleDocument  `bson:"documents" json:"documents"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	CreatedBy      primitive.ObjectID `bson:"created_by" json:"createdBy"`
	UpdatedBy      primitive.ObjectID `bson:"updated_by,omitempty" json:"updatedBy,omitempty"`
	// Populated references, filled for responses only.
	CreatedByUser *UserRef `bson:"-" json:"createdByUser,omitempty"`
	UpdatedByUser *UserRef `bson:"-" json:"updatedByUser,omitempty"`
	Version        int64              `bson:"version" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// AppendHistory adds one immutable log record. Every state-changing action
// goes through here.
func (v *Vehicle) AppendHistory(action string, actor primitive.ObjectID, details string) {
	v.History = append(v.History, HistoryEntry{
		Action:  action,
		Date:    time.Now(),
		User:    actor,
		Details: details,
	})
}

// AddMaintenanceService appends the entry and moves lastService forward.
func (v *Vehicle) AddMaintenanceService(entry ServiceEntry) {
	v.Maintenance.ServiceHistory = append(v.Maintenance.ServiceHistory, entry)
	date := entry.Date
	v.Maintenance.LastService = &date
}

// PrimaryImageURL returns the primary image URL, falling back to the first
// image, or "" when the vehicle has no images.
func (v *Vehicle) PrimaryImageURL() string {
	for _, img := range v.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(v.Images) > 0 {
		return v.Images[0].URL
	}
	return ""
}

// SetPrimaryImage clears the flag on every image and sets it on the match.
// It reports whether the image id was found; callers treat false as
// not-found rather than silently ignoring it.
func (v *Vehicle) SetPrimaryImage(imageID primitive.ObjectID) bool {
	found := false
	for i := range v.Images {
		v.Images[i].IsPrimary = false
		if v.Images[i].ID == imageID {
			found = true
		}
	}
	if !found {
		return false
	}
	for i := range v.Images {
		if v.Images[i].ID == imageID {
			v.Images[i].IsPrimary = true
		}
	}
	return true
}

// AddImages appends uploaded images. If the list was empty beforehand the
// first new image becomes primary, keeping the one-primary invariant.
func (v *Vehicle) AddImages(images []VehicleImage) {
	hadNone := len(v.Images) == 0
	v.Images = append(v.Images, images...)
	if hadNone && len(v.Images) > 0 {
		v.Images[0].IsPrimary = true
	}
}

// RemoveImage deletes the image and, when the removed image was primary and
// others remain, promotes the first remaining one.
func (v *Vehicle) RemoveImage(imageID primitive.ObjectID) (VehicleImage, bool) {
	for i, img := range v.Images {
		if img.ID == imageID {
			v.Images = append(v.Images[:i], v.Images[i+1:]...)
			if img.IsPrimary && len(v.Images) > 0 {
				v.Images[0].IsPrimary = true
			}
			return img, true
		}
	}
	return VehicleImage{}, false
}

// ExpiredDocuments returns the documents whose expiry date lies before asOf.
func (v *Vehicle) ExpiredDocuments(asOf time.Time) []VehicleDocument {
	var out []VehicleDocument
	for _, doc := range v.Documents {
		if doc.ExpiryDate != nil && doc.ExpiryDate.Before(asOf) {
			out = append(out, doc)
		}
	}
	return out
}

// DocumentsExpiringWithin returns documents still valid at asOf but expiring
// inside the window.
func (v *Vehicle) DocumentsExpiringWithin(window time.Duration, asOf time.Time) []VehicleDocument {
	limit := asOf.Add(window)
	var out []VehicleDocument
	for _, doc := range v.Documents {
		if doc.ExpiryDate != nil && doc.ExpiryDate.After(asOf) && !doc.ExpiryDate.After(limit) {
			out = append(out, doc)
		}
	}
	return out
}

func (v *Vehicle) FullName() string {
	return v.Brand + " " + v.Model
}

func (v *Vehicle) Age() int {
	return time.Now().Year() - v.Year
}

func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleStatusAvailable && v.IsActive
}

// MarshalJSON adds the derived attributes the API exposes alongside the
// stored fields.
func (v Vehicle) MarshalJSON() ([]byte, error) {
	type alias Vehicle
	return json.Marshal(struct {
		alias
		FullName    string `json:"fullName"`
		VehicleAge  int    `json:"age"`
		IsAvailable bool   `json:"isAvailable"`
	}{
		alias:       alias(v),
		FullName:    v.FullName(),
		VehicleAge:  v.Age(),
		IsAvailable: v.IsAvailable(),
	})
}
