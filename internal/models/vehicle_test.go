package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func countPrimary(v *Vehicle) int {
	n := 0
	for _, img := range v.Images {
		if img.IsPrimary {
			n++
		}
	}
	return n
}

func newImage(primary bool) VehicleImage {
	return VehicleImage{ID: primitive.NewObjectID(), URL: "http://media/" + primitive.NewObjectID().Hex(), IsPrimary: primary}
}

func TestAddImagesFirstBecomesPrimary(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false), newImage(false)})

	if countPrimary(v) != 1 {
		t.Fatalf("expected exactly one primary image, got %d", countPrimary(v))
	}
	if !v.Images[0].IsPrimary {
		t.Error("expected the first added image to be primary")
	}
}

func TestAddImagesKeepsExistingPrimary(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false)})
	first := v.Images[0].ID

	v.AddImages([]VehicleImage{newImage(false), newImage(false)})

	if countPrimary(v) != 1 {
		t.Fatalf("expected exactly one primary image, got %d", countPrimary(v))
	}
	if !v.Images[0].IsPrimary || v.Images[0].ID != first {
		t.Error("adding more images must not move the primary flag")
	}
}

func TestRemovePrimaryPromotesFirstRemaining(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false), newImage(false), newImage(false)})
	primaryID := v.Images[0].ID
	nextID := v.Images[1].ID

	removed, ok := v.RemoveImage(primaryID)
	if !ok {
		t.Fatal("expected removal to succeed")
	}
	if removed.ID != primaryID {
		t.Error("wrong image removed")
	}
	if countPrimary(v) != 1 {
		t.Fatalf("expected exactly one primary image after removal, got %d", countPrimary(v))
	}
	if !v.Images[0].IsPrimary || v.Images[0].ID != nextID {
		t.Error("expected the first remaining image to be promoted")
	}
}

func TestRemoveNonPrimaryKeepsPrimary(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false), newImage(false)})
	primaryID := v.Images[0].ID

	v.RemoveImage(v.Images[1].ID)

	if countPrimary(v) != 1 || v.Images[0].ID != primaryID {
		t.Error("removing a secondary image must not change the primary")
	}
}

func TestRemoveLastImage(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false)})

	if _, ok := v.RemoveImage(v.Images[0].ID); !ok {
		t.Fatal("expected removal to succeed")
	}
	if len(v.Images) != 0 {
		t.Errorf("expected empty image list, got %d", len(v.Images))
	}
}

func TestSetPrimaryImage(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false), newImage(false), newImage(false)})
	target := v.Images[2].ID

	if !v.SetPrimaryImage(target) {
		t.Fatal("expected a matching id to succeed")
	}
	if countPrimary(v) != 1 {
		t.Fatalf("expected exactly one primary image, got %d", countPrimary(v))
	}
	if !v.Images[2].IsPrimary {
		t.Error("expected the targeted image to be primary")
	}
}

func TestSetPrimaryImageUnknownID(t *testing.T) {
	v := &Vehicle{}
	v.AddImages([]VehicleImage{newImage(false)})

	if v.SetPrimaryImage(primitive.NewObjectID()) {
		t.Error("expected an unknown id to fail")
	}
}

func TestPrimaryImageURL(t *testing.T) {
	v := &Vehicle{}
	if v.PrimaryImageURL() != "" {
		t.Error("expected empty URL with no images")
	}

	v.AddImages([]VehicleImage{newImage(false), newImage(false)})
	if v.PrimaryImageURL() != v.Images[0].URL {
		t.Error("expected the primary image URL")
	}
}

func TestDocumentExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	soon := now.AddDate(0, 0, 15)
	far := now.AddDate(1, 0, 0)

	v := &Vehicle{Documents: []VehicleDocument{
		{Name: "CG", Type: "Carte grise", ExpiryDate: &past},
		{Name: "Assurance", Type: "Assurance", ExpiryDate: &soon},
		{Name: "CT", Type: "Contrôle technique", ExpiryDate: &far},
		{Name: "Facture", Type: "Facture"},
	}}

	expired := v.ExpiredDocuments(now)
	if len(expired) != 1 || expired[0].Name != "CG" {
		t.Errorf("expected only the past document, got %v", expired)
	}

	expiring := v.DocumentsExpiringWithin(30*24*time.Hour, now)
	if len(expiring) != 1 || expiring[0].Name != "Assurance" {
		t.Errorf("expected only the soon-to-expire document, got %v", expiring)
	}
}

func TestAddMaintenanceServiceSetsLastService(t *testing.T) {
	v := &Vehicle{}
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	v.AddMaintenanceService(ServiceEntry{Date: date, Type: "Vidange", Cost: 45000})

	if v.Maintenance.LastService == nil || !v.Maintenance.LastService.Equal(date) {
		t.Error("expected lastService to track the entry date")
	}
	if len(v.Maintenance.ServiceHistory) != 1 {
		t.Errorf("expected one service entry, got %d", len(v.Maintenance.ServiceHistory))
	}
}

func TestAppendHistory(t *testing.T) {
	v := &Vehicle{}
	actor := primitive.NewObjectID()
	v.AppendHistory("Véhicule créé", actor, "Création initiale du véhicule")
	v.AppendHistory("Changement de statut", actor, "Disponible → Vendu")

	if len(v.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(v.History))
	}
	if v.History[0].Action != "Véhicule créé" || v.History[1].User != actor {
		t.Error("history entries out of order or missing actor")
	}
}
