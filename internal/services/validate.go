package services

import (
	"errors"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// fieldErrors collects every failing field before any mutation happens, so a
// validation failure reports the full list rather than the first hit.
type fieldErrors []httpx.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, httpx.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return httpx.NewValidationError(f)
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// requireOwnershipOrAdmin allows the mutation when the actor created the
// resource or holds the admin role.
func requireOwnershipOrAdmin(actor *models.User, owner primitive.ObjectID) error {
	if actor.Role == models.RoleAdmin || actor.ID == owner {
		return nil
	}
	return httpx.NewAuthorizationError("Accès refusé")
}

// parseObjectID maps a malformed id to not-found so callers cannot probe
// which ids are syntactically valid.
func parseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, httpx.NewNotFoundError("Ressource non trouvée")
	}
	return id, nil
}

// storeErr maps repository failures to the API taxonomy.
func storeErr(err error) error {
	if errors.Is(err, repo.ErrVersionConflict) {
		return httpx.NewConflictError("La ressource a été modifiée par une autre requête, veuillez réessayer")
	}
	return httpx.NewStorageError("Erreur de base de données")
}
