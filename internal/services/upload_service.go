package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/storage"
)

const (
	maxUploadSize  = 10 << 20 // 10 MB
	maxBatchImages = 5
)

var documentContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
}

// UploadResult describes one stored object on the media host.
type UploadResult struct {
	MediaID  string `json:"mediaId"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadService pushes files to the media host and keeps vehicle image lists
// consistent with what is actually stored there.
type UploadService struct {
	store    storage.ObjectStore
	vehicles VehicleStore
}

func NewUploadService(store storage.ObjectStore, vehicles VehicleStore) *UploadService {
	return &UploadService{store: store, vehicles: vehicles}
}

// UploadImage stores a single image and returns its media id and URL.
func (s *UploadService) UploadImage(ctx context.Context, fh *multipart.FileHeader) (*UploadResult, error) {
	if err := validateImage(fh); err != nil {
		return nil, err
	}
	return s.put(ctx, fh)
}

// UploadImages stores up to maxBatchImages images as a unit. If any upload
// fails the already-stored objects are removed and the whole batch fails.
func (s *UploadService) UploadImages(ctx context.Context, files []*multipart.FileHeader) ([]UploadResult, error) {
	if len(files) == 0 {
		var errs fieldErrors
		errs.add("images", "Aucun fichier fourni")
		return nil, errs.err()
	}
	if len(files) > maxBatchImages {
		var errs fieldErrors
		errs.add("images", fmt.Sprintf("Maximum %d images par envoi", maxBatchImages))
		return nil, errs.err()
	}
	for _, fh := range files {
		if err := validateImage(fh); err != nil {
			return nil, err
		}
	}

	results := make([]UploadResult, len(files))
	var mu sync.Mutex
	var stored []string

	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			res, err := s.put(gctx, fh)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = *res
			stored = append(stored, res.MediaID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Roll back what made it to the media host.
		for _, mediaID := range stored {
			_ = s.store.Remove(context.WithoutCancel(ctx), mediaID)
		}
		return nil, err
	}
	return results, nil
}

// UploadDocument stores a vehicle document (PDF, Word or scanned image).
func (s *UploadService) UploadDocument(ctx context.Context, fh *multipart.FileHeader) (*UploadResult, error) {
	contentType := fh.Header.Get("Content-Type")
	var errs fieldErrors
	if !documentContentTypes[contentType] {
		errs.add("document", "Type de fichier non supporté (PDF, Word ou image attendu)")
	}
	if fh.Size > maxUploadSize {
		errs.add("document", "Le fichier ne peut pas dépasser 10 Mo")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return s.put(ctx, fh)
}

// Delete removes an object from the media host. Failures surface to the
// caller rather than being swallowed.
func (s *UploadService) Delete(ctx context.Context, mediaID string) error {
	if mediaID == "" {
		var errs fieldErrors
		errs.add("mediaId", "Identifiant de média requis")
		return errs.err()
	}
	if err := s.store.Remove(ctx, mediaID); err != nil {
		return httpx.NewStorageError("Erreur lors de la suppression du fichier")
	}
	return nil
}

// AttachVehicleImages uploads a batch of images and appends them to the
// vehicle. When the vehicle had no image the first of the batch becomes
// primary.
func (s *UploadService) AttachVehicleImages(ctx context.Context, actor *models.User, vehicleID string, files []*multipart.FileHeader) (*models.Vehicle, error) {
	vehicle, err := s.findVehicle(ctx, actor, vehicleID)
	if err != nil {
		return nil, err
	}

	results, err := s.UploadImages(ctx, files)
	if err != nil {
		return nil, err
	}

	images := make([]models.VehicleImage, len(results))
	for i, res := range results {
		images[i] = models.VehicleImage{
			ID:      primitive.NewObjectID(),
			URL:     res.URL,
			MediaID: res.MediaID,
		}
	}
	vehicle.AddImages(images)
	vehicle.AppendHistory("Images ajoutées", actor.ID, fmt.Sprintf("%d image(s) ajoutée(s)", len(images)))

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		// The datastore rejected the change; drop the orphaned objects.
		for _, res := range results {
			_ = s.store.Remove(context.WithoutCancel(ctx), res.MediaID)
		}
		return nil, storeErr(err)
	}
	return vehicle, nil
}

// SetPrimaryImage makes imageID the vehicle's only primary image.
func (s *UploadService) SetPrimaryImage(ctx context.Context, actor *models.User, vehicleID, imageID string) (*models.Vehicle, error) {
	imgID, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return nil, httpx.NewNotFoundError("Image non trouvée")
	}

	vehicle, err := s.findVehicle(ctx, actor, vehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.SetPrimaryImage(imgID) {
		return nil, httpx.NewNotFoundError("Image non trouvée")
	}
	vehicle.AppendHistory("Image principale modifiée", actor.ID, "Nouvelle image principale définie")

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

// DeleteVehicleImage removes the object from the media host first, then the
// image entry. A vehicle that still has images always keeps exactly one
// primary.
func (s *UploadService) DeleteVehicleImage(ctx context.Context, actor *models.User, vehicleID, imageID string) (*models.Vehicle, error) {
	imgID, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return nil, httpx.NewNotFoundError("Image non trouvée")
	}

	vehicle, err := s.findVehicle(ctx, actor, vehicleID)
	if err != nil {
		return nil, err
	}

	var target *models.VehicleImage
	for i := range vehicle.Images {
		if vehicle.Images[i].ID == imgID {
			target = &vehicle.Images[i]
			break
		}
	}
	if target == nil {
		return nil, httpx.NewNotFoundError("Image non trouvée")
	}

	if target.MediaID != "" {
		if err := s.store.Remove(ctx, target.MediaID); err != nil {
			return nil, httpx.NewStorageError("Erreur lors de la suppression du fichier")
		}
	}

	vehicle.RemoveImage(imgID)
	vehicle.AppendHistory("Image supprimée", actor.ID, "Image retirée du véhicule")

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, storeErr(err)
	}
	return vehicle, nil
}

func (s *UploadService) put(ctx context.Context, fh *multipart.FileHeader) (*UploadResult, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, httpx.NewStorageError("Impossible de lire le fichier envoyé")
	}
	defer f.Close()

	objectName := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
	contentType := fh.Header.Get("Content-Type")

	url, err := s.store.Put(ctx, objectName, contentType, f, fh.Size)
	if err != nil {
		return nil, httpx.NewStorageError("Erreur lors de l'envoi du fichier")
	}
	return &UploadResult{
		MediaID:  objectName,
		URL:      url,
		Filename: fh.Filename,
		Size:     fh.Size,
	}, nil
}

func (s *UploadService) findVehicle(ctx context.Context, actor *models.User, id string) (*models.Vehicle, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if vehicle == nil || !vehicle.IsActive {
		return nil, httpx.NewNotFoundError("Véhicule non trouvé")
	}
	if err := requireOwnershipOrAdmin(actor, vehicle.CreatedBy); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func validateImage(fh *multipart.FileHeader) error {
	var errs fieldErrors
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		errs.add("image", "Seules les images sont acceptées")
	}
	if fh.Size > maxUploadSize {
		errs.add("image", "Le fichier ne peut pas dépasser 10 Mo")
	}
	return errs.err()
}
