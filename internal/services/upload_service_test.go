package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memObjectStore is an in-memory media host. failAfter limits how many Put
// calls succeed; -1 means unlimited.
type memObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removed   []string
	puts      int
	failAfter int
	removeErr error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte), failAfter: -1}
}

func (m *memObjectStore) Put(_ context.Context, objectName, contentType string, r io.Reader, size int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.puts >= m.failAfter {
		return "", errors.New("media host unavailable")
	}
	m.puts++
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[objectName] = data
	return "http://media.local/autoparc/" + objectName, nil
}

func (m *memObjectStore) Remove(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.objects, objectName)
	m.removed = append(m.removed, objectName)
	return nil
}

func (m *memObjectStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// fileHeader builds a real multipart file header so fh.Open works.
func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	return form.File["file"][0]
}

// oversizedHeader fakes the size field; validation rejects it before any read.
func oversizedHeader(filename, contentType string) *multipart.FileHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{Filename: filename, Header: h, Size: maxUploadSize + 1}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	store := newMemObjectStore()
	svc := NewUploadService(store, newMemVehicleStore())

	_, err := svc.UploadImage(context.Background(), fileHeader(t, "doc.pdf", "application/pdf", []byte("%PDF")))
	assertStatus(t, err, 400)
	if store.count() != 0 {
		t.Error("a rejected file must not reach the media host")
	}
}

func TestUploadImageRejectsOversized(t *testing.T) {
	svc := NewUploadService(newMemObjectStore(), newMemVehicleStore())

	_, err := svc.UploadImage(context.Background(), oversizedHeader("photo.jpg", "image/jpeg"))
	assertStatus(t, err, 400)
}

func TestUploadImageKeepsExtension(t *testing.T) {
	store := newMemObjectStore()
	svc := NewUploadService(store, newMemVehicleStore())

	result, err := svc.UploadImage(context.Background(), fileHeader(t, "Photo.JPG", "image/jpeg", []byte("fake-jpeg")))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if result.URL == "" || result.MediaID == "" {
		t.Error("expected a URL and media id")
	}
	if got := result.MediaID[len(result.MediaID)-4:]; got != ".jpg" {
		t.Errorf("expected a lowered .jpg extension, got %q", got)
	}
}

func TestUploadImagesBatchIsAllOrNothing(t *testing.T) {
	store := newMemObjectStore()
	store.failAfter = 1
	svc := NewUploadService(store, newMemVehicleStore())

	files := []*multipart.FileHeader{
		fileHeader(t, "a.jpg", "image/jpeg", []byte("a")),
		fileHeader(t, "b.jpg", "image/jpeg", []byte("b")),
		fileHeader(t, "c.jpg", "image/jpeg", []byte("c")),
	}
	_, err := svc.UploadImages(context.Background(), files)
	if err == nil {
		t.Fatal("expected the batch to fail")
	}
	if store.count() != 0 {
		t.Errorf("expected every stored object to be rolled back, %d left", store.count())
	}
}

func TestUploadImagesBatchLimit(t *testing.T) {
	svc := NewUploadService(newMemObjectStore(), newMemVehicleStore())

	files := make([]*multipart.FileHeader, maxBatchImages+1)
	for i := range files {
		files[i] = fileHeader(t, "x.jpg", "image/jpeg", []byte("x"))
	}
	_, err := svc.UploadImages(context.Background(), files)
	assertStatus(t, err, 400)
}

func TestUploadDocumentTypes(t *testing.T) {
	store := newMemObjectStore()
	svc := NewUploadService(store, newMemVehicleStore())

	if _, err := svc.UploadDocument(context.Background(), fileHeader(t, "cg.pdf", "application/pdf", []byte("%PDF"))); err != nil {
		t.Errorf("pdf upload failed: %v", err)
	}
	_, err := svc.UploadDocument(context.Background(), fileHeader(t, "video.mp4", "video/mp4", []byte("mp4")))
	assertStatus(t, err, 400)
}

func TestAttachVehicleImagesFirstBecomesPrimary(t *testing.T) {
	store := newMemObjectStore()
	vehicles := newMemVehicleStore()
	uploadSvc := NewUploadService(store, vehicles)
	vehicleSvc := NewVehicleService(vehicles, newMemUserStore())
	actor := testManager()

	vehicle, _ := vehicleSvc.Create(context.Background(), actor, validVehicleInput())

	files := []*multipart.FileHeader{
		fileHeader(t, "avant.jpg", "image/jpeg", []byte("avant")),
		fileHeader(t, "arriere.jpg", "image/jpeg", []byte("arriere")),
	}
	updated, err := uploadSvc.AttachVehicleImages(context.Background(), actor, vehicle.ID.Hex(), files)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	if len(updated.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(updated.Images))
	}
	primaries := 0
	for _, img := range updated.Images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 || !updated.Images[0].IsPrimary {
		t.Error("expected exactly the first image to be primary")
	}
	last := updated.History[len(updated.History)-1]
	if last.Action != "Images ajoutées" {
		t.Errorf("unexpected history action %q", last.Action)
	}
}

func TestSetPrimaryImageUnknownIDIsNotFound(t *testing.T) {
	store := newMemObjectStore()
	vehicles := newMemVehicleStore()
	uploadSvc := NewUploadService(store, vehicles)
	vehicleSvc := NewVehicleService(vehicles, newMemUserStore())
	actor := testManager()

	vehicle, _ := vehicleSvc.Create(context.Background(), actor, validVehicleInput())
	uploadSvc.AttachVehicleImages(context.Background(), actor, vehicle.ID.Hex(),
		[]*multipart.FileHeader{fileHeader(t, "a.jpg", "image/jpeg", []byte("a"))})

	_, err := uploadSvc.SetPrimaryImage(context.Background(), actor, vehicle.ID.Hex(), primitive.NewObjectID().Hex())
	assertStatus(t, err, 404)
}

func TestDeletePrimaryImagePromotesNext(t *testing.T) {
	store := newMemObjectStore()
	vehicles := newMemVehicleStore()
	uploadSvc := NewUploadService(store, vehicles)
	vehicleSvc := NewVehicleService(vehicles, newMemUserStore())
	actor := testManager()

	vehicle, _ := vehicleSvc.Create(context.Background(), actor, validVehicleInput())
	attached, err := uploadSvc.AttachVehicleImages(context.Background(), actor, vehicle.ID.Hex(),
		[]*multipart.FileHeader{
			fileHeader(t, "a.jpg", "image/jpeg", []byte("a")),
			fileHeader(t, "b.jpg", "image/jpeg", []byte("b")),
		})
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	primaryID := attached.Images[0].ID
	primaryMedia := attached.Images[0].MediaID
	nextID := attached.Images[1].ID

	updated, err := uploadSvc.DeleteVehicleImage(context.Background(), actor, vehicle.ID.Hex(), primaryID.Hex())
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(updated.Images) != 1 || updated.Images[0].ID != nextID || !updated.Images[0].IsPrimary {
		t.Error("expected the remaining image to be promoted to primary")
	}
	found := false
	for _, removed := range store.removed {
		if removed == primaryMedia {
			found = true
		}
	}
	if !found {
		t.Error("expected the media object to be removed from the host")
	}
}

func TestDeleteVehicleImageSurfacesMediaFailure(t *testing.T) {
	store := newMemObjectStore()
	vehicles := newMemVehicleStore()
	uploadSvc := NewUploadService(store, vehicles)
	vehicleSvc := NewVehicleService(vehicles, newMemUserStore())
	actor := testManager()

	vehicle, _ := vehicleSvc.Create(context.Background(), actor, validVehicleInput())
	attached, _ := uploadSvc.AttachVehicleImages(context.Background(), actor, vehicle.ID.Hex(),
		[]*multipart.FileHeader{fileHeader(t, "a.jpg", "image/jpeg", []byte("a"))})

	store.removeErr = errors.New("media host unavailable")
	_, err := uploadSvc.DeleteVehicleImage(context.Background(), actor, vehicle.ID.Hex(), attached.Images[0].ID.Hex())
	assertStatus(t, err, 500)

	stored, _ := vehicles.FindByID(context.Background(), vehicle.ID)
	if len(stored.Images) != 1 {
		t.Error("the image entry must survive a failed media deletion")
	}
}

func TestAttachRequiresOwnership(t *testing.T) {
	store := newMemObjectStore()
	vehicles := newMemVehicleStore()
	uploadSvc := NewUploadService(store, vehicles)
	vehicleSvc := NewVehicleService(vehicles, newMemUserStore())
	owner := testManager()
	other := testManager()

	vehicle, _ := vehicleSvc.Create(context.Background(), owner, validVehicleInput())

	_, err := uploadSvc.AttachVehicleImages(context.Background(), other, vehicle.ID.Hex(),
		[]*multipart.FileHeader{fileHeader(t, "a.jpg", "image/jpeg", []byte("a"))})
	assertStatus(t, err, 403)
}
