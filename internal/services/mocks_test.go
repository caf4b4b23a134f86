package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// In-memory stores backing the service tests. They mirror the repository
// not-found convention: a miss is (nil, nil), never an error.

type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.PasswordResetToken != "" && u.PasswordResetToken == tokenHash && u.PasswordResetExpires.After(now) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) List(_ context.Context, filter repo.UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *memUserStore) Search(_ context.Context, q string, page, limit int) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.ToLower(q)
	var out []models.User
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memUserStore) Stats(_ context.Context) (repo.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := repo.UserStats{ByRole: map[string]int{}}
	for _, u := range m.users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		}
		if u.EmailVerified {
			stats.VerifiedEmails++
		}
		stats.ByRole[u.Role]++
	}
	return stats, nil
}

type memVehicleStore struct {
	mu       sync.Mutex
	vehicles map[primitive.ObjectID]models.Vehicle
	// updateErr, when set, is returned by the next Update call.
	updateErr error
}

func newMemVehicleStore() *memVehicleStore {
	return &memVehicleStore{vehicles: make(map[primitive.ObjectID]models.Vehicle)}
}

func (m *memVehicleStore) Create(_ context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle.ID = primitive.NewObjectID()
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt
	vehicle.Version = 1
	m.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (m *memVehicleStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vehicles[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memVehicleStore) Update(_ context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return err
	}
	vehicle.UpdatedAt = time.Now()
	vehicle.Version++
	m.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (m *memVehicleStore) List(_ context.Context, filter repo.VehicleFilter) ([]models.Vehicle, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vehicle
	for _, v := range m.vehicles {
		if !filter.IncludeInactive && !v.IsActive {
			continue
		}
		if filter.Category != "" && v.Category != filter.Category {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		out = append(out, v)
	}
	return out, int64(len(out)), nil
}

func (m *memVehicleStore) Search(_ context.Context, q string, page, limit int) ([]models.Vehicle, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.ToLower(q)
	var out []models.Vehicle
	for _, v := range m.vehicles {
		if !v.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(v.Brand), q) || strings.Contains(strings.ToLower(v.Model), q) {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memVehicleStore) Stats(_ context.Context) (repo.VehicleStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := repo.VehicleStats{ByCategory: map[string]int{}, ByStatus: map[string]int{}, ByFuelType: map[string]int{}, ByYear: map[string]int{}}
	for _, v := range m.vehicles {
		if !v.IsActive {
			continue
		}
		stats.TotalVehicles++
		stats.TotalValue += v.Price
		stats.ByCategory[v.Category]++
		stats.ByStatus[v.Status]++
	}
	return stats, nil
}

type memContactStore struct {
	mu       sync.Mutex
	contacts map[primitive.ObjectID]models.Contact
}

func newMemContactStore() *memContactStore {
	return &memContactStore{contacts: make(map[primitive.ObjectID]models.Contact)}
}

func (m *memContactStore) Create(_ context.Context, contact *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact.ID = primitive.NewObjectID()
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	m.contacts[contact.ID] = *contact
	return nil
}

func (m *memContactStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contacts[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memContactStore) Update(_ context.Context, contact *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact.UpdatedAt = time.Now()
	m.contacts[contact.ID] = *contact
	return nil
}

func (m *memContactStore) List(_ context.Context, filter repo.ContactFilter) ([]models.Contact, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Contact
	for _, c := range m.contacts {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && c.Priority != filter.Priority {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *memContactStore) ByAssignee(_ context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Contact
	for _, c := range m.contacts {
		if c.AssignedTo == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContactStore) Stats(_ context.Context) (repo.ContactStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := repo.ContactStats{ByStatus: map[string]int{}, ByPriority: map[string]int{}, ByType: map[string]int{}}
	for _, c := range m.contacts {
		stats.Total++
		if !c.IsRead {
			stats.Unread++
		}
		stats.ByStatus[c.Status]++
		stats.ByPriority[c.Priority]++
		stats.ByType[c.Type]++
	}
	return stats, nil
}

func (m *memContactStore) CountOverdueFollowUps(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.contacts {
		if c.IsFollowUpOverdue(now) {
			n++
		}
	}
	return n, nil
}

func (m *memContactStore) CountUnread(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.contacts {
		if !c.IsRead {
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures every notification call for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	welcomes []string
	resets   []string
	received []string
	replies  []string
}

func (r *recordingNotifier) Welcome(email, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.welcomes = append(r.welcomes, email)
}

func (r *recordingNotifier) PasswordReset(email, name, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, token)
}

func (r *recordingNotifier) ContactReceived(name, email, subject, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, email)
}

func (r *recordingNotifier) ContactReply(name, email, subject, reply string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, email)
}
