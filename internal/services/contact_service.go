package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/httpx"
	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// ContactService owns the contact-request lifecycle: public intake and the
// staff-side triage operations.
type ContactService struct {
	contacts ContactStore
	notifier Notifier
}

func NewContactService(contacts ContactStore, notifier Notifier) *ContactService {
	return &ContactService{contacts: contacts, notifier: notifier}
}

type CreateContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Company string `json:"company"`
	Type    string `json:"type"`

	// Captured from the request, not the body.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

func (in CreateContactInput) validate() error {
	var errs fieldErrors
	if !lengthBetween(in.Name, 2, 100) {
		errs.add("name", "Le nom doit contenir entre 2 et 100 caractères")
	}
	if !models.ValidEmail(in.Email) {
		errs.add("email", "Veuillez entrer un email valide")
	}
	if !lengthBetween(in.Subject, 1, 200) {
		errs.add("subject", "Le sujet doit contenir entre 1 et 200 caractères")
	}
	if !lengthBetween(in.Message, 10, 2000) {
		errs.add("message", "Le message doit contenir entre 10 et 2000 caractères")
	}
	if in.Phone != "" && !models.ValidPhone(in.Phone) {
		errs.add("phone", "Veuillez entrer un numéro de téléphone valide")
	}
	if in.Company != "" && !lengthBetween(in.Company, 0, 100) {
		errs.add("company", "Le nom de l'entreprise ne peut pas dépasser 100 caractères")
	}
	if in.Type != "" && !models.ValidContactType(in.Type) {
		errs.add("type", "Type de demande invalide")
	}
	return errs.err()
}

// Create handles the public contact form. The staff notification email goes
// out only once the contact is durably stored, and cannot fail the request.
func (s *ContactService) Create(ctx context.Context, in CreateContactInput) (*models.Contact, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}

	contactType := in.Type
	if contactType == "" {
		contactType = models.ContactTypeDefault
	}
	contact := &models.Contact{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Subject:   in.Subject,
		Message:   in.Message,
		Company:   in.Company,
		Type:      contactType,
		Priority:  models.ContactPriorityDefault,
		Status:    models.ContactStatusNew,
		Source:    models.ContactSourceDefault,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Responses: []models.ContactResponse{},
		Tags:      []string{},
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, storeErr(err)
	}

	s.notifier.ContactReceived(contact.Name, contact.Email, contact.Subject, contact.Message)
	return contact, nil
}

type ListContactsInput struct {
	Status   string
	Priority string
	Type     string
	Page     int
	Limit    int
	Sort     string
}

func (s *ContactService) List(ctx context.Context, in ListContactsInput) ([]models.Contact, httpx.Pagination, repo.ContactStats, error) {
	var errs fieldErrors
	if in.Status != "" && !models.ValidContactStatus(in.Status) {
		errs.add("status", "Statut invalide")
	}
	if in.Priority != "" && !models.ValidContactPriority(in.Priority) {
		errs.add("priority", "Priorité invalide")
	}
	if in.Type != "" && !models.ValidContactType(in.Type) {
		errs.add("type", "Type de demande invalide")
	}
	if err := errs.err(); err != nil {
		return nil, httpx.Pagination{}, repo.ContactStats{}, err
	}

	page, limit := normalizePage(in.Page, in.Limit, 20, 100)
	contacts, total, err := s.contacts.List(ctx, repo.ContactFilter{
		Status:   in.Status,
		Priority: in.Priority,
		Type:     in.Type,
		Page:     page,
		Limit:    limit,
		Sort:     in.Sort,
	})
	if err != nil {
		return nil, httpx.Pagination{}, repo.ContactStats{}, storeErr(err)
	}

	stats, err := s.contacts.Stats(ctx)
	if err != nil {
		return nil, httpx.Pagination{}, repo.ContactStats{}, storeErr(err)
	}
	return contacts, httpx.NewPagination(page, limit, total), stats, nil
}

// Get returns one contact and marks it read on first view. Re-reading keeps
// the original reader and timestamp.
func (s *ContactService) Get(ctx context.Context, actor *models.User, id string) (*models.Contact, error) {
	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact.MarkRead(actor.ID) {
		if err := s.contacts.Update(ctx, contact); err != nil {
			return nil, storeErr(err)
		}
	}
	return contact, nil
}

func (s *ContactService) UpdateStatus(ctx context.Context, id, status string) (*models.Contact, error) {
	if !models.ValidContactStatus(status) {
		var errs fieldErrors
		errs.add("status", "Statut invalide")
		return nil, errs.err()
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.SetStatus(status)
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}
	return contact, nil
}

// AddResponse appends a staff response. Non-internal responses are emailed
// to the requester after the contact is persisted; the send is best-effort.
func (s *ContactService) AddResponse(ctx context.Context, actor *models.User, id, message string, isInternal bool) (*models.Contact, error) {
	if !lengthBetween(message, 1, 2000) {
		var errs fieldErrors
		errs.add("message", "Le message doit contenir entre 1 et 2000 caractères")
		return nil, errs.err()
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	contact.AddResponse(message, actor.ID, isInternal)
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}

	if !isInternal {
		s.notifier.ContactReply(contact.Name, contact.Email, contact.Subject, message)
	}
	return contact, nil
}

func (s *ContactService) Assign(ctx context.Context, id, assigneeID string) (*models.Contact, error) {
	userID, err := primitive.ObjectIDFromHex(assigneeID)
	if err != nil {
		var errs fieldErrors
		errs.add("assignedTo", "ID utilisateur invalide")
		return nil, errs.err()
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.AssignTo(userID)
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}
	return contact, nil
}

// UpdateTags adds or removes tags with set semantics.
func (s *ContactService) UpdateTags(ctx context.Context, id, action string, tags []string) (*models.Contact, error) {
	var errs fieldErrors
	if action != "add" && action != "remove" {
		errs.add("action", "Action invalide (add ou remove)")
	}
	if len(tags) == 0 {
		errs.add("tags", "Tags doit être un tableau non vide")
	}
	for _, tag := range tags {
		if !lengthBetween(tag, 1, 50) {
			errs.add("tags", "Chaque tag doit contenir entre 1 et 50 caractères")
			break
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if action == "add" {
		contact.AddTags(tags)
	} else {
		contact.RemoveTags(tags)
	}
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}
	return contact, nil
}

func (s *ContactService) ScheduleFollowUp(ctx context.Context, id string, date time.Time) (*models.Contact, error) {
	if date.IsZero() {
		var errs fieldErrors
		errs.add("followUpDate", "Date de suivi invalide")
		return nil, errs.err()
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.ScheduleFollowUp(date)
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}
	return contact, nil
}

type TriageInput struct {
	Priority *string `json:"priority"`
	Type     *string `json:"type"`
	Source   *string `json:"source"`
	Notes    *string `json:"notes"`
}

// UpdateTriage is the general PUT on a contact: priority, type, source and
// internal notes.
func (s *ContactService) UpdateTriage(ctx context.Context, id string, in TriageInput) (*models.Contact, error) {
	var errs fieldErrors
	if in.Priority != nil && !models.ValidContactPriority(*in.Priority) {
		errs.add("priority", "Priorité invalide")
	}
	if in.Type != nil && !models.ValidContactType(*in.Type) {
		errs.add("type", "Type de demande invalide")
	}
	if in.Source != nil && !models.ValidContactSource(*in.Source) {
		errs.add("source", "Source invalide")
	}
	if in.Notes != nil && !lengthBetween(*in.Notes, 0, 1000) {
		errs.add("notes", "Les notes ne peuvent pas dépasser 1000 caractères")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Priority != nil {
		contact.Priority = *in.Priority
	}
	if in.Type != nil {
		contact.Type = *in.Type
	}
	if in.Source != nil {
		contact.Source = *in.Source
	}
	if in.Notes != nil {
		contact.Notes = *in.Notes
	}
	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, storeErr(err)
	}
	return contact, nil
}

// StatsOverview bundles the aggregate stats with the overdue-follow-up and
// unread counters.
type ContactStatsOverview struct {
	repo.ContactStats
	OverdueFollowUps int64 `json:"overdueFollowUps"`
	UnreadContacts   int64 `json:"unreadContacts"`
}

func (s *ContactService) StatsOverview(ctx context.Context) (ContactStatsOverview, error) {
	stats, err := s.contacts.Stats(ctx)
	if err != nil {
		return ContactStatsOverview{}, storeErr(err)
	}
	overdue, err := s.contacts.CountOverdueFollowUps(ctx, time.Now())
	if err != nil {
		return ContactStatsOverview{}, storeErr(err)
	}
	unread, err := s.contacts.CountUnread(ctx)
	if err != nil {
		return ContactStatsOverview{}, storeErr(err)
	}
	return ContactStatsOverview{ContactStats: stats, OverdueFollowUps: overdue, UnreadContacts: unread}, nil
}

func (s *ContactService) Assigned(ctx context.Context, userID string) ([]models.Contact, error) {
	objID, err := parseObjectID(userID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.contacts.ByAssignee(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	return contacts, nil
}

func (s *ContactService) find(ctx context.Context, id string) (*models.Contact, error) {
	objID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	contact, err := s.contacts.FindByID(ctx, objID)
	if err != nil {
		return nil, storeErr(err)
	}
	if contact == nil {
		return nil, httpx.NewNotFoundError("Contact non trouvé")
	}
	return contact, nil
}
