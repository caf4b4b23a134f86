package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ContactTypes      = []string{"Demande d'information", "Devis", "Réservation", "Réclamation", "Autre"}
	ContactPriorities = []string{"Faible", "Normale", "Élevée", "Urgente"}
	ContactStatuses   = []string{"Nouveau", "En cours", "Répondu", "Fermé"}
	ContactSources    = []string{"Site web", "Email", "Téléphone", "Réseaux sociaux", "Autre"}
)

const (
	ContactTypeDefault     = "Demande d'information"
	ContactPriorityDefault = "Normale"
	ContactStatusNew       = "Nouveau"
	ContactStatusInProgress = "En cours"
	ContactSourceDefault   = "Site web"
)

func ValidContactType(s string) bool     { return contains(ContactTypes, s) }
func ValidContactPriority(s string) bool { return contains(ContactPriorities, s) }
func ValidContactStatus(s string) bool   { return contains(ContactStatuses, s) }
func ValidContactSource(s string) bool   { return contains(ContactSources, s) }

type ContactResponse struct {
	Message    string             `bson:"message" json:"message"`
	SentBy     primitive.ObjectID `bson:"sent_by" json:"sentBy"`
	SentAt     time.Time          `bson:"sent_at" json:"sentAt"`
	IsInternal bool               `bson:"is_internal" json:"isInternal"`
}

type Contact struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject      string             `bson:"subject" json:"subject"`
	Message      string             `bson:"message" json:"message"`
	Company      string             `bson:"company,omitempty" json:"company,omitempty"`
	Type         string             `bson:"type" json:"type"`
	Priority     string             `bson:"priority" json:"priority"`
	Status       string             `bson:"status" json:"status"`
	Source       string             `bson:"source" json:"source"`
	IPAddress    string             `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
	UserAgent    string             `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	AssignedTo   primitive.ObjectID `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	Responses    []ContactResponse  `bson:"responses" json:"responses"`
	Tags         []string           `bson:"tags" json:"tags"`
	IsRead       bool               `bson:"is_read" json:"isRead"`
	ReadAt       *time.Time         `bson:"read_at,omitempty" json:"readAt,omitempty"`
	ReadBy       primitive.ObjectID `bson:"read_by,omitempty" json:"readBy,omitempty"`
	FollowUpDate *time.Time         `bson:"follow_up_date,omitempty" json:"followUpDate,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MarkRead flags the contact as read by actor. Already-read contacts keep
// their original reader; the call is then a no-op and returns false.
func (c *Contact) MarkRead(actor primitive.ObjectID) bool {
	if c.IsRead {
		return false
	}
	now := time.Now()
	c.IsRead = true
	c.ReadAt = &now
	c.ReadBy = actor
	return true
}

// AddResponse appends a response. The first non-internal response moves a
// "Nouveau" contact to "En cours"; later responses never change the status
// automatically. Returns whether the status changed.
func (c *Contact) AddResponse(message string, actor primitive.ObjectID, isInternal bool) bool {
	c.Responses = append(c.Responses, ContactResponse{
		Message:    message,
		SentBy:     actor,
		SentAt:     time.Now(),
		IsInternal: isInternal,
	})
	if !isInternal && c.Status == ContactStatusNew {
		c.Status = ContactStatusInProgress
		return true
	}
	return false
}

func (c *Contact) AssignTo(userID primitive.ObjectID) {
	c.AssignedTo = userID
}

func (c *Contact) SetStatus(status string) {
	c.Status = status
}

// AddTags adds each tag at most once.
func (c *Contact) AddTags(tags []string) {
	for _, tag := range tags {
		if !contains(c.Tags, tag) {
			c.Tags = append(c.Tags, tag)
		}
	}
}

// RemoveTags drops every listed tag.
func (c *Contact) RemoveTags(tags []string) {
	kept := c.Tags[:0]
	for _, tag := range c.Tags {
		if !contains(tags, tag) {
			kept = append(kept, tag)
		}
	}
	c.Tags = kept
}

func (c *Contact) ScheduleFollowUp(date time.Time) {
	c.FollowUpDate = &date
}

func (c *Contact) HasResponses() bool {
	return len(c.Responses) > 0
}

func (c *Contact) IsFollowUpOverdue(asOf time.Time) bool {
	return c.FollowUpDate != nil && asOf.After(*c.FollowUpDate)
}

// MarshalJSON adds the derived attributes the API exposes alongside the
// stored fields.
func (c Contact) MarshalJSON() ([]byte, error) {
	type alias Contact
	return json.Marshal(struct {
		alias
		HasResponses      bool `json:"hasResponses"`
		IsFollowUpOverdue bool `json:"isFollowUpOverdue"`
	}{
		alias:             alias(c),
		HasResponses:      c.HasResponses(),
		IsFollowUpOverdue: c.IsFollowUpOverdue(time.Now()),
	})
}
