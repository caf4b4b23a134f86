package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarkReadIsIdempotent(t *testing.T) {
	c := &Contact{}
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()

	if !c.MarkRead(first) {
		t.Fatal("expected the first read to mark the contact")
	}
	readAt := c.ReadAt

	if c.MarkRead(second) {
		t.Error("expected a second read to be a no-op")
	}
	if c.ReadBy != first {
		t.Error("expected the original reader to be kept")
	}
	if c.ReadAt != readAt {
		t.Error("expected the original read timestamp to be kept")
	}
}

func TestFirstResponseMovesNewToInProgress(t *testing.T) {
	c := &Contact{Status: ContactStatusNew}
	actor := primitive.NewObjectID()

	if !c.AddResponse("Bonjour, nous traitons votre demande.", actor, false) {
		t.Fatal("expected the first response to change the status")
	}
	if c.Status != ContactStatusInProgress {
		t.Errorf("expected status %q, got %q", ContactStatusInProgress, c.Status)
	}

	if c.AddResponse("Relance envoyée.", actor, false) {
		t.Error("expected the second response to leave the status alone")
	}
	if c.Status != ContactStatusInProgress {
		t.Errorf("status changed unexpectedly to %q", c.Status)
	}
	if len(c.Responses) != 2 {
		t.Errorf("expected 2 responses, got %d", len(c.Responses))
	}
}

func TestInternalResponseDoesNotChangeStatus(t *testing.T) {
	c := &Contact{Status: ContactStatusNew}

	if c.AddResponse("Note interne", primitive.NewObjectID(), true) {
		t.Error("expected an internal response to keep the status")
	}
	if c.Status != ContactStatusNew {
		t.Errorf("expected status %q, got %q", ContactStatusNew, c.Status)
	}
}

func TestAddTagsDeduplicates(t *testing.T) {
	c := &Contact{}
	c.AddTags([]string{"urgent", "urgent"})
	c.AddTags([]string{"urgent", "devis"})

	if len(c.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", c.Tags)
	}
	if c.Tags[0] != "urgent" || c.Tags[1] != "devis" {
		t.Errorf("unexpected tags %v", c.Tags)
	}
}

func TestRemoveTags(t *testing.T) {
	c := &Contact{Tags: []string{"urgent", "devis", "rappel"}}
	c.RemoveTags([]string{"devis", "absent"})

	if len(c.Tags) != 2 || c.Tags[0] != "urgent" || c.Tags[1] != "rappel" {
		t.Errorf("unexpected tags %v", c.Tags)
	}
}

func TestIsFollowUpOverdue(t *testing.T) {
	now := time.Now()
	c := &Contact{}

	if c.IsFollowUpOverdue(now) {
		t.Error("no follow-up date means never overdue")
	}

	c.ScheduleFollowUp(now.Add(time.Hour))
	if c.IsFollowUpOverdue(now) {
		t.Error("a future follow-up is not overdue")
	}

	c.ScheduleFollowUp(now.Add(-time.Hour))
	if !c.IsFollowUpOverdue(now) {
		t.Error("a past follow-up is overdue")
	}
}
