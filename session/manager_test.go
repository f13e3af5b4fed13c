package session_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/session"
)

func TestManager_Resolve(t *testing.T) {
	m := session.NewManager()

	created, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\") error = %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("got %d sessions, want 1", m.Len())
	}

	got, err := m.Resolve(created.ID())
	if err != nil {
		t.Fatalf("Resolve(id) error = %v", err)
	}
	if got != created {
		t.Error("Resolve(id) returned a different session")
	}

	if _, err := m.Resolve("unknown"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Resolve(unknown) error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Delete(t *testing.T) {
	m := session.NewManager()
	s := m.Create()

	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Delete(s.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_Restore(t *testing.T) {
	m := session.NewManager()
	original := session.NewMemorySession()
	original.Append(protocol.Exchange("draft an epic", "EPIC NAME: Billing")...)
	original.SetDraft(artifact.NewDraft(artifact.KindEpic, "EPIC NAME: Billing"))

	restored := m.Restore(original.Record())

	if restored.ID() != original.ID() {
		t.Errorf("got ID %q, want %q", restored.ID(), original.ID())
	}
	if len(restored.History()) != 2 {
		t.Errorf("got %d turns, want 2", len(restored.History()))
	}
	if _, ok := restored.Draft(artifact.KindEpic); !ok {
		t.Error("epic draft was not restored")
	}
	if got, err := m.Get(original.ID()); err != nil || got != restored {
		t.Errorf("restored session not registered: %v", err)
	}
}

func TestManager_Restore_LegacyRecord(t *testing.T) {
	m := session.NewManager()
	rec := session.Record{
		ConversationHistory: []protocol.Turn{
			{Role: "user", Content: "hi"},
			{Role: "agent", Content: "hello"},
			{Role: "tool", Content: "dropped"},
		},
		ActiveEpic:    "EPIC NAME: Legacy",
		ActiveFeature: "FEATURE NAME: Old",
	}

	s := m.Restore(rec)

	if s.ID() == "" {
		t.Error("restored session should be assigned an ID")
	}
	history := s.History()
	if len(history) != 2 {
		t.Fatalf("got %d turns, want 2", len(history))
	}
	if history[1].Role != protocol.RoleAssistant {
		t.Errorf("agent role mapped to %q, want %q", history[1].Role, protocol.RoleAssistant)
	}
	if d, ok := s.Draft(artifact.KindFeature); !ok || d.Content != "FEATURE NAME: Old" {
		t.Errorf("feature draft = %+v, %v", d, ok)
	}
}
