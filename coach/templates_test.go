package coach_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/core/protocol"
)

func TestFillTemplate(t *testing.T) {
	tests := []struct {
		typ      string
		sections string
		label    string
		template string
	}{
		{"epic", "all 19 sections", "EPIC CONTEXT", "1. EPIC NAME"},
		{"feature", "all 10 sections", "FEATURE CONTEXT", "1. FEATURE NAME"},
		{"story", "all 8 sections", "STORY CONTEXT", "1. STORY TITLE"},
		{"user_story", "all 8 sections", "STORY CONTEXT", "1. STORY TITLE"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			f := newFixture(t)
			f.gen.reply = "filled"

			resp, err := f.coach.FillTemplate(context.Background(), coach.FillTemplateRequest{
				Type: tt.typ,
				ConversationHistory: []protocol.Turn{
					{Role: protocol.RoleUser, Content: "We need faster onboarding"},
					{Role: protocol.RoleAssistant, Content: "Who are the users?"},
				},
				ActiveEpic: "Onboarding epic",
			})
			if err != nil {
				t.Fatalf("FillTemplate() error = %v", err)
			}
			if resp.Content != "filled" {
				t.Errorf("got content %q", resp.Content)
			}

			call := f.gen.last(t)
			if call.req.Timeout != 240*time.Second {
				t.Errorf("got timeout %v, want 240s", call.req.Timeout)
			}
			if len(call.turns) != 1 || call.turns[0].Role != protocol.RoleUser {
				t.Fatalf("got turns %+v, want a single user turn", call.turns)
			}

			text := call.turns[0].Content
			for _, want := range []string{
				tt.sections,
				tt.label,
				tt.template,
				"USER: We need faster onboarding\n\nASSISTANT: Who are the users?",
				"Active Epic: Onboarding epic",
				"Active Feature: None",
			} {
				if !strings.Contains(text, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
		})
	}
}

func TestFillTemplate_UsesLastTwentyTurnsOfSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var id string
	for i := range 11 {
		f.gen.reply = "reply"
		resp, err := f.coach.Chat(ctx, coach.ChatRequest{SessionID: id, Message: "message " + string(rune('a'+i))})
		if err != nil {
			t.Fatal(err)
		}
		id = resp.SessionID
	}

	f.gen.reply = "1. EPIC NAME\nfilled"
	if _, err := f.coach.FillTemplate(ctx, coach.FillTemplateRequest{SessionID: id, Type: "epic"}); err != nil {
		t.Fatalf("FillTemplate() error = %v", err)
	}

	text := f.gen.last(t).turns[0].Content
	if strings.Contains(text, "message a") {
		t.Error("prompt includes the oldest turn, want only the last 20")
	}
	if !strings.Contains(text, "message b") || !strings.Contains(text, "message k") {
		t.Error("prompt missing recent turns")
	}

	out, _ := f.coach.Outline(ctx, id, "epic")
	if out.Content != "1. EPIC NAME\nfilled" {
		t.Errorf("got draft %q, want filled template", out.Content)
	}
}

func TestFillTemplate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, typ := range []string{"pi_objectives", "initiative"} {
		if _, err := f.coach.FillTemplate(ctx, coach.FillTemplateRequest{Type: typ}); !errors.Is(err, coach.ErrInvalidKind) {
			t.Errorf("type %q: got %v, want ErrInvalidKind", typ, err)
		}
	}

	if err := os.Remove(filepath.Join(f.cfg.Knowledge.Dir, "feature_template.txt")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.coach.FillTemplate(ctx, coach.FillTemplateRequest{Type: "feature"}); !errors.Is(err, coach.ErrTemplateMissing) {
		t.Errorf("got %v, want ErrTemplateMissing", err)
	}
	if f.gen.count() != 0 {
		t.Errorf("generator called %d times, want 0", f.gen.count())
	}
}

func TestExtractFeatures(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", 120)
	f.gen.reply = "Feature A " + long + "\n---FEATURE_SEPARATOR---\nFeature B " + long + "\n---FEATURE_SEPARATOR---\nshort"

	resp, err := f.coach.ExtractFeatures(context.Background(), coach.ExtractRequest{
		ActiveEpic: "Onboarding epic",
		ConversationHistory: []protocol.Turn{
			{Role: protocol.RoleUser, Content: "Propose features"},
			{Role: "agent", Content: "Feature 1, Feature 2"},
		},
	})
	if err != nil {
		t.Fatalf("ExtractFeatures() error = %v", err)
	}

	if resp.Kind != artifact.KindFeature {
		t.Errorf("got kind %q", resp.Kind)
	}
	if len(resp.Items) != 2 || !strings.HasPrefix(resp.Items[1], "Feature B") {
		t.Errorf("got items %q, want two features", resp.Items)
	}

	call := f.gen.last(t)
	if call.req.Timeout != 180*time.Second {
		t.Errorf("got timeout %v, want 180s", call.req.Timeout)
	}
	text := call.turns[0].Content
	for _, want := range []string{
		"Active Epic:\nOnboarding epic",
		"User: Propose features\n\nCoach: Feature 1, Feature 2",
		"1. FEATURE NAME",
		artifact.FeatureSeparator,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestExtractStories(t *testing.T) {
	f := newFixture(t)
	f.gen.reply = "nothing useful"

	resp, err := f.coach.ExtractStories(context.Background(), coach.ExtractRequest{ActiveEpic: "SSO feature"})
	if err != nil {
		t.Fatalf("ExtractStories() error = %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Errorf("got items %#v, want empty non-nil", resp.Items)
	}

	text := f.gen.last(t).turns[0].Content
	for _, want := range []string{"Active Feature:\nSSO feature", artifact.StorySeparator, "1. STORY TITLE"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
