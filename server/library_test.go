package server_test

import (
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/tailored-agentic-units/coach/coach"
)

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t, nil)

	_, body := f.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "hello", "activeEpic": "Onboarding"})
	id := body["sessionId"].(string)

	w, body := f.do(t, http.MethodPost, "/api/session/save", map[string]any{"sessionId": id, "name": "first"})
	expectStatus(t, w, http.StatusOK)
	if body["filename"] != "first.json" {
		t.Fatalf("got %v", body)
	}
	for _, name := range []string{"second", "third"} {
		f.do(t, http.MethodPost, "/api/session/save", map[string]any{"name": name})
	}

	w, body = f.do(t, http.MethodGet, "/api/session/list", nil)
	expectStatus(t, w, http.StatusOK)
	if sessions, _ := body["sessions"].([]any); len(sessions) != 3 {
		t.Fatalf("got sessions %v, want 3", body["sessions"])
	}

	w, body = f.do(t, http.MethodPost, "/api/session/end", map[string]any{"sessionId": id})
	expectStatus(t, w, http.StatusOK)

	w, body = f.do(t, http.MethodPost, "/api/session/load", map[string]any{"filename": "first.json"})
	expectStatus(t, w, http.StatusOK)
	if body["sessionId"] != id {
		t.Errorf("got sessionId %v, want %s", body["sessionId"], id)
	}
	rec, _ := body["session"].(map[string]any)
	if rec["activeEpic"] != "Onboarding" {
		t.Errorf("got session %v", rec)
	}
	if body["epicTemplate"] != nil {
		t.Errorf("got epicTemplate %v, want null", body["epicTemplate"])
	}

	w, body = f.do(t, http.MethodDelete, "/api/session/first.json", nil)
	expectStatus(t, w, http.StatusOK)
	w, _ = f.do(t, http.MethodDelete, "/api/session/first.json", nil)
	expectStatus(t, w, http.StatusNotFound)

	w, body = f.do(t, http.MethodPost, "/api/session/delete", map[string]any{
		"filenames": []string{"second.json", "missing.json"},
	})
	expectStatus(t, w, http.StatusOK)
	if body["success"] != true || body["message"] != "Deleted 1 session(s), 1 error(s)" {
		t.Errorf("got %v", body)
	}

	w, body = f.do(t, http.MethodPost, "/api/session/delete", map[string]any{"filenames": []string{"missing.json"}})
	expectStatus(t, w, http.StatusOK)
	if body["success"] != false || body["message"] != "No sessions were deleted" {
		t.Errorf("got %v", body)
	}

	entries, err := os.ReadDir(f.cfg.Session.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d session files, want 1", len(entries))
	}
}

func TestTemplateRoutes(t *testing.T) {
	f := newFixture(t, nil)

	w, body := f.do(t, http.MethodPost, "/api/template/save", map[string]any{
		"template_type":             "epic",
		"name":                      "Onboarding",
		"content":                   "EPIC NAME: Onboarding",
		"tags":                      []string{"growth"},
		"epic_hypothesis_statement": "For new customers...",
	})
	expectStatus(t, w, http.StatusOK)
	id := int64(body["template_id"].(float64))

	saved, _ := body["template"].(map[string]any)
	meta, _ := saved["metadata"].(map[string]any)
	if meta["epic_hypothesis_statement"] != "For new customers..." {
		t.Errorf("got metadata %v", saved["metadata"])
	}

	w, body = f.do(t, http.MethodPost, "/api/template/save", map[string]any{
		"template_type": "user_story",
		"name":          "Sign up",
		"content":       "As a visitor...",
		"epic_id":       id,
	})
	expectStatus(t, w, http.StatusOK)

	w, body = f.do(t, http.MethodGet, "/api/template/list/epic?search=Onboard", nil)
	expectStatus(t, w, http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("got %v, want one epic", body)
	}

	w, body = f.do(t, http.MethodGet, "/api/template/list/user_story", nil)
	expectStatus(t, w, http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("got %v, want one story", body)
	}

	w, _ = f.do(t, http.MethodPost, "/api/template/load", map[string]any{"template_id": id, "template_type": "feature"})
	expectStatus(t, w, http.StatusNotFound)

	w, body = f.do(t, http.MethodPost, "/api/template/update", map[string]any{"template_id": id, "content": "EPIC NAME: Onboarding v2"})
	expectStatus(t, w, http.StatusOK)

	w, body = f.do(t, http.MethodPost, "/api/template/load", map[string]any{"template_id": id, "template_type": "epic"})
	expectStatus(t, w, http.StatusOK)
	loaded, _ := body["template"].(map[string]any)
	if loaded["content"] != "EPIC NAME: Onboarding v2" || loaded["name"] != "Onboarding" {
		t.Errorf("got template %v", loaded)
	}
	if tags, _ := loaded["tags"].([]any); len(tags) != 1 {
		t.Errorf("got tags %v, want preserved", loaded["tags"])
	}

	w, body = f.do(t, http.MethodPost, "/api/template/export", map[string]any{"template_type": "epic", "export_all": true})
	expectStatus(t, w, http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("got %v", body)
	}

	w, _ = f.do(t, http.MethodPost, "/api/template/export", map[string]any{"template_type": "epic"})
	expectStatus(t, w, http.StatusBadRequest)

	w, _ = f.do(t, http.MethodPost, "/api/template/delete", map[string]any{"template_id": id, "template_type": "epic"})
	expectStatus(t, w, http.StatusOK)

	w, _ = f.do(t, http.MethodPost, "/api/template/load", map[string]any{"template_id": id, "template_type": "epic"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestTemplateRoutes_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{"unknown type", "/api/template/save", map[string]any{"template_type": "initiative", "name": "x", "content": "y"}, http.StatusBadRequest},
		{"missing content", "/api/template/save", map[string]any{"template_type": "epic", "name": "x"}, http.StatusBadRequest},
		{"update without id", "/api/template/update", map[string]any{"content": "y"}, http.StatusBadRequest},
		{"update unknown id", "/api/template/update", map[string]any{"template_id": 99, "content": "y"}, http.StatusNotFound},
		{"delete unknown id", "/api/template/delete", map[string]any{"template_id": 99, "template_type": "epic"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			w, body := f.do(t, http.MethodPost, tt.path, tt.body)
			expectStatus(t, w, tt.want)
			if body["success"] != false {
				t.Errorf("got %v", body)
			}
		})
	}
}

func TestTemplateRoutes_LibraryDisabled(t *testing.T) {
	f := newFixture(t, func(cfg *coach.Config) { cfg.Library.Disabled = true })

	for _, path := range []string{"/api/template/list/epic", "/api/template/list/feature"} {
		t.Run(path, func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, path, nil)
			expectStatus(t, w, http.StatusServiceUnavailable)
			if msg := fmt.Sprint(body["error"]); msg == "" {
				t.Error("expected error message")
			}
		})
	}

	w, _ := f.do(t, http.MethodPost, "/api/template/save", map[string]any{"template_type": "epic", "name": "x", "content": "y"})
	expectStatus(t, w, http.StatusServiceUnavailable)
}
