package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)
	return r
}

func TestListCharacters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/characters", nil)
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Default    string            `json:"default"`
		Characters []persona.Persona `json:"characters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Default != "panther" {
		t.Fatalf("unexpected default %s", body.Default)
	}
	if len(body.Characters) != 3 {
		t.Fatalf("expected 3 characters, got %d", len(body.Characters))
	}
}

func TestGetCharacter(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/characters/inspector", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/characters/clouseau", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
