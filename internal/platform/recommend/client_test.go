package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr)
}

func TestClient_Disabled(t *testing.T) {
	c := NewClient("", "", "", testLogger())
	if c.Enabled() {
		t.Error("expected client without api key to be disabled")
	}
	text, err := c.Recommend(context.Background(), "Cardiology", "chest pain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty recommendation, got %q", text)
	}
}

func TestClient_Recommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key query param, got %q", r.URL.Query().Get("key"))
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) == 0 || !strings.Contains(req.Contents[0].Parts[0].Text, "Cardiology") {
			t.Error("expected specialization in prompt")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "Bring previous ECG reports. "}},
				}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "test-key", testLogger())
	text, err := c.Recommend(context.Background(), "Cardiology", "chest pain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Bring previous ECG reports." {
		t.Errorf("unexpected recommendation: %q", text)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "test-key", testLogger())
	if _, err := c.Recommend(context.Background(), "Dermatology", ""); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestClient_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "test-key", testLogger())
	if _, err := c.Recommend(context.Background(), "Neurology", ""); err == nil {
		t.Error("expected error for empty candidates")
	}
}
