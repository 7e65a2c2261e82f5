package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/biosynth/config"
)

func TestSplice(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"persian words", "خورشید", "ماه", "خور" + ZWNJ + "اه"},
		{"odd lengths", "abc", "defg", "ab" + ZWNJ + "fg"},
		{"empty first", "", "ماه", "اه"},
		{"single runes", "a", "b", "a" + ZWNJ + "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Splice{}.Mutate(context.Background(), tt.a, tt.b)
			if err != nil {
				t.Fatalf("Mutate error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Mutate(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSpliceEmptyAndCancelled(t *testing.T) {
	if _, err := (Splice{}).Mutate(context.Background(), "", ""); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("empty inputs error = %v, want ErrEmptyResult", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Splice{}).Mutate(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v, want context.Canceled", err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  خورماه  ", "خورماه"},
		{"«خورماه»", "خورماه"},
		{"خورماه\nexplanation", "خورماه"},
		{"\"quoted\"", "quoted"},
	}
	for _, tt := range tests {
		got, err := clean(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("clean(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := clean("   \n"); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("clean(blank) error = %v, want ErrEmptyResult", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	var svc Service = Func(func(_ context.Context, a, b string) (string, error) {
		return a + b, nil
	})
	got, err := svc.Mutate(context.Background(), "x", "y")
	if err != nil || got != "xy" {
		t.Errorf("Mutate = %q, %v", got, err)
	}
}

func TestLimitedWaitsForToken(t *testing.T) {
	calls := 0
	next := Func(func(context.Context, string, string) (string, error) {
		calls++
		return "ok", nil
	})
	svc := NewLimited(next, 0.001, 1)

	if _, err := svc.Mutate(context.Background(), "a", "b"); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Mutate(ctx, "a", "b"); err == nil {
		t.Error("second call should fail waiting for a token")
	}
	if calls != 1 {
		t.Errorf("next called %d times, want 1", calls)
	}
}

func TestNewLimitedDisabled(t *testing.T) {
	next := Splice{}
	if svc := NewLimited(next, 0, 5); svc != Service(next) {
		t.Error("rps <= 0 should return the wrapped service unchanged")
	}
}

func TestFromConfigSplice(t *testing.T) {
	cfg := config.Default().Mutation
	cfg.Provider = "splice"
	cfg.RequestsPerSecond = 0

	svc, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig error: %v", err)
	}
	if _, ok := svc.(Splice); !ok {
		t.Errorf("service = %T, want Splice", svc)
	}
}

func TestFromConfigOpenAIWithoutKeyFallsBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default().Mutation
	cfg.Provider = "openai"
	cfg.OpenAI.APIKeyFile = ""
	cfg.RequestsPerSecond = 0

	svc, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig error: %v", err)
	}
	if _, ok := svc.(Splice); !ok {
		t.Errorf("service = %T, want Splice fallback", svc)
	}
}

func TestOpenAIMutate(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 1 {
			gotPrompt = req.Messages[1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"test",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":" «خورماه» \n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	svc, err := NewOpenAI(config.OpenAIConfig{Model: "test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI error: %v", err)
	}

	got, err := svc.Mutate(context.Background(), "خورشید", "ماه")
	if err != nil {
		t.Fatalf("Mutate error: %v", err)
	}
	if got != "خورماه" {
		t.Errorf("Mutate = %q, want خورماه", got)
	}
	if gotPrompt != "خورشید\nماه" {
		t.Errorf("user prompt = %q", gotPrompt)
	}
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	svc, err := NewOpenAI(config.OpenAIConfig{Model: "test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI error: %v", err)
	}
	if _, err := svc.Mutate(context.Background(), "a", "b"); err == nil {
		t.Error("expected error from failing server")
	}
}
