package httpc

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientTimeout(t *testing.T) {
	if got := NewClient(0).Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
	if got := NewClient(2 * time.Second).Timeout; got != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", got)
	}
}

func TestNewBearerClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	t.Run("sets bearer header", func(t *testing.T) {
		resp, err := NewBearerClient("secret", time.Second).Get(srv.URL)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
	})

	t.Run("empty token sends nothing", func(t *testing.T) {
		resp, err := NewBearerClient("", time.Second).Get(srv.URL)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if auth != "" {
			t.Errorf("Authorization = %q, want empty", auth)
		}
	})
}
