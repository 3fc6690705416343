package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

func sampleSettings(voice string) *callconfig.CallSettings {
	return &callconfig.CallSettings{
		Config: callconfig.SessionConfig{
			callconfig.NewServiceConfig(callconfig.ServiceTTS,
				callconfig.Opt("provider", callconfig.String("cartesia")),
				callconfig.Opt("voice", callconfig.String(voice)),
			),
		},
		Services: callconfig.ServicesMapping{LLM: "openai", TTS: "cartesia", STT: "deepgram"},
	}
}

// exerciseStore runs the behaviour every driver shares.
func exerciseStore(t *testing.T, s Store, client string) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, client)
	if err != nil {
		t.Fatalf("Get() on empty store error = %v", err)
	}
	if got != nil {
		t.Fatalf("Get() on empty store = %+v, want nil", got)
	}

	want := sampleSettings("v1")
	if err := s.Put(ctx, client, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err = s.Get(ctx, client)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || !got.Config.Equal(want.Config) || got.Services != want.Services {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}

	if err := s.Put(ctx, client, sampleSettings("v2")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _ = s.Get(ctx, client)
	if v, _ := got.Config[0].LookupString("voice"); v != "v2" {
		t.Errorf("voice after overwrite = %q, want v2", v)
	}

	if err := s.Put(ctx, client, nil); !errors.Is(err, ErrNilSettings) {
		t.Errorf("Put(nil) error = %v, want ErrNilSettings", err)
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		typ     StoreType
		opts    []StoreOption
		wantErr error
	}{
		{"memory", StoreTypeMemory, nil, nil},
		{"empty defaults to memory", "", nil, nil},
		{"redis without client", StoreTypeRedis, nil, ErrInvalidConfig},
		{"redis", StoreTypeRedis, []StoreOption{WithRedisClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}))}, nil},
		{"remote without url", StoreTypeRemote, nil, ErrInvalidConfig},
		{"remote", StoreTypeRemote, []StoreOption{WithRemoteURL("http://backend")}, nil},
		{"unknown", "etcd", nil, ErrInvalidStoreType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(tt.typ, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewStore() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				s.Close()
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	t.Run("global", func(t *testing.T) {
		exerciseStore(t, NewMemoryStore(), "")
	})
	t.Run("client", func(t *testing.T) {
		exerciseStore(t, NewMemoryStore(), "client-7")
	})

	t.Run("clients are isolated", func(t *testing.T) {
		s := NewMemoryStore()
		ctx := context.Background()
		s.Put(ctx, "a", sampleSettings("va"))

		if got, _ := s.Get(ctx, "b"); got != nil {
			t.Errorf("Get(b) = %+v, want nil", got)
		}
		if got, _ := s.Get(ctx, ""); got != nil {
			t.Errorf("Get(global) = %+v, want nil", got)
		}
	})

	t.Run("client ids never reach the global record", func(t *testing.T) {
		s := NewMemoryStore()
		ctx := context.Background()
		s.Put(ctx, "", sampleSettings("global"))

		for _, id := range []string{"_default", globalKey} {
			if got, _ := s.Get(ctx, id); got != nil {
				t.Errorf("Get(%q) = %+v, want nil", id, got)
			}
		}

		s.Put(ctx, "global", sampleSettings("named"))
		got, _ := s.Get(ctx, "")
		if v, _ := got.Config[0].LookupString("voice"); v != "global" {
			t.Errorf("global voice = %q after writing client %q", v, "global")
		}
	})

	t.Run("no aliasing", func(t *testing.T) {
		s := NewMemoryStore()
		ctx := context.Background()
		in := sampleSettings("v1")
		s.Put(ctx, "", in)
		in.Config[0].Options[1].Value = callconfig.String("mutated")

		got, _ := s.Get(ctx, "")
		if v, _ := got.Config[0].LookupString("voice"); v != "v1" {
			t.Errorf("stored voice = %q, want v1", v)
		}
	})
}

// fakeBackend serves the settings collection the way the voice backend does.
type fakeBackend struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := r.URL.Path
	switch r.Method {
	case http.MethodGet:
		doc, ok := b.docs[key]
		if !ok {
			w.Write([]byte(`{}`))
			return
		}
		w.Write(doc)
	case http.MethodPut:
		var doc json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.docs[key] = doc
		w.Write([]byte(`{"ok":true}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRemoteStore(t *testing.T) {
	backend := &fakeBackend{docs: make(map[string]json.RawMessage)}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	t.Run("global", func(t *testing.T) {
		exerciseStore(t, NewRemoteStore(srv.URL, nil, nil), "")
	})
	t.Run("client", func(t *testing.T) {
		exerciseStore(t, NewRemoteStore(srv.URL, nil, nil), "client-7")
	})

	t.Run("paths", func(t *testing.T) {
		backend.mu.Lock()
		_, global := backend.docs["/twilio/call-settings"]
		_, client := backend.docs["/twilio/call-settings/client-7"]
		backend.mu.Unlock()
		if !global || !client {
			t.Errorf("backend docs = %v", backend.docs)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer bad.Close()

		_, err := NewRemoteStore(bad.URL, nil, nil).Get(context.Background(), "")
		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) || remoteErr.StatusCode != 500 {
			t.Errorf("Get() error = %v, want *RemoteError 500", err)
		}
	})
}

func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	prefix := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})

	s, err := NewStore(StoreTypeRedis, WithRedisClient(client), WithKeyPrefix(prefix))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	exerciseStore(t, s, "")
	exerciseStore(t, s, "client-7")

	ctx := context.Background()
	if n, _ := client.Exists(ctx, prefix+"client:client-7", prefix+"global").Result(); n != 2 {
		t.Errorf("expected client and global keys under %s, found %d", prefix, n)
	}
	if got, _ := s.Get(ctx, globalKey); got != nil {
		t.Errorf("Get(%q) = %+v, want nil", globalKey, got)
	}
}
