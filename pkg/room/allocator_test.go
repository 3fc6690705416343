package room_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/teslashibe/rtvi-console/pkg/daily"
	"github.com/teslashibe/rtvi-console/pkg/room"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAllocator(m *daily.Mock) *room.Allocator {
	return room.NewAllocator(m,
		room.WithLogger(quietLogger()),
		room.WithNameGenerator(func() string { return "fresh" }),
	)
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("reuses first idle room in provider order", func(t *testing.T) {
		m := daily.NewMock()
		m.AddRoom("busy", 2)
		m.AddRoom("idle-a", 0)
		m.AddRoom("idle-b", 0)

		r, err := newAllocator(m).Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if r.Name != "idle-a" {
			t.Errorf("Acquire() = %q, want idle-a", r.Name)
		}
		if m.CallCount("CreateRoom") != 0 {
			t.Error("Acquire() created a room although one was idle")
		}
		if got := m.CallCount("Presence"); got != 2 {
			t.Errorf("Presence calls = %d, want 2", got)
		}
	})

	t.Run("empty pool creates a room", func(t *testing.T) {
		m := daily.NewMock()

		r, err := newAllocator(m).Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if r.Name != "fresh" || r.URL != daily.MockURLPrefix+"fresh" {
			t.Errorf("Acquire() = %+v", r)
		}
		if m.CallCount("CreateRoom") != 1 {
			t.Errorf("CreateRoom calls = %d, want 1", m.CallCount("CreateRoom"))
		}
	})

	t.Run("all occupied creates a room", func(t *testing.T) {
		m := daily.NewMock()
		m.AddRoom("a", 1)
		m.AddRoom("b", 3)

		r, err := newAllocator(m).Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if r.Name != "fresh" {
			t.Errorf("Acquire() = %q, want fresh", r.Name)
		}
	})

	t.Run("list failure falls back to create", func(t *testing.T) {
		m := daily.NewMock()
		m.AddRoom("idle", 0)
		m.ListRoomsFunc = func(ctx context.Context) ([]room.Room, error) {
			return nil, errors.New("boom")
		}

		r, err := newAllocator(m).Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if r.Name != "fresh" {
			t.Errorf("Acquire() = %q, want fresh", r.Name)
		}
	})

	t.Run("presence failure counts as occupied", func(t *testing.T) {
		m := daily.NewMock()
		m.AddRoom("flaky", 0)
		m.AddRoom("idle", 0)
		m.PresenceFunc = func(ctx context.Context, name string) (int, error) {
			if name == "flaky" {
				return 0, errors.New("timeout")
			}
			return 0, nil
		}

		r, err := newAllocator(m).Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if r.Name != "idle" {
			t.Errorf("Acquire() = %q, want idle", r.Name)
		}
	})

	t.Run("create failure is an allocation error", func(t *testing.T) {
		m := daily.NewMock()
		m.CreateRoomFunc = func(ctx context.Context, name string) (room.Room, error) {
			return room.Room{}, &daily.APIError{StatusCode: 500, Message: "down"}
		}

		_, err := newAllocator(m).Acquire(ctx)
		if !errors.Is(err, room.ErrAllocation) {
			t.Fatalf("Acquire() error = %v, want ErrAllocation", err)
		}
		var apiErr *daily.APIError
		if !errors.As(err, &apiErr) {
			t.Error("Acquire() error does not wrap the provider error")
		}
	})

	t.Run("create without url is an allocation error", func(t *testing.T) {
		m := daily.NewMock()
		m.CreateRoomFunc = func(ctx context.Context, name string) (room.Room, error) {
			return room.Room{Name: name}, nil
		}

		if _, err := newAllocator(m).Acquire(ctx); !errors.Is(err, room.ErrAllocation) {
			t.Fatalf("Acquire() error = %v, want ErrAllocation", err)
		}
	})

	t.Run("never returns an occupied room", func(t *testing.T) {
		m := daily.NewMock()
		for _, name := range []string{"r1", "r2", "r3", "r4"} {
			m.AddRoom(name, 1)
		}
		alloc := newAllocator(m)

		for i := 0; i < 3; i++ {
			r, err := alloc.Acquire(ctx)
			if err != nil {
				t.Fatalf("Acquire() error = %v", err)
			}
			if !alloc.IsAvailable(ctx, r) {
				t.Fatalf("Acquire() returned occupied room %q", r.Name)
			}
			m.SetOccupants(r.Name, 1)
		}
	})

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		m := daily.NewMock()
		m.AddRoom("a", 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newAllocator(m).Acquire(cctx)
		if !errors.Is(err, room.ErrAllocation) || !errors.Is(err, context.Canceled) {
			t.Fatalf("Acquire() error = %v, want ErrAllocation wrapping context.Canceled", err)
		}
	})
}

func TestIsAvailable(t *testing.T) {
	m := daily.NewMock()
	empty := m.AddRoom("empty", 0)
	full := m.AddRoom("full", 4)
	alloc := newAllocator(m)

	if !alloc.IsAvailable(context.Background(), empty) {
		t.Error("IsAvailable(empty) = false")
	}
	if alloc.IsAvailable(context.Background(), full) {
		t.Error("IsAvailable(full) = true")
	}
}
