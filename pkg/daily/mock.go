package daily

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/teslashibe/rtvi-console/pkg/room"
	"github.com/teslashibe/rtvi-console/pkg/token"
)

// MockURLPrefix prefixes the URL of rooms created by the mock.
const MockURLPrefix = "https://mock.daily.co/"

// Mock implements room.Provider and token.Provider in memory for tests.
// Every method can be overridden through its function field; the defaults
// operate on an internal room pool.
type Mock struct {
	ListRoomsFunc   func(ctx context.Context) ([]room.Room, error)
	PresenceFunc    func(ctx context.Context, name string) (int, error)
	CreateRoomFunc  func(ctx context.Context, name string) (room.Room, error)
	CreateTokenFunc func(ctx context.Context, props token.Properties) (string, error)

	mu        sync.Mutex
	rooms     []room.Room
	occupants map[string]int
	calls     []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Arg    string
	Props  token.Properties
	Time   time.Time
}

// NewMock creates a mock with an empty room pool.
func NewMock() *Mock {
	m := &Mock{occupants: make(map[string]int)}
	m.ListRoomsFunc = func(ctx context.Context) ([]room.Room, error) {
		return m.Rooms(), nil
	}
	m.PresenceFunc = func(ctx context.Context, name string) (int, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.occupants[name], nil
	}
	m.CreateRoomFunc = func(ctx context.Context, name string) (room.Room, error) {
		return m.AddRoom(name, 0), nil
	}
	m.CreateTokenFunc = func(ctx context.Context, props token.Properties) (string, error) {
		return "token-" + props.RoomName, nil
	}
	return m
}

// AddRoom puts a room with the given occupant count into the pool.
func (m *Mock) AddRoom(name string, occupants int) room.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := room.Room{Name: name, URL: MockURLPrefix + name}
	m.rooms = append(m.rooms, r)
	m.occupants[name] = occupants
	return r
}

// SetOccupants changes the occupant count of a room.
func (m *Mock) SetOccupants(name string, occupants int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupants[name] = occupants
}

// Rooms returns a copy of the pool.
func (m *Mock) Rooms() []room.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rooms)
}

// ListRooms calls ListRoomsFunc and records the call.
func (m *Mock) ListRooms(ctx context.Context) ([]room.Room, error) {
	m.record(MockCall{Method: "ListRooms"})
	return m.ListRoomsFunc(ctx)
}

// Presence calls PresenceFunc and records the call.
func (m *Mock) Presence(ctx context.Context, name string) (int, error) {
	m.record(MockCall{Method: "Presence", Arg: name})
	return m.PresenceFunc(ctx, name)
}

// CreateRoom calls CreateRoomFunc and records the call.
func (m *Mock) CreateRoom(ctx context.Context, name string) (room.Room, error) {
	m.record(MockCall{Method: "CreateRoom", Arg: name})
	return m.CreateRoomFunc(ctx, name)
}

// CreateMeetingToken calls CreateTokenFunc and records the call.
func (m *Mock) CreateMeetingToken(ctx context.Context, props token.Properties) (string, error) {
	m.record(MockCall{Method: "CreateMeetingToken", Arg: props.RoomName, Props: props})
	return m.CreateTokenFunc(ctx, props)
}

func (m *Mock) record(call MockCall) {
	call.Time = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns the number of calls to a method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var (
	_ room.Provider  = (*Mock)(nil)
	_ token.Provider = (*Mock)(nil)
)
