// Package broadcast owns the live server-push connections watching
// instructor schedules. The hub is an explicit instance with start/stop
// lifecycle; nothing here is package-level state.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"booking-service/internal/model"

	"github.com/google/uuid"
)

type SnapshotVariant string

const (
	// VariantCombined streams the union of all three schedules, general
	// first, then lesson, then test.
	VariantCombined SnapshotVariant = "combined"
	// VariantLessons streams only the driving-lesson schedule.
	VariantLessons SnapshotVariant = "lessons"
)

// SnapshotSource recomputes the current schedule for one instructor.
type SnapshotSource interface {
	Snapshot(ctx context.Context, instructorID uuid.UUID, variant SnapshotVariant) ([]model.Slot, error)
}

// StreamMessage is the framed event sent to clients.
type StreamMessage struct {
	Type     string       `json:"type"`
	Schedule []model.Slot `json:"schedule,omitempty"`
	Message  string       `json:"message,omitempty"`
}

const (
	MessageInitial = "initial"
	MessageUpdate  = "update"
	MessageError   = "error"
)

// Connection is one live viewer. Messages arrive on C; the transport layer
// drains it and calls Unsubscribe when the client goes away.
type Connection struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Variant      SnapshotVariant

	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (c *Connection) C() <-chan []byte { return c.ch }

// Done is closed when the hub drops the connection, either on Unsubscribe or
// after a failed delivery.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) close() {
	c.once.Do(func() { close(c.done) })
}

type Hub struct {
	source       SnapshotSource
	refreshEvery time.Duration

	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection

	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup
}

// NewHub builds a hub whose connections also self-refresh every
// refreshEvery, independent of explicit broadcasts.
func NewHub(source SnapshotSource, refreshEvery time.Duration) *Hub {
	return &Hub{
		source:       source,
		refreshEvery: refreshEvery,
		conns:        make(map[uuid.UUID]*Connection),
		stopped:      make(chan struct{}),
	}
}

// Subscribe registers the connection before any data is sent, so a broadcast
// racing with setup is never missed. The caller should follow up with
// SendInitial for the first snapshot.
func (h *Hub) Subscribe(instructorID uuid.UUID, variant SnapshotVariant) *Connection {
	conn := &Connection{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Variant:      variant,
		ch:           make(chan []byte, 8),
		done:         make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()

	h.wg.Add(1)
	go h.refreshLoop(conn)

	return conn
}

func (h *Hub) Unsubscribe(connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	if ok {
		conn.close()
	}
}

// Broadcast pushes a fresh snapshot to every live viewer of the instructor.
// Delivery is per-connection best effort: a dead or slow connection is
// dropped, and never blocks delivery to the others. A snapshot failure is
// reported both in-band (error frames to the viewers) and to the caller, so
// feed consumers can retry.
func (h *Hub) Broadcast(instructorID uuid.UUID) error {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		if conn.InstructorID == instructorID {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	// One snapshot per variant, shared across connections.
	var snapshotErr error
	payloads := make(map[SnapshotVariant][]byte)
	for _, conn := range targets {
		payload, ok := payloads[conn.Variant]
		if !ok {
			var err error
			payload, err = h.buildPayload(conn.InstructorID, conn.Variant, MessageUpdate)
			if err != nil && snapshotErr == nil {
				snapshotErr = err
			}
			payloads[conn.Variant] = payload
		}
		h.push(conn, payload)
	}

	return snapshotErr
}

// SendInitial delivers the first snapshot to a just-subscribed connection.
func (h *Hub) SendInitial(conn *Connection) {
	payload, _ := h.buildPayload(conn.InstructorID, conn.Variant, MessageInitial)
	h.push(conn, payload)
}

// Stop drops every connection. In-flight refresh loops finish before Stop
// returns.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopped) })

	h.mu.Lock()
	for id, conn := range h.conns {
		delete(h.conns, id)
		conn.close()
	}
	h.mu.Unlock()

	h.wg.Wait()
}

// ConnectionCount reports live registrations, for health reporting and tests.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) refreshLoop(conn *Connection) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			payload, _ := h.buildPayload(conn.InstructorID, conn.Variant, MessageUpdate)
			h.push(conn, payload)
		case <-conn.done:
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) buildPayload(instructorID uuid.UUID, variant SnapshotVariant, msgType string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	schedule, err := h.source.Snapshot(ctx, instructorID, variant)
	if err != nil {
		slog.Error("Failed to build schedule snapshot",
			slog.String("instructor_id", instructorID.String()),
			slog.String("error", err.Error()))
		payload, _ := json.Marshal(StreamMessage{Type: MessageError, Message: "Error al obtener los horarios"})
		return payload, err
	}

	payload, _ := json.Marshal(StreamMessage{Type: msgType, Schedule: schedule})
	return payload, nil
}

// push never blocks: a connection whose buffer is full is treated as dead
// and removed, which is the self-heal path for clients that vanished.
func (h *Hub) push(conn *Connection, payload []byte) {
	select {
	case <-conn.done:
		return
	default:
	}

	select {
	case conn.ch <- payload:
	default:
		slog.Warn("Dropping unresponsive schedule stream connection",
			slog.String("connection_id", conn.ID.String()),
			slog.String("instructor_id", conn.InstructorID.String()))
		h.Unsubscribe(conn.ID)
	}
}
