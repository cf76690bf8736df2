package api

import (
	"booking-service/internal/broadcast"
	"booking-service/internal/repository"
	"bufio"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// StreamHandler serves the long-lived schedule streams. Events are SSE
// frames, each carrying one JSON StreamMessage; the hub's 30-second refresh
// doubles as the heartbeat.
type StreamHandler struct {
	hub            *broadcast.Hub
	instructorRepo repository.InstructorRepository
}

func NewStreamHandler(hub *broadcast.Hub, instructorRepo repository.InstructorRepository) *StreamHandler {
	return &StreamHandler{hub: hub, instructorRepo: instructorRepo}
}

func (h *StreamHandler) StreamCombined(c *fiber.Ctx) error {
	return h.stream(c, broadcast.VariantCombined)
}

func (h *StreamHandler) StreamLessons(c *fiber.Ctx) error {
	return h.stream(c, broadcast.VariantLessons)
}

func (h *StreamHandler) stream(c *fiber.Ctx, variant broadcast.SnapshotVariant) error {
	instructorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instructor ID format"})
	}

	exists, err := h.instructorRepo.Exists(c.Context(), instructorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not open schedule stream"})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Register before sending anything so a broadcast racing with setup is
	// delivered rather than lost.
	conn := h.hub.Subscribe(instructorID, variant)
	scheduleStreamConnections.Inc()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			h.hub.Unsubscribe(conn.ID)
			scheduleStreamConnections.Dec()
		}()

		h.hub.SendInitial(conn)

		for {
			select {
			case payload := <-conn.C():
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// Client went away; drop the registration and let the
					// hub carry on for everyone else.
					slog.Debug("Schedule stream client disconnected",
						slog.String("connection_id", conn.ID.String()))
					return
				}
			case <-conn.Done():
				return
			}
		}
	}))

	return nil
}
