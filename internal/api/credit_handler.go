package api

import (
	"booking-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreditHandler struct {
	creditService service.CreditService
}

func NewCreditHandler(creditService service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetRedeemableCredits returns the user's still-usable cancellation credits,
// grouped by class duration for display.
func (h *CreditHandler) GetRedeemableCredits(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	credits, err := h.creditService.RedeemableCredits(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch credits"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"credits": credits})
}

func (h *CreditHandler) GetCreditHistory(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID format"})
	}

	credits, err := h.creditService.CreditHistory(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch credit history"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"credits": credits})
}
