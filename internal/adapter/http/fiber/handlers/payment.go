package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/loja-checkout/internal/domain"
	"github.com/seu-repo/loja-checkout/internal/service/payment"
)

// PaymentHandler serves the merchant backend's payment surface.
type PaymentHandler struct {
	service *payment.Service
	log     *zap.Logger
}

func NewPaymentHandler(service *payment.Service, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

// GetConfig returns the processor's publishable configuration.
// Unauthenticated; the publishable key is not a secret.
func (h *PaymentHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(h.service.ProcessorConfig())
}

// CreateIntent creates a payment intent for the authenticated user.
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var req domain.CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
	}

	userID := c.Locals("user_id").(string)

	intent, err := h.service.CreateIntent(c.Context(), userID, req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(intent)
}

// Confirm records the outcome of a client-side confirmation.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var req domain.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if req.PaymentIntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paymentIntentId is required"})
	}

	userID := c.Locals("user_id").(string)

	intent, err := h.service.Confirm(c.Context(), userID, req.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment intent not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(intent)
}

// GetHistory returns the authenticated user's intent records.
func (h *PaymentHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	recs, err := h.service.History(c.Context(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(recs)
}
