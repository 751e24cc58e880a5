package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/internal/store"
	"github.com/songpad/api/pkg/response"
)

// WebhookHandler receives push-path status notifications from the synthesis
// API. The route is unauthenticated; callbacks carry no user token.
type WebhookHandler struct {
	service   *service.SongService
	validator *validator.Validate
}

func NewWebhookHandler(svc *service.SongService, v *validator.Validate) *WebhookHandler {
	return &WebhookHandler{
		service:   svc,
		validator: v,
	}
}

// SunoCallback handles POST /webhooks/suno
// @Summary      Synthesis API status callback
// @Accept       json
// @Success      200
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /webhooks/suno [post]
func (h *WebhookHandler) SunoCallback(c *fiber.Ctx) error {
	if err := h.verifySignature(c); err != nil {
		return response.Unauthorized(c, "Invalid callback signature")
	}

	var payload model.SongWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.ValidationError(c, "Invalid callback body", nil)
	}

	if err := h.validator.Struct(&payload); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	task, err := h.service.ApplyWebhook(c.Context(), &payload)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[Webhook] callback for unknown task %s", payload.TaskID)
			return response.NotFound(c, "Unknown task")
		}
		return response.ServiceError(c, err.Error())
	}

	log.Printf("[Webhook] task %s (external %s) → %s", task.ID, task.ExternalID, payload.Status)
	return response.OK(c, fiber.Map{"ok": true})
}

// verifySignature is the hook for callback authentication.
// TODO: verify callback signatures once the synthesis API publishes a signing scheme.
func (h *WebhookHandler) verifySignature(c *fiber.Ctx) error {
	return nil
}
