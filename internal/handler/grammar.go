package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/pkg/response"
)

type GrammarHandler struct {
	service   *service.GrammarService
	validator *validator.Validate
}

func NewGrammarHandler(svc *service.GrammarService, v *validator.Validate) *GrammarHandler {
	return &GrammarHandler{
		service:   svc,
		validator: v,
	}
}

// Check handles POST /api/grammar/check
// @Summary      Check text for grammar issues
// @Tags         Grammar
// @Accept       json
// @Produce      json
// @Param        request body model.GrammarCheckRequest true "Check request"
// @Success      200 {object} model.GrammarCheckResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/grammar/check [post]
func (h *GrammarHandler) Check(c *fiber.Ctx) error {
	var req model.GrammarCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Check(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, result)
}
