package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songpad/api/internal/middleware"
	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/pkg/response"
)

type DocumentHandler struct {
	service   *service.DocumentService
	validator *validator.Validate
}

func NewDocumentHandler(svc *service.DocumentService, v *validator.Validate) *DocumentHandler {
	return &DocumentHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var req model.DocumentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	doc, err := h.service.Create(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, doc)
}

// List handles GET /api/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	docs, err := h.service.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.DocumentListResponse{Documents: docs})
}

// Get handles GET /api/documents/:docId
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	doc, err := h.service.Get(c.Context(), middleware.GetUserID(c), docID)
	if err != nil {
		return mapSongError(c, err)
	}

	return response.OK(c, doc)
}

// Update handles PUT /api/documents/:docId
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	var req model.DocumentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	doc, err := h.service.Update(c.Context(), middleware.GetUserID(c), docID, &req)
	if err != nil {
		return mapSongError(c, err)
	}

	return response.OK(c, doc)
}

// Delete handles DELETE /api/documents/:docId — song tasks cascade with the
// document.
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), docID); err != nil {
		return mapSongError(c, err)
	}

	return response.NoContent(c)
}
