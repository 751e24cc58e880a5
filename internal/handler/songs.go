package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/songpad/api/internal/middleware"
	"github.com/songpad/api/internal/model"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/internal/store"
	"github.com/songpad/api/pkg/response"
)

type SongHandler struct {
	service   *service.SongService
	archive   *service.ArchiveService
	validator *validator.Validate
}

func NewSongHandler(svc *service.SongService, archive *service.ArchiveService, v *validator.Validate) *SongHandler {
	return &SongHandler{
		service:   svc,
		archive:   archive,
		validator: v,
	}
}

// Submit handles POST /api/documents/:docId/songs
// @Summary      Submit lyrics for song generation
// @Description  Sends the lyrics to the synthesis API and starts tracking the task
// @Tags         Songs
// @Accept       json
// @Produce      json
// @Param        docId path string true "Document ID"
// @Param        request body model.SongSubmitRequest true "Submit request"
// @Success      201 {object} model.SongTask
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/documents/{docId}/songs [post]
func (h *SongHandler) Submit(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	var req model.SongSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	task, err := h.service.Submit(c.Context(), middleware.GetUserID(c), docID, &req)
	if err != nil {
		return mapSongError(c, err)
	}

	return response.Created(c, task)
}

// List handles GET /api/documents/:docId/songs — the read that drives the
// pull reconciliation path.
// @Summary      List song tasks for a document
// @Tags         Songs
// @Produce      json
// @Param        docId path string true "Document ID"
// @Success      200 {object} model.SongListResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/documents/{docId}/songs [get]
func (h *SongHandler) List(c *fiber.Ctx) error {
	docID := c.Params("docId")
	if docID == "" {
		return response.ValidationError(c, "Document ID is required", nil)
	}

	tasks, err := h.service.ListForDocument(c.Context(), middleware.GetUserID(c), docID)
	if err != nil {
		return mapSongError(c, err)
	}

	return response.OK(c, model.SongListResponse{Tasks: tasks})
}

// Delete handles DELETE /api/songs/:taskId
// @Summary      Delete a song task
// @Tags         Songs
// @Param        taskId path string true "Task ID"
// @Success      204
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/{taskId} [delete]
func (h *SongHandler) Delete(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return response.ValidationError(c, "Task ID is required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), taskID); err != nil {
		return mapSongError(c, err)
	}

	return response.NoContent(c)
}

// Archive handles POST /api/songs/:taskId/archive
// @Summary      Archive a generated song's audio to durable storage
// @Tags         Songs
// @Produce      json
// @Param        taskId path string true "Task ID"
// @Success      200 {object} model.SongArchiveResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/songs/{taskId}/archive [post]
func (h *SongHandler) Archive(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return response.ValidationError(c, "Task ID is required", nil)
	}

	result, err := h.archive.Archive(c.Context(), middleware.GetUserID(c), taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotArchivable) {
			return response.ValidationError(c, "Task has no audio result to archive", nil)
		}
		return mapSongError(c, err)
	}

	return response.OK(c, result)
}

func mapSongError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return response.NotFound(c, "Not found")
	case errors.Is(err, service.ErrForbidden):
		return response.Forbidden(c, "You do not own this resource")
	default:
		return response.ServiceError(c, err.Error())
	}
}
