package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

// StoryboardHandler serves the segmentation previews; nothing is persisted
type StoryboardHandler struct {
	projects  *service.ProjectService
	validator *validator.Validate
}

func NewStoryboardHandler(projects *service.ProjectService, v *validator.Validate) *StoryboardHandler {
	return &StoryboardHandler{
		projects:  projects,
		validator: v,
	}
}

// Segment handles POST /api/storyboard/segment
// @Summary      Preview segmentation
// @Description  Split a script into scenes without saving anything
// @Tags         Storyboard
// @Accept       json
// @Produce      json
// @Param        request body model.SegmentRequest true "Script"
// @Success      200 {object} model.StoryboardResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/storyboard/segment [post]
func (h *StoryboardHandler) Segment(c *fiber.Ctx) error {
	var req model.SegmentRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.projects.PreviewSegment(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, res)
}

// Snap handles POST /api/storyboard/snap
// @Summary      Preview silence snap
// @Description  Move scene boundaries into transcript silences without saving anything
// @Tags         Storyboard
// @Accept       json
// @Produce      json
// @Param        request body model.SnapRequest true "Scenes and transcript"
// @Success      200 {object} model.StoryboardResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/storyboard/snap [post]
func (h *StoryboardHandler) Snap(c *fiber.Ctx) error {
	var req model.SnapRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	res, err := h.projects.PreviewSnap(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, res)
}
