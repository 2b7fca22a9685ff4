package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

type StitchHandler struct {
	service   *service.StitchService
	validator *validator.Validate
}

func NewStitchHandler(svc *service.StitchService, v *validator.Validate) *StitchHandler {
	return &StitchHandler{
		service:   svc,
		validator: v,
	}
}

// Stitch handles POST /api/projects/:id/stitch. An empty body stitches
// locally with the default overlay.
// @Summary      Stitch final video
// @Description  Stitch the completed scenes locally or start a cloud render
// @Tags         Stitch
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body model.StitchOptions false "Stitch options"
// @Success      200 {object} model.StitchResult
// @Success      202 {object} model.StitchResult
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/stitch [post]
func (h *StitchHandler) Stitch(c *fiber.Ctx) error {
	var opts model.StitchOptions
	if len(c.Body()) > 0 {
		if ok, err := bind(c, h.validator, &opts); !ok {
			return err
		}
	}

	result, err := h.service.Stitch(c.UserContext(), c.Params("id"), opts)
	if err != nil {
		return response.FromError(c, err)
	}
	if result.Mode == model.StitchModeCloud {
		return response.Accepted(c, result)
	}
	return response.OK(c, result)
}

// CloudStatus handles GET /api/projects/:id/stitch/:renderId?bucketName=
// @Summary      Get cloud render status
// @Description  Get the progress of a cloud render
// @Tags         Stitch
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        renderId path string true "Render ID"
// @Param        bucketName query string false "Render bucket"
// @Success      200 {object} model.CloudRenderStatus
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/stitch/{renderId} [get]
func (h *StitchHandler) CloudStatus(c *fiber.Ctx) error {
	status, err := h.service.CloudStatus(c.UserContext(), c.Params("id"), c.Params("renderId"), c.Query("bucketName"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, status)
}
