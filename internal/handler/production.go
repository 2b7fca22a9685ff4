package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

type ProductionHandler struct {
	production   *service.ProductionService
	orchestrator *service.OrchestratorService
	projects     *service.ProjectService
}

func NewProductionHandler(production *service.ProductionService, orchestrator *service.OrchestratorService, projects *service.ProjectService) *ProductionHandler {
	return &ProductionHandler{
		production:   production,
		orchestrator: orchestrator,
		projects:     projects,
	}
}

// Start handles POST /api/projects/:id/production/start
// @Summary      Start production
// @Description  Queue the production loop of a project
// @Tags         Production
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.StartProductionResponse
// @Success      202 {object} model.StartProductionResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/production/start [post]
func (h *ProductionHandler) Start(c *fiber.Ctx) error {
	res, err := h.production.Start(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	if res.TaskID == "" {
		return response.OK(c, res)
	}
	return response.Accepted(c, res)
}

// Next handles POST /api/projects/:id/production/next. It runs one step
// in the request and returns its result; an idle result is not an error.
// @Summary      Run one production step
// @Description  Process the next pending scene in the request
// @Tags         Production
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.StepResult
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/production/next [post]
func (h *ProductionHandler) Next(c *fiber.Ctx) error {
	res, err := h.production.Step(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, res)
}

// Reset handles POST /api/projects/:id/production/reset
// @Summary      Reset production
// @Description  Return every scene to todo and the ledger to idle
// @Tags         Production
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.ProjectMemory
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/production/reset [post]
func (h *ProductionHandler) Reset(c *fiber.Ctx) error {
	mem, err := h.orchestrator.ResetProjectProduction(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, mem)
}

// Status handles GET /api/projects/:id/production
// @Summary      Get production status
// @Description  Get the ledger and scene statuses of a project
// @Tags         Production
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.ProductionStatusResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/production [get]
func (h *ProductionHandler) Status(c *fiber.Ctx) error {
	view, err := h.projects.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, model.ProductionStatusResponse{
		Memory: view.Memory,
		Scenes: view.Scenes,
	})
}
