package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/internal/model"
	"github.com/BillMorio/Video-Agent-sub002/internal/service"
	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

type ProjectHandler struct {
	projects     *service.ProjectService
	orchestrator *service.OrchestratorService
	validator    *validator.Validate
}

func NewProjectHandler(projects *service.ProjectService, orchestrator *service.OrchestratorService, v *validator.Validate) *ProjectHandler {
	return &ProjectHandler{
		projects:     projects,
		orchestrator: orchestrator,
		validator:    v,
	}
}

// Init handles POST /api/projects/init
// @Summary      Create project from script
// @Description  Segment a script into scenes and create the project with its ledger
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.InitProjectRequest true "Project init request"
// @Success      201 {object} model.ProjectView
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/init [post]
func (h *ProjectHandler) Init(c *fiber.Ctx) error {
	var req model.InitProjectRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	view, err := h.projects.Init(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, view)
}

// FromStoryboard handles POST /api/projects/from-storyboard
// @Summary      Create project from storyboard
// @Description  Create a project from an already built list of scenes
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.StoryboardRequest true "Storyboard"
// @Success      201 {object} model.ProjectView
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/from-storyboard [post]
func (h *ProjectHandler) FromStoryboard(c *fiber.Ctx) error {
	var req model.StoryboardRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	view, err := h.projects.FromStoryboard(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, view)
}

// List handles GET /api/projects
// @Summary      List projects
// @Description  List every project, newest first
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.ProjectListResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return response.OK(c, model.ProjectListResponse{Projects: projects})
}

// Get handles GET /api/projects/:id
// @Summary      Get project
// @Description  Get a project with its ledger and scenes
// @Tags         Projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} model.ProjectView
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	view, err := h.projects.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, view)
}

// Delete handles DELETE /api/projects/:id
// @Summary      Delete project
// @Description  Delete a project, its scenes and its ledger
// @Tags         Projects
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      204
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.UserContext(), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

// UpdateSettings handles PATCH /api/projects/:id/settings
// @Summary      Update project settings
// @Description  Update the overlay, aspect ratio and API key overrides of a project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        request body model.UpdateSettingsRequest true "Settings"
// @Success      200 {object} model.ProjectMemory
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/settings [patch]
func (h *ProjectHandler) UpdateSettings(c *fiber.Ctx) error {
	var req model.UpdateSettingsRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	mem, err := h.projects.UpdateSettings(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, mem)
}

// UpdateScene handles PATCH /api/projects/:id/scenes/:sceneId
// @Summary      Edit scene
// @Description  Edit the script, timing, payload or transition of a scene
// @Tags         Scenes
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        sceneId path string true "Scene ID"
// @Param        request body model.UpdateSceneRequest true "Scene edit"
// @Success      200 {object} model.Scene
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/scenes/{sceneId} [patch]
func (h *ProjectHandler) UpdateScene(c *fiber.Ctx) error {
	var req model.UpdateSceneRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	scene, err := h.projects.UpdateScene(c.UserContext(), c.Params("id"), c.Params("sceneId"), &req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, scene)
}

// ResolveInput handles POST /api/projects/:id/scenes/:sceneId/resolve
// @Summary      Resolve parked scene
// @Description  Supply the input a scene awaiting input asked for
// @Tags         Scenes
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        sceneId path string true "Scene ID"
// @Param        request body model.ResolveInputRequest true "Resolved payload"
// @Success      200 {object} model.Scene
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/scenes/{sceneId}/resolve [post]
func (h *ProjectHandler) ResolveInput(c *fiber.Ctx) error {
	var req model.ResolveInputRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	scene, err := h.orchestrator.ResolveInput(c.UserContext(), c.Params("id"), c.Params("sceneId"), req.Payload)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, scene)
}

// Reprocess handles POST /api/projects/:id/scenes/:sceneId/reprocess.
// It runs the scene synchronously and returns the step result.
// @Summary      Reprocess scene
// @Description  Run one failed or parked scene again and return the step result
// @Tags         Scenes
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        sceneId path string true "Scene ID"
// @Success      200 {object} model.StepResult
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{id}/scenes/{sceneId}/reprocess [post]
func (h *ProjectHandler) Reprocess(c *fiber.Ctx) error {
	res, err := h.orchestrator.ReprocessScene(c.UserContext(), c.Params("id"), c.Params("sceneId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, res)
}
