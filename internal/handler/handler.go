package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

// Handlers groups the API handlers mounted under /api
type Handlers struct {
	Project    *ProjectHandler
	Production *ProductionHandler
	Stitch     *StitchHandler
	Storyboard *StoryboardHandler
}

// Limits are the per-route rate limiters. Nil entries are skipped.
type Limits struct {
	Init       fiber.Handler
	Production fiber.Handler
	Stitch     fiber.Handler
}

// Mount registers every API route on r
func (h *Handlers) Mount(r fiber.Router, limits Limits) {
	storyboard := r.Group("/storyboard")
	storyboard.Post("/segment", h.Storyboard.Segment)
	storyboard.Post("/snap", h.Storyboard.Snap)

	projects := r.Group("/projects")
	projects.Post("/init", orNext(limits.Init), h.Project.Init)
	projects.Post("/from-storyboard", orNext(limits.Init), h.Project.FromStoryboard)
	projects.Get("/", h.Project.List)
	projects.Get("/:id", h.Project.Get)
	projects.Delete("/:id", h.Project.Delete)
	projects.Patch("/:id/settings", h.Project.UpdateSettings)

	projects.Patch("/:id/scenes/:sceneId", h.Project.UpdateScene)
	projects.Post("/:id/scenes/:sceneId/resolve", h.Project.ResolveInput)
	projects.Post("/:id/scenes/:sceneId/reprocess", orNext(limits.Production), h.Project.Reprocess)

	production := projects.Group("/:id/production")
	production.Get("/", h.Production.Status)
	production.Post("/start", orNext(limits.Production), h.Production.Start)
	production.Post("/next", orNext(limits.Production), h.Production.Next)
	production.Post("/reset", h.Production.Reset)

	projects.Post("/:id/stitch", orNext(limits.Stitch), h.Stitch.Stitch)
	projects.Get("/:id/stitch/:renderId", h.Stitch.CloudStatus)
}

func orNext(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

// bind parses the JSON body into dst and validates it. On failure it has
// already written the 400 response and returns false.
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.ValidationError(c, "Invalid request body", nil)
	}
	if err := v.Struct(dst); err != nil {
		return false, response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	return true, nil
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
