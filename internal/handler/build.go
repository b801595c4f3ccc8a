package handler

import (
	"bugzero-api/internal/middleware"
	"bugzero-api/internal/model"
	"bugzero-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleBuildCreate(c *fiber.Ctx) error {
	input := new(model.BuildCreate)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	user := middleware.CurrentUser(c)
	build, err := h.builds.Create(c.UserContext(), user.ID, input.Website, input.Action, input.Metadata)
	if err != nil {
		return respondError(c, err)
	}
	h.logOperation(c, user.ID, "create", "build", build.ID.String(), fiber.Map{
		"website": build.Website,
		"action":  build.Action,
	})

	return c.Status(fiber.StatusCreated).JSON(build)
}

func (h *Handler) HandleBuildList(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	builds, total, err := h.builds.List(c.UserContext(), user.ID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"builds": builds,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// ownedBuild loads the build named in the path and checks the caller owns it.
func (h *Handler) ownedBuild(c *fiber.Ctx) (*model.Build, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	build, err := h.builds.Get(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if err := service.Authorize(middleware.CurrentUser(c), build); err != nil {
		return nil, err
	}
	return build, nil
}

func (h *Handler) HandleGetBuild(c *fiber.Ctx) error {
	build, err := h.ownedBuild(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(build)
}

func (h *Handler) HandleBuildUpdate(c *fiber.Ctx) error {
	build, err := h.ownedBuild(c)
	if err != nil {
		return respondError(c, err)
	}

	input := new(model.BuildUpdate)
	if ok, err := h.bind(c, input); !ok {
		return err
	}

	if err := h.builds.Update(c.UserContext(), build, *input); err != nil {
		return respondError(c, err)
	}
	h.logOperation(c, build.UserID, "update", "build", build.ID.String(), input)

	return c.JSON(build)
}

func (h *Handler) HandleBuildStart(c *fiber.Ctx) error {
	build, err := h.ownedBuild(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.builds.Start(c.UserContext(), build); err != nil {
		return respondError(c, err)
	}
	h.logOperation(c, build.UserID, "start", "build", build.ID.String(), nil)

	return c.JSON(build)
}

// HandleBuildComplete finishes a build; success defaults to true when omitted.
func (h *Handler) HandleBuildComplete(c *fiber.Ctx) error {
	build, err := h.ownedBuild(c)
	if err != nil {
		return respondError(c, err)
	}

	input := new(model.BuildComplete)
	if len(c.Body()) > 0 {
		if ok, err := h.bind(c, input); !ok {
			return err
		}
	}
	success := input.Success == nil || *input.Success

	if err := h.builds.Complete(c.UserContext(), build, input.Output, input.ErrorMessage, success); err != nil {
		return respondError(c, err)
	}
	h.logOperation(c, build.UserID, "complete", "build", build.ID.String(), fiber.Map{
		"status": build.Status,
	})

	return c.JSON(build)
}
