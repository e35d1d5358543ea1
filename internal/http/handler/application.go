package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

// CreateApplication starts a draft.
//
//	@Summary	Create a draft application
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		model.ApplicationPayload	true	"Draft snapshot"
//	@Success	201		{object}	model.Application
//	@Failure	403		{object}	errorPayload
//	@Failure	422		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications [post]
func CreateApplication(svc service.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var payload model.ApplicationPayload
		if err := c.BodyParser(&payload); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		app, err := svc.CreateDraft(c.UserContext(), actor, payload)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(app)
	}
}

// UpdateApplication replaces a draft's content.
//
//	@Summary	Save a draft
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Application ID"
//	@Param		payload	body		model.ApplicationPayload	true	"Draft snapshot"
//	@Success	200		{object}	model.Application
//	@Failure	409		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications/{id} [put]
func UpdateApplication(svc service.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var payload model.ApplicationPayload
		if err := c.BodyParser(&payload); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		app, err := svc.UpdateDraft(c.UserContext(), actor, id, payload)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(app)
	}
}

// SubmitApplication moves a draft into review. The body, when present, is
// the final snapshot.
//
//	@Summary	Submit a draft
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Application ID"
//	@Param		payload	body		model.ApplicationPayload	false	"Final snapshot"
//	@Success	200		{object}	model.Application
//	@Failure	422		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications/{id}/submit [post]
func SubmitApplication(svc service.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var payload *model.ApplicationPayload
		if len(c.Body()) > 0 {
			payload = &model.ApplicationPayload{}
			if err := c.BodyParser(payload); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}
		app, err := svc.Submit(c.UserContext(), actor, id, payload)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(app)
	}
}

// GetApplication returns one application with history and documents.
//
//	@Summary	Get an application
//	@Tags		applications
//	@Produce	json
//	@Param		id	path		string	true	"Application ID"
//	@Success	200	{object}	model.Application
//	@Failure	404	{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications/{id} [get]
func GetApplication(svc service.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		app, err := svc.Get(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(app)
	}
}

// ListMyApplications lists the caller's applications.
//
//	@Summary	List my applications
//	@Tags		applications
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"	default(10)
//	@Param		offset	query		int	false	"Offset"	default(0)
//	@Success	200		{object}	service.ApplicationListResult
//	@Security	BearerAuth
//	@Router		/applications/mine [get]
func ListMyApplications(svc service.ApplicationService) fiber.Handler {
	return listApplications(svc.ListMine)
}

// ListTasks lists applications the caller's role can act on.
//
//	@Summary	List review tasks
//	@Tags		applications
//	@Produce	json
//	@Param		limit	query		int	false	"Page size"	default(10)
//	@Param		offset	query		int	false	"Offset"	default(0)
//	@Success	200		{object}	service.ApplicationListResult
//	@Security	BearerAuth
//	@Router		/applications/tasks [get]
func ListTasks(svc service.ApplicationService) fiber.Handler {
	return listApplications(svc.ListTasks)
}

func listApplications(list func(context.Context, model.Actor, int, int) (*service.ApplicationListResult, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		limit, offset, code := pageParams(c)
		if code != "" {
			return writeError(c, fiber.StatusBadRequest, code, "invalid pagination parameter")
		}
		res, err := list(c.UserContext(), actor, limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// TransitionApplication applies a reviewer action: approve, reject,
// request_info or assign_vendor_number.
//
//	@Summary	Apply a reviewer action
//	@Tags		applications
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Application ID"
//	@Param		input	body		model.TransitionInput	false	"Comments or vendor number"
//	@Success	200		{object}	model.Application
//	@Failure	403		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/applications/{id}/approve [post]
//	@Router		/applications/{id}/reject [post]
//	@Router		/applications/{id}/request-info [post]
//	@Router		/applications/{id}/vendor-number [post]
func TransitionApplication(svc service.ApplicationService, action model.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in model.TransitionInput
		if err := parseOptionalBody(c, &in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		app, err := svc.Transition(c.UserContext(), actor, id, action, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(app)
	}
}
