package handler

import (
	"github.com/gofiber/fiber/v2"

	"supplierportal/internal/model"
	"supplierportal/internal/service"
)

// CreateContract drafts a contract for a supplier.
//
//	@Summary	Create a contract
//	@Tags		contracts
//	@Accept		json
//	@Produce	json
//	@Param		input	body		service.ContractInput	true	"Contract"
//	@Success	201		{object}	model.Contract
//	@Failure	422		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/contracts [post]
func CreateContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		var in service.ContractInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		contract, err := svc.Create(c.UserContext(), actor, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(contract)
	}
}

// GetContract returns one contract with its history.
//
//	@Summary	Get a contract
//	@Tags		contracts
//	@Produce	json
//	@Param		id	path		string	true	"Contract ID"
//	@Success	200	{object}	model.Contract
//	@Security	BearerAuth
//	@Router		/contracts/{id} [get]
func GetContract(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		contract, err := svc.Get(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(contract)
	}
}

// ListContracts lists the contracts of one application.
//
//	@Summary	List an application's contracts
//	@Tags		contracts
//	@Produce	json
//	@Param		id	path	string	true	"Application ID"
//	@Success	200	{array}	model.Contract
//	@Security	BearerAuth
//	@Router		/applications/{id}/contracts [get]
func ListContracts(svc service.ContractService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return err
		}
		id, ok := pathID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		contracts, err := svc.ListByApplication(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": contracts, "total": len(contracts)})
	}
}

// TransitionContract applies activate, expire, terminate or renew.
//
//	@Summary	Apply a contract action
//	@Tags		contracts
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Contract ID"
//	@Param		input	body		model.TransitionInput	false	"Comments"
//	@Success	200		{object}	model.Contract
//	@Failure	403		{object}	errorPayload
//	@Security	BearerAuth
//	@Router		/contracts/{id}/activate [post]
//	@Router		/contracts/{id}/expire [post]
//	@Router		/contracts/{id}/terminate [post]
//	@Router		/contracts/{id}/renew [post]
func TransitionContract(svc service.ContractService, action model.Action) fiber.Handler {
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
		contract, err := svc.Transition(c.UserContext(), actor, id, action, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(contract)
	}
}
