package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"supplierportal/internal/http/middleware"
	"supplierportal/internal/model"
)

func currentActor(c *fiber.Ctx) (model.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return actor, nil
}

// pathID returns the named path parameter when it is a UUID.
func pathID(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// pageParams reads limit and offset, defaulting to 10 and 0.
func pageParams(c *fiber.Ctx) (limit, offset int, code string) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, "INVALID_LIMIT"
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, "INVALID_OFFSET"
	}
	return limit, offset, ""
}

// parseOptionalBody decodes a JSON body into v when one was sent.
func parseOptionalBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(v)
}
