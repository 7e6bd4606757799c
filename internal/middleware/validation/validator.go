package validation

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/isotope"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

const paramsKey = "isotope_params"

// IsotopeParams parses Z and A from the query string, or from a legacy
// "/A=..&Z=.." path when allowPath is set, and stores them for Params.
// Malformed values are rejected with 400; absent values pass through.
func IsotopeParams(allowPath bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, err := isotope.ParseQuery(func(key string) string { return c.Query(key) })
		if err == nil && allowPath && !params.Complete() {
			var fromPath isotope.Params
			fromPath, err = isotope.ParsePath(c.Path())
			if params.Z == nil {
				params.Z = fromPath.Z
			}
			if params.A == nil {
				params.A = fromPath.A
			}
		}
		if err != nil {
			if errors.Is(err, isotope.ErrInvalidParam) {
				logger.Debug("Rejected isotope parameters", zap.String("ip", c.IP()), zap.Error(err))
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return err
		}

		c.Locals(paramsKey, params)
		return c.Next()
	}
}

// Params returns the parameters stored by IsotopeParams.
func Params(c *fiber.Ctx) isotope.Params {
	params, _ := c.Locals(paramsKey).(isotope.Params)
	return params
}
