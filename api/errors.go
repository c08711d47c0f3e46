package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/registry"
	"go.uber.org/zap"
)

// errorStatuses maps engine errors to HTTP statuses. First match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{common.ErrUnauthorized, fiber.StatusForbidden},
	{common.ErrAlreadyWhitelisted, fiber.StatusConflict},
	{common.ErrUnknownAsset, fiber.StatusNotFound},
	{common.ErrNoSchedule, fiber.StatusNotFound},
	{common.ErrInvalidAmount, fiber.StatusBadRequest},
	{common.ErrInvalidSchedule, fiber.StatusBadRequest},
	{common.ErrInvalidSymbol, fiber.StatusBadRequest},
	{registry.ErrInvalidDecimals, fiber.StatusBadRequest},
	{common.ErrScheduleMismatch, fiber.StatusUnprocessableEntity},
	{common.ErrInsufficientBalance, fiber.StatusUnprocessableEntity},
	{common.ErrTransferFailed, fiber.StatusUnprocessableEntity},
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	for i := range errorStatuses {
		if errors.Is(err, errorStatuses[i].err) {
			return errorStatuses[i].status
		}
	}

	return fiber.StatusInternalServerError
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
