package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-engage-api/internal/middleware"
	"github.com/noah-isme/campus-engage-api/internal/repository"
	"github.com/noah-isme/campus-engage-api/internal/service"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// parseQueryWindow reads optional RFC 3339 start/end bounds into a half-open
// ledger window.
func parseQueryWindow(c *fiber.Ctx) (repository.TimeWindow, error) {
	window := repository.TimeWindow{}

	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, errors.New("invalid start, expected RFC 3339")
		}
		window.Start = &start
	}
	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return window, errors.New("invalid end, expected RFC 3339")
		}
		window.End = &end
	}

	return window, nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// actorFromContext assembles the request's Actor from claims bound by the JWT
// middleware.
func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{
		ID:        userIDFromContext(c),
		Volunteer: userRoleFromContext(c) == "volunteer",
	}

	if name, ok := c.Locals("user_name").(string); ok {
		actor.DisplayName = name
	}

	if staff, ok := c.Locals("user_staff").(bool); ok {
		actor.Elevated = staff
	}
	if studentID, ok := c.Locals("student_id").(uint); ok && studentID != 0 {
		actor.StudentID = &studentID
	}

	return actor
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
