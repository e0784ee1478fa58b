package handler

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/port"
)

// writeError maps service errors onto status codes. Every body is {message}.
// op names the failed operation and prefixes 500 messages.
func writeError(c fiber.Ctx, op string, err error) error {
	var reqErr *port.RequestError
	switch {
	case errors.As(err, &reqErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": reqErr.Message})
	case errors.Is(err, port.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, port.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": capitalize(notFoundMessage(err))})
	}

	slog.Error(op, "method", c.Method(), "path", c.Path(), "error", err)
	msg := op
	var remoteErr *port.RemoteError
	if errors.As(err, &remoteErr) {
		msg = op + ": " + remoteErr.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": msg})
}

func notFoundMessage(err error) string {
	for _, known := range []error{port.ErrRepoNotFound, port.ErrFileNotFound, port.ErrTestCaseNotFound, port.ErrTemplateNotFound} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// param returns an unescaped copy of a route parameter. Repository ids
// contain "/" and arrive URL-encoded. c.Params aliases the request buffer,
// which fiber reuses once the handler returns.
func param(c fiber.Ctx, name string) string {
	raw := strings.Clone(c.Params(name))
	v, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return v
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
}
