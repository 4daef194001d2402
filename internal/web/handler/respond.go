// Package handler holds what the route handlers share: answer helpers for
// JSON and browser clients, error to status mapping and form decoders.
package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
	"github.com/RefractoryERP/RefractoryERP/internal/web/session"
)

// Known maps a controller error onto an answer.
// An empty Message answers with the error text.
type Known struct {
	Err     error
	Status  int
	Message string
}

// WantsJSON reports whether the client expects JSON envelopes instead of redirects.
func WantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		strings.EqualFold(c.Get(fiber.HeaderXRequestedWith), "XMLHttpRequest")
}

// Data writes the {"data": ...} envelope.
func Data(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(fiber.Map{"data": v})
}

// Done answers a successful change. JSON clients get the data envelope with
// the message, browsers are redirected back with a success flash.
func Done(c *fiber.Ctx, status int, message string, v any, fallback string) error {
	if WantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"message": message, "data": v})
	}

	return redirectWithFlash(c, session.Flash{Type: session.FlashSuccess, Message: message}, fallback)
}

// Fail answers err. Validation errors become 422, errors listed in known get
// their status and everything else is logged and answered with 500.
func Fail(c *fiber.Ctx, err error, fallback string, known ...Known) error {
	if errs, ok := validation.AsErrors(err); ok {
		return refuse(c, fiber.StatusUnprocessableEntity, InvalidDataMessage, errs, fallback)
	}

	for _, k := range known {
		if !errors.Is(err, k.Err) {
			continue
		}

		message := k.Message
		if message == "" {
			message = err.Error()
		}

		return refuse(c, k.Status, message, nil, fallback)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return refuse(c, fiberErr.Code, fiberErr.Message, nil, fallback)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

	return refuse(c, fiber.StatusInternalServerError, "Internal Server Error", nil, fallback)
}

// refuse answers JSON clients and reads with the status, other changes with an error flash.
func refuse(c *fiber.Ctx, status int, message string, errs validation.Errors, fallback string) error {
	if WantsJSON(c) {
		body := fiber.Map{"message": message}
		if len(errs) > 0 {
			body["errors"] = errs
		}

		return c.Status(status).JSON(body)
	}

	if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
		return c.Status(status).SendString(message)
	}

	return redirectWithFlash(c, session.Flash{Type: session.FlashError, Message: message, Errors: errs}, fallback)
}

func redirectWithFlash(c *fiber.Ctx, f session.Flash, fallback string) error {
	if err := session.SetFlash(c, f); err != nil {
		log.Error().Err(err).Msg("failed to store flash message")
	}

	return c.RedirectBack(fallback, fiber.StatusSeeOther)
}

// Parse decodes the body into out. A parse failure is a 400.
func Parse(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}

	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body: "+err.Error())
	}

	return nil
}

// ID returns the positive numeric :id route parameter. Anything else is a 404.
func ID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}

	return uint(id), nil
}

// ErrorHandler answers errors returned by handlers and middleware in the client's format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	message := err.Error()
	if code == fiber.StatusInternalServerError {
		message = "Internal Server Error"
	}

	if WantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"message": message})
	}

	return c.Status(code).SendString(message)
}

// StatusForm is the body of a status change. A blank status toggles.
type StatusForm struct {
	Status string `json:"status" form:"status"`
}

// Target returns the requested status or nil for a toggle.
func (f StatusForm) Target() *models.Status {
	if f.Status == "" {
		return nil
	}

	s := models.Status(f.Status)

	return &s
}
