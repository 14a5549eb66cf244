package http

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/middleware"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

const maxUploadSize = 10 << 20

// ErrorHandler is the fiber.Config error handler. Route handlers answer
// their own errors, so this only sees fiber errors and escaped panics.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "something went wrong"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		utils.Log.WithFields(logrus.Fields{
			"status": code,
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
		}).WithError(err).Error("🔥 [ERROR] unhandled")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// fail writes err with the status its class maps to. Server-side classes are
// logged; caller errors are not.
func fail(c *fiber.Ctx, err error) error {
	status := apperror.MapErrorToStatus(err)
	if status >= fiber.StatusInternalServerError {
		utils.Log.WithFields(logrus.Fields{
			"status": status,
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("❌ [HTTP] request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": apperror.Message(err)})
}

// respond writes data under key. A partial failure is still a 200 carrying
// the data plus a warning for the caller to show.
func respond(c *fiber.Ctx, status int, key string, data interface{}, err error) error {
	body := fiber.Map{}
	if key != "" {
		body[key] = data
	}
	return respondWith(c, status, body, err)
}

// respondWith is respond for bodies with more than one field.
func respondWith(c *fiber.Ctx, status int, body fiber.Map, err error) error {
	if err != nil && !apperror.IsPartial(err) {
		return fail(c, err)
	}
	body["status"] = "success"
	if err != nil {
		utils.Log.WithField("path", c.Path()).WithError(err).Warn("⚠️ [HTTP] partial failure")
		body["status"] = "partial"
		body["warning"] = apperror.Message(err)
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}

func principal(c *fiber.Ctx) models.Principal {
	p, _ := middleware.GetPrincipal(c)
	return p
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("invalid request body")
	}
	return nil
}

// parseFormJSON decodes a JSON document carried in a multipart form field.
func parseFormJSON(c *fiber.Ctx, field string, out interface{}) error {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return apperror.Validation("%s is required", field)
	}
	if err := c.App().Config().JSONDecoder([]byte(raw), out); err != nil {
		return apperror.Validation("invalid %s JSON", field)
	}
	return nil
}

// formFile reads an optional multipart file. A missing file yields nil.
func formFile(c *fiber.Ctx, field string) (*blob.File, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, nil
		}
		return nil, apperror.Validation("invalid %s upload", field)
	}
	if fileHeader.Size > maxUploadSize {
		return nil, apperror.Validation("%s must be smaller than 10MB", field)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperror.Validation("could not read %s", field)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apperror.Validation("could not read %s", field)
	}
	return &blob.File{Name: fileHeader.Filename, Content: content}, nil
}
