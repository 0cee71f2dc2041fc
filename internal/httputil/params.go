// Package httputil holds small fiber helpers shared by the handler packages.
package httputil

import (
	"strconv"
	"time"

	"stock-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ParamID reads a positive integer path parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NewValidation("Identifiant invalide: " + name).WithDetail(name, raw)
	}
	return uint(id), nil
}

// ParseBody decodes the JSON body into out.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.NewValidation("Corps de requête invalide").WithCause(err)
	}
	return nil
}

var queryDateLayouts = []string{"2006-01-02", time.RFC3339}

// QueryDate reads an optional date query parameter, nil when absent.
func QueryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.NewValidation("Date invalide: " + name).WithDetail(name, raw)
}

// QueryID reads an optional positive integer query parameter, nil when absent.
func QueryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, apperror.NewValidation("Identifiant invalide: " + name).WithDetail(name, raw)
	}
	v := uint(id)
	return &v, nil
}
