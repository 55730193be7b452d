// Package requestid assigns a unique id to every incoming request.
package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the request id.
const HeaderName = "X-Request-Id"

// New returns a middleware that stores a fresh uuid under the
// "request_id" local and echoes it in the response headers.
// An id supplied by the client in X-Request-Id is kept as-is.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals("request_id", rid)
		c.Set(HeaderName, rid)

		return c.Next()
	}
}
