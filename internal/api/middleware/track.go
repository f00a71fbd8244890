package middleware

import (
	"github.com/123qassim/mumbso/internal/api/contract"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TrackID reuses a caller supplied X-Track-ID or assigns a new one.
func TrackID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(contract.TrackIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		contract.SetTrackID(c, id)
		return c.Next()
	}
}
