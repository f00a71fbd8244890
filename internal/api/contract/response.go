package contract

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	TrackIDHeader = "X-Track-ID"
	trackIDKey    = "trackID"
)

type Response struct {
	Successful bool   `json:"successful"`
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	TrackID    string `json:"x_track_id"`
	Result     any    `json:"result"`
}

// TrackID returns the id assigned to the current request, minting one if the middleware did not run.
func TrackID(c *fiber.Ctx) string {
	if id, ok := c.Locals(trackIDKey).(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	c.Locals(trackIDKey, id)
	return id
}

// SetTrackID stores id for the rest of the request and echoes it in the response headers.
func SetTrackID(c *fiber.Ctx, id string) {
	c.Locals(trackIDKey, id)
	c.Set(TrackIDHeader, id)
}
