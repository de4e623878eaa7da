// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shashiranjanraj/pehnawa/config"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/validate"
)

func maxBodyBytes() int64 {
	if n := int64(config.Int("MAX_BODY_BYTES", 4<<20)); n > 0 {
		return n
	}
	return 4 << 20
}

// JSON decodes r.Body into dest and validates it. Every failure is an
// apperr validation error: malformed or oversized bodies carry a message,
// rule failures carry per-field messages.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Validation("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		default:
			return apperr.Validation("invalid JSON: %v", err)
		}
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return apperr.ValidationFields(errs)
	}
	return nil
}
