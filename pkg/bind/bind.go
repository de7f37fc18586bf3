// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// ErrBadBody marks decode failures (malformed JSON, oversized body) as
// opposed to validation failures.
var ErrBadBody = errors.New("bind: bad request body")

func maxBodyBytes() int64 {
	n := int64(config.GetInt("MAX_BODY_BYTES", 4<<20))
	if n <= 0 {
		return 4 << 20
	}
	return n
}

// JSON decodes r.Body as JSON into dest and runs validation. The body is
// capped at MAX_BODY_BYTES (default 4 MB).
//
// Returns (errs, nil) on validation failures and (nil, err) wrapping
// ErrBadBody when the body cannot be decoded. An empty body decodes as {}.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: body too large (max %d bytes)", ErrBadBody, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrBadBody, err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}
