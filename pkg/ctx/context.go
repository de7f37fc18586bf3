// Package ctx provides the request context handed to bazaar controllers.
//
// A handler receives a single *Context instead of (w, r):
//
//	func (ctl *BasketController) Show(c *ctx.Context) {
//	    basket, err := ctl.service.Get(c.Context(), c.UserID())
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(basket)
//	}
//
//	api.Get("/basket", "basket.show", ctx.Wrap(ctl.Show))
package ctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/bind"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
	"github.com/shashiranjanraj/bazaar/pkg/response"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamUint parses a numeric path parameter. A non-numeric value is an
// InvalidInput error keyed by the parameter name.
func (c *Context) ParamUint(key string) (uint, error) {
	return parseUint(key, c.Param(key))
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryUint parses an optional numeric query parameter; absent yields 0.
func (c *Context) QueryUint(key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return parseUint(key, raw)
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the real client IP, respecting X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := c.R.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Principal ────────────────────────────────────────────────────────────────

// UserID is the authenticated user's id, or 0 on public routes.
func (c *Context) UserID() uint {
	if cl, ok := auth.FromContext(c.R.Context()); ok {
		return cl.UserID
	}
	return 0
}

// Role is the authenticated user's type ("customer" or "shop").
func (c *Context) Role() string {
	if cl, ok := auth.FromContext(c.R.Context()); ok {
		return cl.Role
	}
	return ""
}

// ─── Per-request store ────────────────────────────────────────────────────────

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *Context) GetUint(key string) uint {
	v, _ := c.Get(key)
	u, _ := v.(uint)
	return u
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes
// the error response and returns false; undecodable JSON is a 400, failed
// validation a 422, both with code invalid_input.
//
//	var in placeOrderInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		if errors.Is(err, bind.ErrBadBody) {
			c.JSON(http.StatusBadRequest, map[string]any{
				"status":  http.StatusBadRequest,
				"code":    apperr.InvalidInput,
				"message": err.Error(),
			})
			return false
		}
		c.Fail(err)
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) Status(code int) {
	c.status = code
	c.W.WriteHeader(code)
}

// JSON writes v without the envelope.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

func (c *Context) Created(data any) {
	c.status = http.StatusCreated
	response.Created(c.W, data)
}

// Paginated writes a page of items with its pagination block.
func (c *Context) Paginated(items any, p orm.Pagination) {
	c.status = http.StatusOK
	response.Paginated(c.W, items, p)
}

func (c *Context) Message(msg string) {
	c.status = http.StatusOK
	response.Message(c.W, msg)
}

func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	response.NoContent(c.W)
}

// Fail renders err with its stable code. Internal errors are logged with
// their cause on the request logger.
func (c *Context) Fail(err error) {
	e := apperr.From(err)
	if e.Code == apperr.Internal {
		logger.WithCtx(c.Context()).Error("request failed", "path", c.R.URL.Path, "error", err)
	}
	c.status = e.Status()
	response.Fail(c.W, e)
}

func (c *Context) ValidationError(errs map[string]string) {
	c.Fail(apperr.Invalid("Validation failed", errs))
}

func (c *Context) Unauthorized(message ...string) {
	c.Fail(apperr.New(apperr.Unauthorized, first(message, "Unauthorized")))
}

func (c *Context) Forbidden(message ...string) {
	c.Fail(apperr.New(apperr.Forbidden, first(message, "Forbidden")))
}

func (c *Context) NotFound(message ...string) {
	c.Fail(apperr.New(apperr.NotFound, first(message, "Not found")))
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }

func first(s []string, def string) string {
	if len(s) > 0 && s[0] != "" {
		return s[0]
	}
	return def
}

func parseUint(key, raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Field(key, fmt.Sprintf("The %s must be a positive integer.", key))
	}
	return uint(n), nil
}
