package app

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/reqid"
	"github.com/shashiranjanraj/bazaar/pkg/router"
)

// Handler builds the HTTP kernel: global middleware, /metrics and every
// registered route.
func (a *Application) Handler() http.Handler {
	r := router.New()

	// Outermost first:
	//  1. metrics     total latency including the rest of the chain
	//  2. recovery    panics become 500 envelopes
	//  3. request id  before anything logs
	//  4. logger      request-scoped logger carrying request_id
	//  5. cors
	//  6. rate limit
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSFromConfig()))
	r.Use(middleware.RateLimit(config.RateLimit(), time.Minute))

	r.Get("/metrics", "metrics", metrics.Handler())

	for _, fn := range a.routesFns {
		fn(r)
	}
	return r.Handler()
}
