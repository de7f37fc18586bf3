// Package app boots bazaar's shared infrastructure and builds its HTTP
// kernel. Project code plugs in through route callbacks:
//
//	rt, err := app.Boot(ctx)
//	if err != nil { ... }
//	defer rt.Close()
//
//	a := app.New().Routes(func(r *router.Router) {
//	    routes.RegisterAPI(r, routes.Deps{DB: rt.DB, Disk: rt.Disk, Hub: rt.Hub})
//	})
//	err = a.Serve(ctx)
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/notification"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
	"github.com/shashiranjanraj/bazaar/pkg/ws"
)

// Runtime holds the connections opened by Boot.
type Runtime struct {
	DB   *gorm.DB
	Disk storage.Disk
	Hub  *ws.Hub

	closers []func()
}

// Boot loads configuration and connects every backing service. Redis is
// optional: without it the cache is off and the queue runs in memory.
// The feed hub runs until ctx is cancelled.
func Boot(ctx context.Context) (*Runtime, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	rt := &Runtime{}

	if uri := config.LogMongoURI(); uri != "" {
		closeLog, err := logger.EnableMongo(uri, "bazaar", "logs")
		if err != nil {
			logger.Warn("app: mongo log sink disabled", "error", err)
		} else {
			rt.closers = append(rt.closers, closeLog)
		}
	}

	if err := database.Connect(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.DB = database.DB
	rt.closers = append(rt.closers, func() { database.Close() }) //nolint:errcheck

	if err := cache.Connect(); err != nil {
		logger.Warn("app: cache disabled", "error", err)
	}

	storage.Connect()
	rt.Disk = storage.Default()

	queue.Boot()
	queue.UseDB(rt.DB)

	rt.Hub = ws.NewHub()
	go rt.Hub.Run(ctx)
	notification.SetFeed(rt.Hub)

	logger.Info("app: booted",
		"env", config.AppEnv(),
		"db", config.DatabaseDriver(),
		"cache", cache.Enabled(),
		"queue", config.QueueDriver(),
	)
	return rt, nil
}

// Close releases what Boot opened, last first.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// Application collects the route callbacks of a project.
type Application struct {
	routesFns []func(*router.Router)
}

func New() *Application {
	return &Application{}
}

// Routes registers a callback run when the kernel is built. Callbacks run
// in the order given.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// RouteList builds a bare router and reports every route it ends up with.
func (a *Application) RouteList() []router.Route {
	r := router.New()
	for _, fn := range a.routesFns {
		fn(r)
	}
	return r.Routes()
}
