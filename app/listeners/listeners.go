// Package listeners connects domain events to their side effects.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/jobs"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
)

// Register installs every listener. Call once at boot.
func Register() {
	event.Listen(events.CatalogChanged, flushCatalog)
	event.Listen(events.UserRegistered, sendConfirmation)
	event.Listen(events.OrderPlaced, notifyOrder)
	event.Listen(events.PriceListImported, reportImport)
}

func flushCatalog(ctx context.Context, _ any) {
	if err := services.FlushCatalogCache(); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache flush failed", "error", err)
	}
}

func sendConfirmation(ctx context.Context, payload any) {
	p, ok := payload.(events.UserRegisteredPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.SendConfirmation{UserID: p.UserID, Email: p.Email, Token: p.Token})
}

func notifyOrder(ctx context.Context, payload any) {
	p, ok := payload.(events.OrderPlacedPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.NotifyOrderPlaced{OrderID: p.OrderID, UserID: p.UserID})
}

func reportImport(ctx context.Context, payload any) {
	p, ok := payload.(events.PriceListImportedPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.ReportImport{UserID: p.UserID, Shop: p.Shop, Categories: p.Categories, Products: p.Products})
}

func dispatch(ctx context.Context, job queue.Job) {
	if err := queue.Dispatch(ctx, job); err != nil {
		logger.WithCtx(ctx).Error("queue: dispatch failed", "job", job.Name(), "error", err)
	}
}
