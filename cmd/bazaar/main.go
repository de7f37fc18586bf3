// Command bazaar runs the storefront API and its maintenance tasks.
//
//	bazaar serve
//	bazaar migrate
//	bazaar queue:work --workers 4
//	bazaar schedule:run
//	bazaar partner:import --user 3 --url https://partner.example/prices.yaml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/app/jobs"
	"github.com/shashiranjanraj/bazaar/app/listeners"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/pkg/app"
	"github.com/shashiranjanraj/bazaar/pkg/router"

	_ "github.com/shashiranjanraj/bazaar/database/migrations"
	_ "github.com/shashiranjanraj/bazaar/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bazaar",
	Short:         "Bazaar storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleRunCmd)
	rootCmd.AddCommand(partnerImportCmd)
}

// boot connects the backing services and subscribes the domain listeners.
func boot(ctx context.Context) (*app.Runtime, error) {
	rt, err := app.Boot(ctx)
	if err != nil {
		return nil, err
	}
	jobs.Register()
	listeners.Register()
	return rt, nil
}

// application mounts the API on rt. A nil rt builds routes without backing
// connections, which is enough for route:list.
func application(rt *app.Runtime) *app.Application {
	deps := routes.Deps{}
	if rt != nil {
		deps = routes.Deps{DB: rt.DB, Disk: rt.Disk, Hub: rt.Hub}
	}
	return app.New().Routes(func(r *router.Router) {
		routes.RegisterAPI(r, deps)
	})
}
