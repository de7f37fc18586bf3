package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
)

var (
	importUserFlag uint
	importURLFlag  string
)

// bazaar partner:import imports a price list on behalf of a shop user, the
// same way POST /api/partner/update does.
var partnerImportCmd = &cobra.Command{
	Use:   "partner:import",
	Short: "Import a partner price list from a URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		queue.SetSync(true)

		res, err := services.NewImportService(rt.DB, rt.Disk).Import(ctx, importUserFlag, importURLFlag)
		event.Wait()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("print result: %w", err)
		}
		return nil
	},
}

func init() {
	partnerImportCmd.Flags().UintVar(&importUserFlag, "user", 0, "id of the shop user that owns the price list")
	partnerImportCmd.Flags().StringVar(&importURLFlag, "url", "", "price list URL")
	partnerImportCmd.MarkFlagRequired("user") //nolint:errcheck
	partnerImportCmd.MarkFlagRequired("url")  //nolint:errcheck
}
