// Command tenant-token mints bearer tokens that let a chat transport post guest messages on
// behalf of a tenant.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"concierge/config"
	"concierge/database"
	tenantRepo "concierge/database/repository/tenant"
	"concierge/utils"

	"github.com/spf13/cobra"
)

var (
	validFor    time.Duration
	checkTenant bool
)

var rootCmd = &cobra.Command{
	Use:   "tenant-token <tenant-id>",
	Short: "Mint a concierge API token for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runMint,
}

func init() {
	rootCmd.Flags().DurationVar(&validFor, "valid-for", 90*24*time.Hour, "token lifetime")
	rootCmd.Flags().BoolVar(&checkTenant, "check", true, "verify the tenant exists and is active")
}

func runMint(cmd *cobra.Command, args []string) error {
	config.LoadConfig()
	tenantID := args[0]

	if checkTenant {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := database.InitDB(ctx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background())

		if _, err := tenantRepo.NewMongoTenantRepo().GetByID(ctx, tenantID); err != nil {
			if errors.Is(err, tenantRepo.ErrNotFound) {
				return fmt.Errorf("tenant %q does not exist or is inactive", tenantID)
			}
			return err
		}
	}

	token, err := utils.GenerateTenantToken(tenantID, validFor)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
