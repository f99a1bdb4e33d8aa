package cli

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/hotbundle/hotbundle/internal/bundle"
)

func init() {
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached bundles and the update record",
	Long: `Deletes every cached bundle version, the staging area and the update
record. The application falls back to its packaged bundle afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		var result *multierror.Error
		if err := bundle.ClearRecord(a.store); err != nil {
			result = multierror.Append(result, err)
		}
		if err := a.layout.Purge(); err != nil {
			result = multierror.Append(result, fmt.Errorf("removing cached bundles: %w", err))
		}
		if err := a.layout.ClearStaging(); err != nil {
			result = multierror.Append(result, fmt.Errorf("removing staging area: %w", err))
		}
		if err := result.ErrorOrNil(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Removed cached bundles and update record")
		return nil
	},
}
