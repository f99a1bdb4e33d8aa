package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotbundle/hotbundle/internal/branding"
	"github.com/hotbundle/hotbundle/internal/manifest"
	"github.com/hotbundle/hotbundle/internal/updater"
)

var (
	updateVersion     string
	updateArchiveHash string
	updateBundleHash  string
	updateManifest    string
)

func init() {
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "Bundle version to install")
	updateCmd.Flags().StringVar(&updateArchiveHash, "archive-hash", "", "Expected sha256 of the archive")
	updateCmd.Flags().StringVar(&updateBundleHash, "bundle-hash", "", "Expected sha256 of the extracted bundle")
	updateCmd.Flags().StringVar(&updateManifest, "manifest", "", "Read version and hashes from an update manifest")
	updateCmd.MarkFlagsMutuallyExclusive("manifest", "version")
	updateCmd.MarkFlagsRequiredTogether("version", "archive-hash", "bundle-hash")
	updateCmd.MarkFlagsOneRequired("manifest", "version")

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch, verify and activate a bundle version",
	Long: `Downloads the archive for a bundle version, verifies the archive and the
extracted bundle against the given sha256 hashes, and activates it. On any
failure the previously active bundle stays in place.

  ` + branding.CLIName() + ` update --version 7 --archive-hash <sha256> --bundle-hash <sha256>
  ` + branding.CLIName() + ` update --manifest ./manifest.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := updater.Request{
			Version:     updateVersion,
			ArchiveHash: updateArchiveHash,
			BundleHash:  updateBundleHash,
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if updateManifest != "" {
			m, err := manifest.Load(updateManifest)
			if err != nil {
				return err
			}
			ok, err := m.AppliesTo(a.settings.AppVersion)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("bundle %s requires app version %s, running %s", m.Version, m.MinAppVersion, a.settings.AppVersion)
			}
			req = updater.Request{Version: m.Version, ArchiveHash: m.ArchiveHash, BundleHash: m.BundleHash}
		}

		u, err := a.updater(cmd.Context())
		if err != nil {
			return err
		}

		res, applyErr := u.Apply(cmd.Context(), req)
		if err := updater.SaveReport(a.reportDir(), updater.NewReport(res, applyErr)); err != nil {
			a.log.WithError(err).Warn("saving update report")
		}
		if applyErr != nil {
			return applyErr
		}

		w := cmd.OutOrStdout()
		if res.Outcome == updater.OutcomeAlreadyApplied {
			fmt.Fprintf(w, "Bundle %s is already active\n", res.Version)
			return nil
		}
		fmt.Fprintf(w, "Activated bundle %s\n", res.Version)
		return nil
	},
}
