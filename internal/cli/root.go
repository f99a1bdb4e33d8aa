package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hotbundle/hotbundle/internal/branding"
	"github.com/hotbundle/hotbundle/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` resolves which application bundle to load from a local cache and
installs verified bundle updates fetched from HTTP, S3 or a mirror directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.Reset()
		path := configPath
		if path == "" {
			path = config.FilePath()
		}
		if err := config.LoadInto(viper.GetViper(), path); err != nil {
			return err
		}
		if buildVersion != "" && buildVersion != "dev" {
			viper.SetDefault("app_version", buildVersion)
		}
		return nil
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
