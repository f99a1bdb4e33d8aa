package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/config"
)

var resolveJSON bool

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the resolution as JSON")
	rootCmd.AddCommand(resolveCmd)
}

type resolveOutput struct {
	Location string `json:"location"`
	Fallback bool   `json:"fallback"`
	Outcome  string `json:"outcome"`
	Version  string `json:"version,omitempty"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the bundle the application should load",
	Long: `Prints the path of the active cached bundle, or the fallback marker for the
bundle packaged with the application. Never fails: an unusable cache or
configuration resolves to the fallback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := resolveOutput{
			Location: bundle.DefaultFallbackScheme + bundle.DefaultBundleFileName,
			Fallback: true,
			Outcome:  "fallback_unconfigured",
		}

		a, err := newApp()
		if err != nil {
			if s, decodeErr := config.Current(); decodeErr == nil {
				out.Location = s.FallbackScheme + s.BundleFile
			}
		} else {
			defer a.close()
			res := a.resolver().Resolve()
			out = resolveOutput{
				Location: res.Location.String(),
				Fallback: res.Location.Fallback,
				Outcome:  res.Outcome,
			}
			if res.Record != nil && !res.Location.Fallback {
				out.Version = res.Record.Version
			}
		}

		w := cmd.OutOrStdout()
		if resolveJSON {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling resolution: %w", err)
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		fmt.Fprintln(w, out.Location)
		return nil
	},
}
