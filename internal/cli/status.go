package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hotbundle/hotbundle/internal/bundle"
	"github.com/hotbundle/hotbundle/internal/updater"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	DataDir    string          `json:"data_dir"`
	Record     *bundle.Record  `json:"record"`
	Location   string          `json:"location"`
	Outcome    string          `json:"outcome"`
	Slots      []string        `json:"slots"`
	LastUpdate *updater.Report `json:"last_update"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the update record, active bundle and cached versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		res := a.resolver().Resolve()
		slots, err := a.layout.Slots()
		if err != nil {
			return err
		}
		report, err := updater.LoadReport(a.reportDir())
		if err != nil {
			a.log.WithError(err).Warn("reading last update report")
		}

		st := statusOutput{
			DataDir:    a.settings.DataDir,
			Location:   res.Location.String(),
			Outcome:    res.Outcome,
			Slots:      slots,
			LastUpdate: report,
		}
		// A fallback outcome means the record was absent or has just been cleared.
		if !res.Location.Fallback {
			st.Record = res.Record
		}

		w := cmd.OutOrStdout()
		if statusJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling status: %w", err)
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		printStatus(w, st)
		return nil
	},
}

func printStatus(w io.Writer, st statusOutput) {
	fmt.Fprintf(w, "Data directory: %s\n", st.DataDir)
	if st.Record != nil {
		fmt.Fprintf(w, "Active version: %s (%s)\n", st.Record.Version, st.Record.BundleHash)
	} else {
		fmt.Fprintln(w, "Active version: none")
	}
	fmt.Fprintf(w, "Bundle:         %s [%s]\n", st.Location, st.Outcome)
	if len(st.Slots) == 0 {
		fmt.Fprintln(w, "Cached:         none")
	} else {
		fmt.Fprintf(w, "Cached:         %v\n", st.Slots)
	}
	if r := st.LastUpdate; r != nil {
		fmt.Fprintf(w, "Last update:    %s %s at %s", r.Version, r.Outcome, r.FinishedAt.Format("2006-01-02 15:04:05"))
		if r.Error != "" {
			fmt.Fprintf(w, " (%s)", r.Error)
		}
		fmt.Fprintln(w)
	}
}
