package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/keilerkonzept/graphperf/internal/logging"
	"github.com/keilerkonzept/graphperf/internal/replay"
	"github.com/keilerkonzept/graphperf/internal/report"
)

func newReplayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a scripted session on a virtual clock and print its report",
		Long: `Replays a YAML scenario against a fresh session. Frames, memory readings,
debounced reverts and scripted pointer events are delivered on a virtual clock,
so frame rates and activity attribution are reproducible. Topology generation
and sorting are still measured in real time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := replay.LoadScenario(args[0])
			if err != nil {
				return err
			}
			res, err := replay.Run(sc, replay.Options{
				RecentWindow:   a.cfg.StatsWindow,
				HotNodes:       a.hotNodeOptions(),
				MemoryInterval: a.cfg.MemoryInterval,
			}, logging.NewLogger("replay"))
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := marshalSummary(res.Report)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			_, err = fmt.Fprintln(out, res.Text)
			return err
		},
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func marshalSummary(r report.Report) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

// writeReports stores the final report in the optional output files.
func writeReports(r report.Report, text, textPath, jsonPath string) error {
	if textPath != "" {
		if err := os.WriteFile(textPath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if jsonPath != "" {
		data, err := marshalSummary(r)
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}
