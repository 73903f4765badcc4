package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"siding-takeoff/core/engine"
	"siding-takeoff/core/output"
	"siding-takeoff/internal/config"
	"siding-takeoff/internal/logging"
)

var (
	outputFormat string
	showSkips    bool
	noColor      bool
)

// calculateCmd runs a takeoff for a request document
var calculateCmd = &cobra.Command{
	Use:   "calculate <request.json>",
	Short: "Calculate a priced takeoff",
	Long: `Calculate a priced takeoff from a request document.

The request carries the stored measurement record, the raw client payload
(which may include per_material_measurements) and material assignments.
Use - to read the request from stdin.

Examples:
  takeoff calculate request.json
  takeoff calculate --format json request.json
  cat request.json | takeoff calculate -`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, json)")
	calculateCmd.Flags().BoolVar(&showSkips, "skips", false, "list skipped rules")
	calculateCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	req, err := readRequest(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	b := openBackends(ctx, cfg)
	defer b.Close()

	takeoff, err := newOrchestrator(cfg, b).Calculate(ctx, req)
	if err != nil {
		return err
	}
	defer logging.Sync()

	format := outputFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	formatter, err := output.Get(format)
	if err != nil {
		return err
	}
	if tf, ok := formatter.(*output.TableFormatter); ok {
		formatter = &output.TableFormatter{
			NoColor:   noColor || tf.NoColor,
			ShowSkips: showSkips || cfg.Output.ShowSkips,
		}
	}
	return formatter.Render(cmd.OutOrStdout(), takeoff)
}

func readRequest(stdin io.Reader, path string) (engine.Request, error) {
	var (
		req  engine.Request
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return req, nil
}
