// gridcalc is a small host shell around the computation engine: it
// evaluates formulas against inline cell values and answers reference
// diagnostics. The real host is a web application; this exists for
// poking at engine behavior from a terminal.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gridcalc/cellref"
	"gridcalc/engine"
	"gridcalc/formula"
	"gridcalc/internal/config"
	"gridcalc/market"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gridcalc",
		Short:         "Spreadsheet computation engine playground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")

	root.AddCommand(newEvalCmd(&configPath))
	root.AddCommand(newRefCmd())
	return root
}

func newEvalCmd(configPath *string) *cobra.Command {
	var cellFlags []string

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a formula against inline cell values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cells, err := parseCellFlags(cellFlags)
			if err != nil {
				return err
			}

			var source formula.PriceSource
			if cfg.Market.Endpoint != "" {
				client := market.NewClient(cfg.Market.Endpoint, cfg.Market.Timeout, log)
				source = market.NewCache(client, cfg.Market.Freshness, log)
			}

			eng := engine.New(mapLookup(cells), source, log)
			computed := eng.EvaluateFormula(uuid.Nil, args[0])
			if computed.Value == nil {
				return fmt.Errorf("formula did not evaluate: %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), render(computed.Value))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&cellFlags, "cell", nil, "cell value as REF=NUMBER, repeatable")
	return cmd
}

func newRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ref <range>",
		Short: "Expand a cell or range reference to coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords := cellref.ExpandRange(args[0])
			if coords == nil {
				return fmt.Errorf("invalid reference: %s", args[0])
			}
			for _, c := range coords {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tcol=%d row=%d\n", cellref.Format(c), c.Col, c.Row)
			}
			return nil
		},
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// parseCellFlags turns repeated REF=NUMBER flags into a value map
func parseCellFlags(flags []string) (map[cellref.Coord]float64, error) {
	cells := make(map[cellref.Coord]float64)
	for _, f := range flags {
		ref, raw, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --cell %q, want REF=NUMBER", f)
		}
		coord, ok := cellref.Parse(ref)
		if !ok {
			return nil, fmt.Errorf("invalid cell reference %q", ref)
		}
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %q", ref, raw)
		}
		cells[coord] = num
	}
	return cells, nil
}

func mapLookup(cells map[cellref.Coord]float64) formula.Lookup {
	return formula.LookupFunc(func(_ formula.SheetID, col, row int) (float64, bool) {
		v, ok := cells[cellref.Coord{Col: col, Row: row}]
		return v, ok
	})
}

func render(v formula.Value) string {
	if num, ok := v.(float64); ok {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
