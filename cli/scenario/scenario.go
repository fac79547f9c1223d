package scenario

import (
	"fmt"

	"github.com/prosopo/obce/cli/cmdargs"
	"github.com/prosopo/obce/cli/options"
	"github.com/prosopo/obce/pkg/config"
	"github.com/prosopo/obce/pkg/scenario"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var selectionFlags = []cli.Flag{
	cli.StringSliceFlag{
		Name:  "scenario",
		Usage: "regex matching the whole name of the scenario to run (can be repeated, all are run by default)",
	},
	cli.StringSliceFlag{
		Name:  "skip",
		Usage: "regex matching the whole name of the scenario not to run (can be repeated)",
	},
}

// NewCommands returns 'scenario' command.
func NewCommands() []cli.Command {
	runFlags := append([]cli.Flag{
		options.ConfigFile,
		options.Seed,
		options.Debug,
		cli.IntFlag{
			Name:  "runs",
			Value: 1,
			Usage: "number of times to run every scenario",
		},
		cli.IntFlag{
			Name:  "parallel",
			Value: 1,
			Usage: "maximum number of scenario runs executed simultaneously",
		},
		cli.StringFlag{
			Name:  "report",
			Usage: "path to the report file (overrides configuration)",
		},
	}, options.RPC...)
	runFlags = append(runFlags, selectionFlags...)
	return []cli.Command{{
		Name:  "scenario",
		Usage: "Contract behaviour scenarios",
		Subcommands: []cli.Command{
			{
				Name:      "run",
				Usage:     "Run scenarios against the node",
				UsageText: "contract-harness scenario run [--config-file file] [-r endpoint] [--scenario regex]... [--skip regex]... [--runs n] [--parallel n]",
				Description: `Deploys a fresh contract instance for every scenario run, performs
   scenario calls and checks their outcomes. The summary table is printed to
   the standard output, the command fails if any of the scenarios fails.
`,
				Action: runScenarios,
				Flags:  runFlags,
			},
			{
				Name:   "list",
				Usage:  "List scenario names",
				Action: listScenarios,
				Flags:  selectionFlags,
			},
			{
				Name:      "report",
				Usage:     "Print the summary of the report saved by 'scenario run'",
				UsageText: "contract-harness scenario report [--format json|yaml] <file>",
				Action:    showReport,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:  "format, f",
						Value: string(config.ReportJSON),
						Usage: "report file format (json or yaml)",
					},
				},
			},
		},
	}}
}

func runScenarios(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if report := ctx.String("report"); report != "" {
		cfg.Report.Path = report
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	r := &scenario.Runner{
		Config:   cfg.Harness,
		Log:      log,
		Include:  ctx.StringSlice("scenario"),
		Skip:     ctx.StringSlice("skip"),
		Runs:     ctx.Int("runs"),
		Parallel: ctx.Int("parallel"),
	}
	log.Info("running scenarios",
		zap.String("endpoint", cfg.Harness.Endpoint),
		zap.String("version", config.Version))
	rep, err := r.Run(gctx, scenario.Default())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	rep.Summary(ctx.App.Writer)

	err = rep.WriteFile(cfg.Report)
	if err != nil {
		log.Error("failed to write report", zap.Error(err))
	}
	if pushErr := scenario.PushMetrics(cfg.Metrics); pushErr != nil {
		log.Warn("metrics are not pushed", zap.Error(pushErr))
	}
	if failed := rep.Err(); failed != nil {
		err = multierr.Append(fmt.Errorf("%d of %d scenario runs failed: %w", rep.Failed, len(rep.Scenarios), failed), err)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func listScenarios(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	list, err := scenario.Select(scenario.Default(), ctx.StringSlice("scenario"), ctx.StringSlice("skip"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, sc := range list {
		fmt.Fprintln(ctx.App.Writer, sc.Name)
	}
	return nil
}

func showReport(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("exactly one report file is expected", 1)
	}
	rep, err := scenario.ReadFile(config.Report{
		Path:   args.First(),
		Format: config.ReportFormat(ctx.String("format")),
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	rep.Summary(ctx.App.Writer)
	if rep.Failed != 0 {
		return cli.NewExitError(fmt.Errorf("%d of %d scenario runs failed", rep.Failed, len(rep.Scenarios)), 1)
	}
	return nil
}
