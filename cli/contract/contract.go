package contract

import (
	"errors"
	"fmt"

	"github.com/prosopo/obce/cli/cmdargs"
	"github.com/prosopo/obce/cli/options"
	"github.com/prosopo/obce/pkg/callresult"
	"github.com/prosopo/obce/pkg/contract"
	"github.com/prosopo/obce/pkg/env"
	"github.com/prosopo/obce/pkg/rpcclient/extension"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var errNoOutput = errors.New("no output files specified, use '--out' and '--manifest'")

// NewCommands returns 'contract' command.
func NewCommands() []cli.Command {
	envFlags := append([]cli.Flag{
		options.ConfigFile,
		options.Seed,
		options.Debug,
	}, options.RPC...)
	return []cli.Command{{
		Name:  "contract",
		Usage: "Target contract helpers",
		Subcommands: []cli.Command{
			{
				Name:      "compile",
				Usage:     "Compile the contract configured into NEF and manifest files",
				UsageText: "contract-harness contract compile [--config-file file] --out file.nef --manifest file.manifest.json",
				Action:    compileContract,
				Flags: []cli.Flag{
					options.ConfigFile,
					cli.StringFlag{
						Name:  "out, o",
						Usage: "output NEF file",
					},
					cli.StringFlag{
						Name:  "manifest, m",
						Usage: "output manifest file",
					},
				},
			},
			{
				Name:      "deploy",
				Usage:     "Deploy a fresh contract instance and print its hash",
				UsageText: "contract-harness contract deploy [--config-file file] [-r endpoint] [--seed seed]",
				Action:    deployContract,
				Flags:     envFlags,
			},
			{
				Name:      "call",
				Usage:     "Deploy a fresh contract instance and call its method",
				UsageText: "contract-harness contract call [--config-file file] [-r endpoint] [--tx] <method> [<int>...]",
				Description: `Calls one of contract methods (successfulMethod, erroneousMethod,
   criticallyErroneousMethod, multiArgMethod, weightLinearMethod) with integer
   arguments given and prints the decoded result. Test invocation is used by
   default, --tx sends a transaction and awaits it instead.
`,
				Action: callContract,
				Flags: append(envFlags, cli.BoolFlag{
					Name:  "tx",
					Usage: "send a transaction instead of test invocation",
				}),
			},
		},
	}}
}

func compileContract(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	nefFile, manifestFile := ctx.String("out"), ctx.String("manifest")
	if nefFile == "" || manifestFile == "" {
		return cli.NewExitError(errNoOutput, 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	a, err := contract.Load(cfg.Harness.Contract)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := a.WriteFiles(nefFile, manifestFile); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%s: checksum %d\n", a.Manifest.Name, a.NEF.Checksum)
	return nil
}

// withEnv sets up an environment according to the flags given and calls f
// with it, the environment is closed afterwards.
func withEnv(ctx *cli.Context, f func(e *env.Env) error) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	e, err := env.Setup(gctx, cfg.Harness, env.Options{Logger: log})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer e.Close()
	log.Info("contract deployed", zap.String("name", e.Instance.Manifest.Name), zap.Stringer("hash", e.Hash))
	return f(e)
}

func deployContract(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	return withEnv(ctx, func(e *env.Env) error {
		fmt.Fprintf(ctx.App.Writer, "Contract: %s\nName: %s\n", e.Hash.StringLE(), e.Instance.Manifest.Name)
		return nil
	})
}

func callContract(ctx *cli.Context) error {
	args := ctx.Args()
	if !args.Present() {
		return cli.NewExitError("no method specified", 1)
	}
	call, err := methodCall(args.First(), args.Tail(), ctx.Bool("tx"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return withEnv(ctx, func(e *env.Env) error {
		res, err := call(e)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, res.String())
		return nil
	})
}

type caller func(e *env.Env) (*callresult.Result, error)

func methodCall(method string, rawArgs []string, tx bool) (caller, error) {
	var argc int
	switch method {
	case extension.MultiArgMethodName:
		argc = 2
	case extension.WeightLinearMethodName:
		argc = 1
	case extension.SuccessfulMethodName, extension.ErroneousMethodName, extension.CriticallyErroneousMethodName:
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
	args, err := cmdargs.ParseInts(rawArgs, argc)
	if err != nil {
		return nil, err
	}
	if tx {
		return func(e *env.Env) (*callresult.Result, error) {
			switch method {
			case extension.SuccessfulMethodName:
				return e.Transact(e.Tx.SuccessfulMethodTx())
			case extension.ErroneousMethodName:
				return e.Transact(e.Tx.ErroneousMethodTx())
			case extension.CriticallyErroneousMethodName:
				return e.Transact(e.Tx.CriticallyErroneousMethodTx())
			case extension.MultiArgMethodName:
				return e.Transact(e.Tx.MultiArgMethodTx(args[0], args[1]))
			default:
				return e.Transact(e.Tx.WeightLinearMethodTx(args[0]))
			}
		}, nil
	}
	return func(e *env.Env) (*callresult.Result, error) {
		switch method {
		case extension.SuccessfulMethodName:
			return e.Query.SuccessfulMethod()
		case extension.ErroneousMethodName:
			return e.Query.ErroneousMethod()
		case extension.CriticallyErroneousMethodName:
			return e.Query.CriticallyErroneousMethod()
		case extension.MultiArgMethodName:
			return e.Query.MultiArgMethod(args[0], args[1])
		default:
			return e.Query.WeightLinearMethod(args[0])
		}
	}, nil
}
