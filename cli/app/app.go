package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/prosopo/obce/cli/contract"
	"github.com/prosopo/obce/cli/scenario"
	"github.com/prosopo/obce/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "contract-harness\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a contract-harness instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "contract-harness"
	ctl.Version = config.Version
	ctl.Usage = "Contract behaviour verification harness"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, scenario.NewCommands()...)
	ctl.Commands = append(ctl.Commands, contract.NewCommands()...)
	return ctl
}
