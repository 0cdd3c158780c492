package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"

	umpire "github.com/umpire-ci/umpire/src"
	"github.com/umpire-ci/umpire/src/config"
)

var buildVersion = "dev"
var buildCommit = "dirty"

func main() {
	args := &CLI{}
	parser, err := parseArgs(args)
	abort(parser, err)

	logger := config.ConfigureLogger(args.Debug)

	abort(parser, Run(parser, args, logger))
}

type CLI struct {
	Debug  bool              `arg:"--debug" help:"debugging output"`
	Decide *umpire.DecideCmd `arg:"subcommand:decide" help:"classify a change set and plan job-groups"`
	Heal   *umpire.HealCmd   `arg:"subcommand:heal" help:"match a failure against known patterns and apply a fix"`
	Serve  *umpire.ServeCmd  `arg:"subcommand:serve" help:"run the decision API"`
}

func Version() string {
	return fmt.Sprintf("%s (%s)", buildVersion, buildCommit)
}

func (CLI) Version() string {
	return fmt.Sprintf("umpire %s", Version())
}

func abort(parser *arg.Parser, err error) {
	switch err {
	case nil:
		return
	case arg.ErrHelp:
		parser.WriteHelp(os.Stderr)
		os.Exit(0)
	case arg.ErrVersion:
		fmt.Fprintln(os.Stdout, Version())
		os.Exit(0)
	default:
		fmt.Fprint(os.Stderr, err, "\n")
		os.Exit(1)
	}
}

func parseArgs(args *CLI) (parser *arg.Parser, err error) {
	parser, err = arg.NewParser(arg.Config{}, args)
	if err != nil {
		return
	}

	err = parser.Parse(os.Args[1:])
	return
}

func Run(parser *arg.Parser, args *CLI, logger *zerolog.Logger) error {
	switch {
	case args.Decide != nil:
		return args.Decide.Run(logger)
	case args.Heal != nil:
		return args.Heal.Run(logger)
	case args.Serve != nil:
		return args.Serve.Run(logger)
	default:
		parser.WriteHelp(os.Stderr)
	}
	return nil
}
