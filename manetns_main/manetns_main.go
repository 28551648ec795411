// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package manetns_main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/openmanet/manet-ns/cli"
	"github.com/openmanet/manet-ns/logger"
	"github.com/openmanet/manet-ns/progctx"
	"github.com/openmanet/manet-ns/routing"
	"github.com/openmanet/manet-ns/simulation"
)

const (
	EnvLogLevel  = "MANETNS_LOG_LEVEL"
	EnvOutputDir = "MANETNS_OUTPUT_DIR"
	EnvSeed      = "MANETNS_SEED"
)

type MainArgs struct {
	Seed      int64
	Stop      cli.Duration
	OutputDir string
	LogLevel  string
	Sqlite    bool
	Pcap      string
	Spans     bool
	NodesFile string
}

// Main runs the command line and returns the process exit code.
func Main(ctx *progctx.ProgCtx, argv []string, stdout io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("ignoring .env file: %v", err)
	}
	atexit.Register(logger.Sync)

	root := newRootCmd(ctx)
	root.SetArgs(argv)
	root.SetOut(stdout)
	if err := root.Execute(); err != nil {
		logger.Errorf("%+v", err)
		return 1
	}
	return 0
}

func newRootCmd(ctx *progctx.ProgCtx) *cobra.Command {
	root := &cobra.Command{
		Use:   "manet-ns",
		Short: "manet-ns runs discrete-event simulations of mobile ad-hoc networks.",
		Long: `manet-ns runs discrete-event simulations of mobile ad-hoc networks. A scenario file ` +
			`describes the nodes, links, mobility, routing and traffic; the run writes position and ` +
			`packet traces plus KPIs to the output directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(ctx), newValidateCmd())
	return root
}

func newRunCmd(ctx *progctx.ProgCtx) *cobra.Command {
	args := &MainArgs{}
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			if err := setLogLevel(args.LogLevel); err != nil {
				return err
			}
			cfg, err := loadScenario(posArgs[0], cmd, args)
			if err != nil {
				return err
			}
			return runScenario(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&args.Seed, "seed", 0, "override the scenario random seed (env "+EnvSeed+")")
	flags.Var(&args.Stop, "stop", "override the scenario stop time, e.g. 30s")
	flags.StringVar(&args.OutputDir, "out", os.Getenv(EnvOutputDir), "output directory (env "+EnvOutputDir+")")
	flags.StringVar(&args.LogLevel, "log", envOr(EnvLogLevel, "info"), "log level: trace, debug, info, warn, error, off (env "+EnvLogLevel+")")
	flags.BoolVar(&args.Sqlite, "sqlite", false, "also write the trace to a SQLite database")
	flags.StringVar(&args.Pcap, "pcap", "", "write Tx packets to a pcap file: off, ipv4, ethernet")
	flags.Lookup("pcap").NoOptDefVal = "ipv4"
	flags.BoolVar(&args.Spans, "spans", false, "write OpenTelemetry spans of the run phases")
	flags.StringVar(&args.NodesFile, "nodes", "", "start from the nodes of an exported nodes file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			cfg, err := simulation.LoadConfig(posArgs[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes, %d traffic entries, routing %s (available: %v), stop at %v\n",
				cfg.Name, cfg.Nodes.Count, len(cfg.Traffic), cfg.Routing, routing.Names(), cfg.Stop)
			return err
		},
	}
}

func setLogLevel(level string) error {
	lv, err := logger.ParseLevelString(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)
	return nil
}

// loadScenario reads the scenario and applies the command-line overrides.
func loadScenario(path string, cmd *cobra.Command, args *MainArgs) (*simulation.Config, error) {
	cfg, err := simulation.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = args.Seed
	} else if s := os.Getenv(EnvSeed); s != "" {
		if _, err = fmt.Sscan(s, &cfg.Seed); err != nil {
			return nil, errors.Wrapf(err, "%s=%q", EnvSeed, s)
		}
	}
	if flags.Changed("stop") {
		cfg.Stop = args.Stop
	}
	if args.OutputDir != "" {
		cfg.Output.Dir = args.OutputDir
	}
	if args.Sqlite {
		cfg.Output.Sqlite = true
	}
	if args.Pcap != "" {
		cfg.Output.Pcap = args.Pcap
	}
	if args.Spans {
		cfg.Output.Spans = true
	}
	if args.NodesFile != "" {
		nodes, err := simulation.LoadNodesFile(args.NodesFile)
		if err != nil {
			return nil, err
		}
		if err = simulation.ImportNodes(cfg, nodes); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func runScenario(ctx *progctx.ProgCtx, cfg *simulation.Config) error {
	sim, err := simulation.NewSimulation(ctx, cfg)
	if err != nil {
		return errors.Wrapf(err, "setup of scenario %q", cfg.Name)
	}

	handleSignals(ctx)
	runErr := sim.Run()
	if runErr != nil {
		logger.Warnf("%v", runErr)
	}
	if err = sim.Teardown(); err != nil {
		return err
	}
	logger.Infof("outputs of run %s written to %s", sim.Id(), cfg.Output.Dir)
	return runErr
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		select {
		case sig := <-c:
			logger.Infof("signal received: %v", sig)
			ctx.Cancel(errors.Errorf("signal %v", sig))
		case <-ctx.Done():
		}
	}()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
