// Copyright (c) 2025 The Aurum developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/aurum-network/aurum/api"
	"github.com/aurum-network/aurum/builtin"
	"github.com/aurum-network/aurum/eventdb"
	"github.com/aurum-network/aurum/genesis"
	"github.com/aurum-network/aurum/log"
	"github.com/aurum-network/aurum/lvldb"
	"github.com/aurum-network/aurum/metrics"
	"github.com/aurum-network/aurum/runtime"
	"github.com/aurum-network/aurum/state"
)

var (
	version   string
	gitCommit string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Aurum",
		Usage:   "Token distribution and incentive engine",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			apiAddrFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(ctx *cli.Context) error {
	lvl, err := log.ParseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	jsonFormat := ctx.Bool(jsonLogsFlag.Name)
	if !isatty.IsTerminal(os.Stderr.Fd()) && !jsonFormat {
		jsonFormat = true
	}
	log.Setup(os.Stderr, jsonFormat)
	return nil
}

func openMainDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		logger.Info("using in-memory state database")
		return lvldb.NewMem()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	return lvldb.New(filepath.Join(dataDir, "state.db"), lvldb.Options{})
}

func openEventDB(ctx *cli.Context) (*eventdb.EventDB, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return eventdb.NewMem()
	}
	return eventdb.New(filepath.Join(dataDir, "events.db"))
}

func selectGenesis(ctx *cli.Context) (*genesis.Config, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		return genesis.LoadConfig(path)
	}
	logger.Info("no genesis file given, using dev preset")
	return genesis.DevConfig(), nil
}

// initState applies the genesis config unless the state carries one already.
func initState(rt *runtime.Runtime, cfg *genesis.Config) error {
	var initialized bool
	if err := rt.View(func(env *runtime.Env) error {
		master, err := builtin.Bind(env).Authority.Master()
		if err != nil {
			return err
		}
		initialized = !master.IsZero()
		return nil
	}); err != nil {
		return err
	}
	if initialized {
		logger.Info("state already initialized, skipping genesis")
		return nil
	}
	logger.Info("applying genesis", "master", cfg.Master)
	return genesis.Build(rt, cfg)
}

func run(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	mainDB, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing state database..."); mainDB.Close() }()

	eventDB, err := openEventDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	rt := runtime.New(state.New(mainDB), runtime.Options{EventWriter: eventDB})
	if err := initState(rt, gene); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: api.New(rt, eventDB)}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	logger.Info("API server started", "addr", listener.Addr().String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("signal received, shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
