// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"diskengine/internal/extops"
	"diskengine/internal/metrics"
	"diskengine/internal/plan"
	"diskengine/internal/scanner"
	"diskengine/internal/systems"
	"diskengine/internal/version"
	"diskengine/internal/world"
)

func main() {
	var (
		planPath     string
		dryRun       bool
		verbosity    int
		metricsAddr  string
		printVersion bool
	)
	flag.StringVar(&planPath, "plan", "", "Path to a YAML plan file describing the mutations to stage.")
	flag.BoolVar(&dryRun, "dry-run", false, "Stage the plan's mutations and print a summary without applying them.")
	flag.IntVar(&verbosity, "v", 0, "Log verbosity level.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", "", "Address to serve Prometheus metrics on, e.g. :9100. Disabled if empty.")
	flag.BoolVar(&printVersion, "version", false, "Print version and exit.")
	flag.Parse()

	log := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})

	version.Log(log)
	if printVersion {
		return
	}

	if planPath == "" {
		fmt.Fprintln(os.Stderr, "diskenginectl: -plan is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(err, "metrics server exited")
			}
		}()
		log.Info("metrics server listening", "address", metricsAddr)
	}

	p, err := plan.Load(planPath)
	if err != nil {
		logAndExit(log, err, "failed to load plan")
	}

	lvmBus, err := extops.NewLvmBus()
	if err != nil {
		log.Info("continuing without LVM bus access", "reason", err.Error())
		lvmBus = nil
	}

	sc := scanner.New(log, scanner.NewOSSysFS("/"), extops.NewProber(), lvmBus)
	w, err := sc.Scan(ctx)
	if err != nil {
		logAndExit(log, err, "scan failed")
	}

	if err := p.Apply(w); err != nil {
		logAndExit(log, err, "failed to stage plan")
	}

	if dryRun {
		log.Info("dry run: plan staged, not applying", "managerFlags", w.ManagerFlags())
		return
	}

	ops := systems.NewOps(extops.NewMkfs(), extops.NewCryptsetup(), extops.NewWipefs(), lvmBus)
	cancel := &world.CancelFlag{}
	go func() {
		<-ctx.Done()
		cancel.Set()
	}()

	if err := systems.Apply(ctx, w, cancel, ops); err != nil {
		logAndExit(log, err, "apply failed")
	}
	log.Info("apply complete")
}

func logAndExit(log logr.Logger, err error, msg string) {
	log.Error(err, msg)
	os.Exit(1)
}
