package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/drpcorg/rowbind"
	"github.com/drpcorg/rowbind/loop"
	"github.com/drpcorg/rowbind/store"
	"github.com/drpcorg/rowbind/utils"
)

func main() {
	if len(os.Args) < 2 {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: rowbind <dir> [metrics-addr]")
		os.Exit(-2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func run(dir string, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := utils.NewDefaultLogger(slog.LevelInfo)
	l := loop.New()
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, loop.ErrClosed) {
			log.Error("loop stopped", "err", err)
		}
	}()
	defer l.Close()

	s, err := store.Open(dir, store.Options{Loop: l, Log: log})
	if err != nil {
		return err
	}
	defer s.Close()

	repl := &REPL{Store: s, Loop: l, Log: log}
	if err = repl.Open(ctx); err != nil {
		return err
	}
	defer repl.Close()

	if len(args) > 0 {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		if err = rowbind.RegisterMetrics(reg); err != nil {
			return err
		}
		if err = store.RegisterMetrics(reg, s); err != nil {
			return err
		}
		srv := &http.Server{Addr: args[0], Handler: NewMux(repl, reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "addr", args[0], "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("serving metrics", "addr", args[0])
	}

	repl.Run(ctx)
	return nil
}
