// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/edulearn/edu/co"
	"github.com/edulearn/edu/log"
	"github.com/edulearn/edu/metrics"
)

func initLogger(ctx *cli.Context) slog.Level {
	lvl := log.FromVerbosity(ctx.GlobalInt(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(newLogHandler(os.Stderr, lvl, ctx.GlobalBool(jsonLogsFlag.Name))))
	return lvl
}

func newLogHandler(w io.Writer, lvl slog.Level, json bool) slog.Handler {
	if json {
		return log.JSONHandler(w, lvl)
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		useColor = (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
	}
	return log.TerminalHandler(w, lvl, useColor)
}

// handleExitSignal returns a context cancelled on the first interrupt.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

const serverDrainTimeout = 5 * time.Second

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		if !goes.WaitTimeout(serverDrainTimeout) {
			logger.Warn("server did not stop in time", "addr", listener.Addr())
		}
	}, nil
}

func startAPIServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		if !goes.WaitTimeout(serverDrainTimeout) {
			logger.Warn("server did not stop in time", "addr", listener.Addr())
		}
	}, nil
}
