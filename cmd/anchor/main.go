// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/anchornet/anchor/anchor"
	"github.com/anchornet/anchor/api"
	"github.com/anchornet/anchor/core"
	"github.com/anchornet/anchor/kv"
	"github.com/anchornet/anchor/log"
	"github.com/anchornet/anchor/metrics"
)

const (
	version   = "0.1.0"
	storeName = "main.db"

	storeCacheMB    = 128
	advanceInterval = time.Second
)

var logger = log.WithContext("pkg", "main")

func main() {
	app := cli.App{
		Version:   version,
		Name:      "anchor",
		Usage:     "appchain staking anchor",
		Copyright: "2026 The AnchorNet developers",
		Flags: []cli.Flag{
			dataDirFlag,
			ephemeralFlag,
			apiAddrFlag,
			apiCORSFlag,
			metricsAddrFlag,
			verbosityFlag,
			settingsFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if err := log.SetVerbosity(ctx.Int(verbosityFlag.Name)); err != nil {
		return err
	}

	var store kv.Store
	if ctx.Bool(ephemeralFlag.Name) {
		store = kv.OpenMem()
	} else {
		path := filepath.Join(ctx.String(dataDirFlag.Name), storeName)
		var err error
		if store, err = kv.Open(path, storeCacheMB); err != nil {
			return err
		}
	}
	defer store.Close()

	settings, err := loadSettings(ctx.String(settingsFlag.Name))
	if err != nil {
		return err
	}

	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		metrics.InitializePrometheusMetrics()
		srv := &http.Server{Addr: addr, Handler: metrics.HTTPHandler()}
		go func() {
			logger.Info("metrics service started", "addr", addr)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("metrics service failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	a, err := core.New(store, wallChrono{}, logTransferor{}, settings, 0)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go advanceLoop(a, stop)

	srv := &http.Server{
		Addr:    ctx.String(apiAddrFlag.Name),
		Handler: api.New(a, parseCORS(ctx.String(apiCORSFlag.Name))),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API service started", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// advanceLoop keeps nudging the era pipeline. Advancing an era that waits for
// an external signal is a no-op, so a fixed cadence is fine.
func advanceLoop(a *core.AppchainAnchor, stop <-chan struct{}) {
	ticker := time.NewTicker(advanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := a.Advance(); err != nil {
				logger.Error("era advance failed", "err", err)
			}
		}
	}
}

func parseCORS(origins string) []string {
	if origins == "" {
		return nil
	}
	var parsed []string
	for _, origin := range strings.Split(origins, ",") {
		parsed = append(parsed, strings.TrimSpace(origin))
	}
	return parsed
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".anchor"
	}
	return filepath.Join(home, ".anchor")
}

// wallChrono stamps records with wall-clock time.
// TODO: source the block height from the appchain RPC endpoint instead of
// deriving it from the clock.
type wallChrono struct{}

func (wallChrono) BlockHeight() uint64 { return uint64(time.Now().Unix()) }
func (wallChrono) Timestamp() uint64   { return uint64(time.Now().UnixNano()) }

// logTransferor stands in for the token bridge: settlements are logged and
// acknowledged so the anchor's bookkeeping can be exercised end to end.
type logTransferor struct{}

func (logTransferor) Transfer(recipient anchor.AccountID, amount *big.Int) error {
	logger.Info("transfer settled", "recipient", recipient, "amount", amount)
	return nil
}
