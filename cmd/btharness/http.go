// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"btharness/harness"
	"btharness/harness/debugapi"

	log "github.com/sirupsen/logrus"
)

func startHTTPServer(listen string, h *harness.Harness) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		log.WithError(err).Fatal("Invalid listen address:", listen)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.WithError(err).Fatal("Invalid listen port:", portStr)
	}

	srv := debugapi.NewServer(host, port, h)
	if err := srv.Listen(); err != nil {
		log.WithError(err).Fatal("Failed to listen on debug API address:", listen)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		err := srv.Serve(ctx)
		if err != nil && err != http.ErrServerClosed && err != context.Canceled {
			return err
		}
		return nil
	})

	// Trap SIGINT and SIGTERM signals and shut the harness down
	errg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sigReceived := <-sig:
			log.WithField("signal", sigReceived.String()).Info("Received signal")
			h.Shutdown(errors.Errorf("received signal %s", sigReceived))
			return srv.Shutdown()

		case <-ctx.Done():
			return nil
		}
	})

	if err := errg.Wait(); err != nil {
		log.WithError(err).Fatal("Debug API server error")
	}

	log.Info("Shutdown complete")
}
