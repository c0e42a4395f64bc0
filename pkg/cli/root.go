/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/wolfi-cuda/builder/pkg/logging"
)

const name = "wolfibuild"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Build and publish Wolfi CUDA container images",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `wolfibuild expands a build matrix of CUDA versions, Python versions and
framework variants into container images based on Wolfi, builds them with
docker buildx, and publishes them to an OCI registry. With multi-arch
enabled, per-architecture images are joined under one manifest list per
matrix cell.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars(logging.LogLevelEnvVar),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			buildCmd(),
		},
	}
}

// Execute runs the CLI. Called by main; exits non-zero on any error.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
