/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wolfi-cuda/builder/pkg/defaults"
	"github.com/wolfi-cuda/builder/pkg/engine"
	"github.com/wolfi-cuda/builder/pkg/matrix"
	"github.com/wolfi-cuda/builder/pkg/oci"
	"github.com/wolfi-cuda/builder/pkg/pipeline"
	"github.com/wolfi-cuda/builder/pkg/serializer"
)

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:                  "build",
		EnableShellCompletion: true,
		Usage:                 "Build and publish the image matrix",
		Description: `Expands the configured build matrix into one build per
(os, cuda, python, framework, architecture) cell, builds each image with
docker buildx, and publishes the results.

With --multi-arch, every configured architecture is built and the sibling
images of each matrix cell are joined under one manifest list; the
per-architecture tags are internal and never advertised. Without it, only
the host architecture is built and pushed directly under the final tag.

Registry credentials are read from --username/--password or the USERNAME
and PASSWORD environment variables (lowercase accepted).

# Examples

Build the default matrix for the host architecture:
  wolfibuild build --owner my-org

Build a reduced matrix, multi-arch, from a config file:
  wolfibuild build --config matrix.yaml --multi-arch

Print the plan without building or pushing:
  wolfibuild build --owner my-org --dry-run --format yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Usage:   "Registry username",
				Sources: cli.EnvVars("USERNAME", "username"),
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Registry password or token",
				Sources: cli.EnvVars("PASSWORD", "password"),
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "Registry host to publish to",
				Value: matrix.DefaultRegistryHost,
			},
			&cli.StringFlag{
				Name:    "owner",
				Usage:   "Registry namespace (defaults to the username)",
				Sources: cli.EnvVars("OWNER"),
			},
			&cli.StringFlag{
				Name:    "repository",
				Usage:   "Image repository name",
				Value:   matrix.DefaultRepository,
				Sources: cli.EnvVars("REPOSITORY"),
			},
			&cli.BoolFlag{
				Name:    "multi-arch",
				Usage:   "Build all configured architectures and publish manifest lists",
				Sources: cli.EnvVars("MULTI_ARCH"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML build matrix config (flags override its values)",
			},
			&cli.StringSliceFlag{
				Name:  "os-version",
				Usage: "OS version axis (can be repeated)",
			},
			&cli.StringSliceFlag{
				Name:  "cuda-version",
				Usage: "CUDA version axis (can be repeated)",
			},
			&cli.StringSliceFlag{
				Name:  "python-version",
				Usage: "Python version axis (can be repeated)",
			},
			&cli.StringSliceFlag{
				Name: "framework",
				Usage: fmt.Sprintf("Framework axis (supported values: %s, can be repeated)",
					matrix.SupportedFrameworks()),
			},
			&cli.StringSliceFlag{
				Name: "arch",
				Usage: fmt.Sprintf("Architecture axis, multi-arch only (supported values: %s, can be repeated)",
					matrix.SupportedArchitectures()),
			},
			&cli.IntFlag{
				Name:  "build-concurrency",
				Usage: "Maximum concurrent image builds",
				Value: defaults.BuildConcurrency,
			},
			&cli.IntFlag{
				Name:  "push-concurrency",
				Usage: "Maximum concurrent registry pushes",
				Value: defaults.PushConcurrency,
			},
			&cli.DurationFlag{
				Name:  "build-timeout",
				Usage: "Timeout for a single image build",
				Value: defaults.BuildTimeout,
			},
			&cli.DurationFlag{
				Name:  "push-timeout",
				Usage: "Timeout for a single push attempt",
				Value: defaults.PushTimeout,
			},
			&cli.IntFlag{
				Name:  "push-retries",
				Usage: "Attempts per push before giving up",
				Value: defaults.PushRetries,
			},
			&cli.StringFlag{
				Name:  "scratch-dir",
				Usage: "Directory for exported image layouts (default: temp dir)",
			},
			&cli.StringSliceFlag{
				Name:  "build-arg",
				Usage: "Extra --build-arg passed to docker buildx (can be repeated)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the registry (local development)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Expand and validate the matrix, print the plan, build nothing",
			},
			outputFlag,
			formatFlag,
		},
		Action: runBuild,
	}
}

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Write the run report to this file instead of stdout",
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   string(serializer.FormatJSON),
	Usage:   fmt.Sprintf("Report format (supported values: %v)", serializer.SupportedFormats()),
}

// planEntry is one row of the --dry-run report.
type planEntry struct {
	Spec            matrix.BuildSpec `json:"spec" yaml:"spec"`
	Tag             string           `json:"tag" yaml:"tag"`
	IntermediateTag string           `json:"intermediate_tag,omitempty" yaml:"intermediate_tag,omitempty"`
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := buildMatrixConfig(cmd)
	if err != nil {
		return err
	}

	slog.Info("build matrix",
		"registry", cfg.RegistryHost,
		"owner", cfg.Owner,
		"repository", cfg.Repository,
		"os_versions", cfg.OSVersions,
		"cuda_versions", cfg.CUDAVersions,
		"python_versions", cfg.PythonVersions,
		"frameworks", cfg.Frameworks,
		"architectures", cfg.Architectures,
		"multi_arch", cfg.MultiArch,
	)

	namer := oci.Namer{Host: cfg.RegistryHost, Owner: cfg.Owner, Repository: cfg.Repository}

	writer := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer writer.Close() //nolint:errcheck

	if cmd.Bool("dry-run") {
		return printPlan(ctx, writer, namer, cfg)
	}

	creds, err := resolveCredentials(cmd, cfg.RegistryHost)
	if err != nil {
		return err
	}
	session, err := oci.Login(ctx, creds, oci.WithPlainHTTP(cmd.Bool("plain-http")))
	if err != nil {
		slog.Error("registry authentication failed", "registry", cfg.RegistryHost, "error", err)
		return err
	}

	var engineOpts []engine.DockerOption
	if dir := cmd.String("scratch-dir"); dir != "" {
		engineOpts = append(engineOpts, engine.WithScratchDir(dir))
	}
	if args := cmd.StringSlice("build-arg"); len(args) > 0 {
		engineOpts = append(engineOpts, engine.WithExtraBuildArgs(args...))
	}
	eng := engine.NewDockerEngine(engineOpts...)

	backoff := pipeline.DefaultBackoff()
	backoff.Attempts = int(cmd.Int("push-retries"))

	p := pipeline.New(eng, session, namer,
		pipeline.WithBuildConcurrency(int(cmd.Int("build-concurrency"))),
		pipeline.WithPushConcurrency(int(cmd.Int("push-concurrency"))),
		pipeline.WithBuildTimeout(cmd.Duration("build-timeout")),
		pipeline.WithPushTimeout(cmd.Duration("push-timeout")),
		pipeline.WithBackoff(backoff),
		pipeline.WithEventSink(pipeline.SinkFunc(logEvent)),
	)

	summary, err := p.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if serr := writer.Serialize(ctx, summary); serr != nil {
		slog.Error("failed to write run report", "error", serr)
	}
	slog.Info(summary.String(),
		"run_id", summary.RunID,
		"duration_sec", summary.Duration.Seconds(),
	)
	if summary.HasFailures() {
		return cli.Exit(fmt.Sprintf("%d of %d jobs failed", summary.Failed, summary.Total), 1)
	}
	return nil
}

func logEvent(e pipeline.Event) {
	slog.Debug("state transition",
		"spec", e.Spec.String(),
		"from", string(e.From),
		"to", string(e.To),
		"at", e.At.Format(time.RFC3339Nano),
	)
}

func printPlan(ctx context.Context, writer *serializer.Writer, namer oci.Namer, cfg matrix.Config) error {
	specs, err := matrix.Expand(cfg)
	if err != nil {
		return err
	}
	if err := namer.ValidateMatrix(specs); err != nil {
		return err
	}
	plan := make([]planEntry, 0, len(specs))
	for _, spec := range specs {
		entry := planEntry{Spec: spec, Tag: namer.Reference(spec.Triple())}
		if cfg.MultiArch {
			entry.IntermediateTag = namer.IntermediateReference(spec)
		}
		plan = append(plan, entry)
	}
	slog.Info("dry run, nothing will be built or pushed", "jobs", len(plan))
	return writer.Serialize(ctx, plan)
}

// parseOutputFormat validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %v)",
			format, serializer.SupportedFormats())
	}
	return format, nil
}

// buildMatrixConfig assembles the effective matrix config: defaults, then
// the optional config file, then any flags that were set.
func buildMatrixConfig(cmd *cli.Command) (matrix.Config, error) {
	cfg := matrix.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := matrix.LoadFile(path)
		if err != nil {
			return matrix.Config{}, err
		}
		cfg = loaded
	}

	if v := cmd.StringSlice("os-version"); len(v) > 0 {
		cfg.OSVersions = v
	}
	if v := cmd.StringSlice("cuda-version"); len(v) > 0 {
		cfg.CUDAVersions = v
	}
	if v := cmd.StringSlice("python-version"); len(v) > 0 {
		cfg.PythonVersions = v
	}
	if v := cmd.StringSlice("framework"); len(v) > 0 {
		cfg.Frameworks = cfg.Frameworks[:0]
		for _, raw := range v {
			fw, err := matrix.ParseFramework(raw)
			if err != nil {
				return matrix.Config{}, err
			}
			cfg.Frameworks = append(cfg.Frameworks, fw)
		}
	}
	if v := cmd.StringSlice("arch"); len(v) > 0 {
		cfg.Architectures = cfg.Architectures[:0]
		for _, raw := range v {
			arch, err := matrix.ParseArchitecture(raw)
			if err != nil {
				return matrix.Config{}, err
			}
			cfg.Architectures = append(cfg.Architectures, arch)
		}
	}

	if cmd.IsSet("registry") || cfg.RegistryHost == "" {
		cfg.RegistryHost = cmd.String("registry")
	}
	if cmd.IsSet("repository") || cfg.Repository == "" {
		cfg.Repository = cmd.String("repository")
	}
	if cmd.IsSet("owner") || cfg.Owner == "" {
		cfg.Owner = cmd.String("owner")
	}
	if cfg.Owner == "" {
		// The registry namespace mirrors the pushing account by default.
		cfg.Owner = cmd.String("username")
	}
	if cmd.IsSet("multi-arch") {
		cfg.MultiArch = cmd.Bool("multi-arch")
	}
	return cfg, nil
}

// resolveCredentials prefers explicit flags (which also source USERNAME and
// PASSWORD) and falls back to the environment lookup with its lowercase
// variants and structured errors.
func resolveCredentials(cmd *cli.Command, host string) (oci.Credentials, error) {
	username := cmd.String("username")
	password := cmd.String("password")
	if username != "" && password != "" {
		return oci.Credentials{Username: username, Password: password, RegistryHost: host}, nil
	}
	return oci.CredentialsFromEnv(host)
}
