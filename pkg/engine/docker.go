/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
	"github.com/wolfi-cuda/builder/pkg/matrix"
	"github.com/wolfi-cuda/builder/pkg/recipe"
)

// commandRunner executes an external command and returns its combined
// output. Injectable so tests never spawn processes.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DockerEngine builds images by shelling out to docker buildx and exporting
// the result as an OCI image layout. It requires a buildx builder with the
// target platforms enabled (QEMU for cross-architecture builds).
type DockerEngine struct {
	binary   string
	scratch  string
	run      commandRunner
	buildArg []string
}

// DockerOption configures a DockerEngine.
type DockerOption func(*DockerEngine)

// WithBinary overrides the docker binary path.
func WithBinary(path string) DockerOption {
	return func(e *DockerEngine) { e.binary = path }
}

// WithScratchDir sets the directory build contexts and layouts are created
// under. Defaults to the system temp directory.
func WithScratchDir(dir string) DockerOption {
	return func(e *DockerEngine) { e.scratch = dir }
}

// WithExtraBuildArgs appends raw arguments to every buildx invocation
// (e.g. cache configuration).
func WithExtraBuildArgs(args ...string) DockerOption {
	return func(e *DockerEngine) { e.buildArg = append(e.buildArg, args...) }
}

// withRunner substitutes the command runner; test hook.
func withRunner(run commandRunner) DockerOption {
	return func(e *DockerEngine) { e.run = run }
}

// NewDockerEngine creates a DockerEngine with the given options.
func NewDockerEngine(opts ...DockerOption) *DockerEngine {
	e := &DockerEngine{
		binary: "docker",
		run:    defaultRunner,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build renders the recipe as a Dockerfile, runs docker buildx for the
// spec's platform, and exports the image as an OCI layout directory.
func (e *DockerEngine) Build(ctx context.Context, spec matrix.BuildSpec, params recipe.Params) (*Artifact, error) {
	dockerfile, err := params.Dockerfile()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.scratch, "wolfibuild-*")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeBuildFailed, "failed to create build context", err)
	}

	dockerfilePath := filepath.Join(dir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0600); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeBuildFailed, "failed to write Dockerfile", err)
	}

	layoutPath := filepath.Join(dir, "layout")
	localRef := localReference(spec)

	args := []string{
		"buildx", "build",
		"--platform", spec.Architecture.Platform(),
		"--file", dockerfilePath,
		"--tag", localRef,
		"--output", fmt.Sprintf("type=oci,tar=false,dest=%s", layoutPath),
	}
	args = append(args, e.buildArg...)
	args = append(args, dir)

	slog.Info("building image",
		"spec", spec.String(),
		"platform", spec.Architecture.Platform(),
	)

	out, err := e.run(ctx, e.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeTimeout,
				fmt.Sprintf("build canceled for %s", spec), ctxErr)
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeBuildFailed,
			fmt.Sprintf("build failed for %s", spec), err,
			map[string]any{"output": tail(string(out), 2048)})
	}

	return &Artifact{
		Spec:       spec,
		LayoutPath: layoutPath,
		LocalRef:   localRef,
	}, nil
}

// localReference is the throwaway reference recorded in the exported
// layout. It never leaves the build host.
func localReference(spec matrix.BuildSpec) string {
	return fmt.Sprintf("wolfibuild/local:%s_python_%s_cuda_%s_%s_%s",
		spec.OSVersion, spec.PythonVersion, spec.CUDAVersion,
		spec.Framework, spec.Architecture)
}

// tail returns the last n bytes of s, trimmed at a line boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i+1 < len(s) {
		s = s[i+1:]
	}
	return s
}
