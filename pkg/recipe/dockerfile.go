/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package recipe

import (
	"sort"
	"strings"
	"text/template"

	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
)

// dockerfileTemplate renders the single-stage build every variant shares.
// Steps mirror the published images: apk packages first, then micromamba,
// then the CUDA toolkit and framework from conda-forge.
var dockerfileTemplate = template.Must(template.New("dockerfile").
	Funcs(template.FuncMap{
		"join": func(items []string) string { return strings.Join(items, " ") },
	}).
	Parse(`FROM {{.BaseImage}}
USER root
WORKDIR /app
RUN apk update && apk add --no-cache {{join .Packages}}
RUN curl -Ls {{.MicromambaURL}} | tar -xvj -C /usr/local bin/micromamba
RUN /usr/local/bin/micromamba install -y -n base -c conda-forge {{join .CondaPackages}} && /usr/local/bin/micromamba clean --all --yes
{{- range .Env}}
ENV {{.}}
{{- end}}
{{- range .Labels}}
LABEL {{.}}
{{- end}}
`))

// Dockerfile renders the params as Dockerfile text. Env and label lines are
// emitted in sorted key order so the output is deterministic and build
// caches stay warm across runs.
func (p Params) Dockerfile() (string, error) {
	data := struct {
		BaseImage     string
		MicromambaURL string
		Packages      []string
		CondaPackages []string
		Env           []string
		Labels        []string
	}{
		BaseImage:     p.BaseImage,
		MicromambaURL: MicromambaURL,
		Packages:      p.Packages,
		CondaPackages: p.CondaPackages,
		Env:           sortedPairs(p.Env),
		Labels:        sortedPairs(p.Labels),
	}

	var sb strings.Builder
	if err := dockerfileTemplate.Execute(&sb, data); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "failed to render dockerfile", err)
	}
	return sb.String(), nil
}

// sortedPairs renders a map as deterministic key="value" lines.
func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+`="`+m[k]+`"`)
	}
	return pairs
}
