/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package oci

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/time/rate"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/errcode"

	"github.com/wolfi-cuda/builder/pkg/defaults"
	apperrors "github.com/wolfi-cuda/builder/pkg/errors"
)

// Environment variables sourcing registry credentials.
const (
	EnvUsername = "USERNAME"
	EnvPassword = "PASSWORD"
)

// Credentials hold registry authentication material for one run.
// They are never logged or persisted.
type Credentials struct {
	Username     string
	Password     string
	RegistryHost string
}

// CredentialsFromEnv reads credentials from USERNAME/PASSWORD (lowercase
// variants accepted as a fallback). Missing values are an authentication
// error: the pipeline cannot publish without them.
func CredentialsFromEnv(registryHost string) (Credentials, error) {
	username := envOr(EnvUsername, "username")
	password := envOr(EnvPassword, "password")
	if username == "" || password == "" {
		return Credentials{}, apperrors.New(apperrors.ErrCodeUnauthorized,
			"environment variables USERNAME and PASSWORD are required")
	}
	return Credentials{
		Username:     username,
		Password:     password,
		RegistryHost: stripProtocol(registryHost),
	}, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// Session is the immutable result of a successful registry login. One
// Session is created per pipeline run and shared, read-only, across all
// workers; the embedded auth client caches and refreshes tokens internally
// so no worker ever re-authenticates.
type Session struct {
	host      string
	client    *auth.Client
	limiter   *rate.Limiter
	plainHTTP bool
}

// SessionOption configures a Session at login time.
type SessionOption func(*Session)

// WithPlainHTTP uses HTTP instead of HTTPS, for local development registries.
func WithPlainHTTP(plain bool) SessionOption {
	return func(s *Session) {
		s.plainHTTP = plain
	}
}

// WithRequestLimiter overrides the rate limiter pacing registry calls.
func WithRequestLimiter(l *rate.Limiter) SessionOption {
	return func(s *Session) {
		s.limiter = l
	}
}

// Login authenticates against the registry exactly once and returns the
// Session used for every subsequent push. Any failure is an authentication
// error, which is pipeline-fatal: no push can succeed without a session.
func Login(ctx context.Context, creds Credentials, opts ...SessionOption) (*Session, error) {
	if creds.RegistryHost == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "registry host is required")
	}

	client := &auth.Client{
		Client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Cache:  auth.NewCache(),
		Credential: auth.StaticCredential(creds.RegistryHost, auth.Credential{
			Username: creds.Username,
			Password: creds.Password,
		}),
	}

	s := &Session{
		host:    creds.RegistryHost,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(defaults.RegistryRequestsPerSecond), defaults.RegistryRequestBurst),
	}
	for _, opt := range opts {
		opt(s)
	}

	reg, err := remote.NewRegistry(creds.RegistryHost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized,
			fmt.Sprintf("invalid registry host %q", creds.RegistryHost), err)
	}
	reg.Client = client
	reg.PlainHTTP = s.plainHTTP

	pingCtx, cancel := context.WithTimeout(ctx, defaults.LoginTimeout)
	defer cancel()
	if err := reg.Ping(pingCtx); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnauthorized,
			"registry login failed", err,
			map[string]any{"registry": creds.RegistryHost, "username": creds.Username})
	}

	return s, nil
}

// Host returns the registry host the session is bound to.
func (s *Session) Host() string {
	return s.host
}

// repository returns a remote repository handle sharing the session's
// authenticated client.
func (s *Session) repository(repoPath string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(repoPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid repository %q", repoPath), err)
	}
	repo.Client = s.client
	repo.PlainHTTP = s.plainHTTP
	return repo, nil
}

// wait paces an outbound registry call against the session limiter.
func (s *Session) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// IsAuthError reports whether err is an authentication/authorization
// rejection from the registry. Auth errors are never retried and abort
// the run: every remaining push would fail the same way.
func IsAuthError(err error) bool {
	if apperrors.IsCode(err, apperrors.ErrCodeUnauthorized) {
		return true
	}
	var resp *errcode.ErrorResponse
	if errors.As(err, &resp) {
		return resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
	}
	return false
}
