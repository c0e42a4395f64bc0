// Copyright (c) 2026, Wolfi CUDA Builder authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defaults

import "time"

// Build timeouts for image build operations.
const (
	// BuildTimeout is the wall-clock budget for one image build.
	// CUDA toolchain installs are large; conda solves alone can take minutes.
	BuildTimeout = 30 * time.Minute
)

// Push timeouts and retry policy for registry operations.
const (
	// PushTimeout is the wall-clock budget for one push attempt,
	// including manifest-list assembly.
	PushTimeout = 10 * time.Minute

	// LoginTimeout is the budget for the single registry authentication
	// performed at pipeline start.
	LoginTimeout = 30 * time.Second

	// PushRetries is the number of attempts for transient push failures
	// before a job settles into its failed state.
	PushRetries = 3

	// PushBackoffInitial is the delay before the first push retry.
	PushBackoffInitial = 2 * time.Second

	// PushBackoffMax caps the exponential backoff between push retries.
	PushBackoffMax = 30 * time.Second
)

// Concurrency budgets for the worker pools.
const (
	// BuildConcurrency bounds concurrent image builds. Builds are
	// resource-heavy, so the pool stays small.
	BuildConcurrency = 3

	// PushConcurrency bounds concurrent registry pushes. Registries
	// commonly rate-limit concurrent uploads from one credential.
	PushConcurrency = 2
)

// Registry client pacing.
const (
	// RegistryRequestsPerSecond paces outbound registry API calls.
	RegistryRequestsPerSecond = 10

	// RegistryRequestBurst is the burst size for registry call pacing.
	RegistryRequestBurst = 20
)
