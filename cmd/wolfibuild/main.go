/*
Copyright © 2026 Wolfi CUDA Builder authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import "github.com/wolfi-cuda/builder/pkg/cli"

func main() {
	cli.Execute()
}
