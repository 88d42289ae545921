//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Compare builds the CLI and compares two entity files, saving the result.
func Compare(original, revised string) error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "compare", original, revised, "--save")
}

// Serve builds the CLI and starts the HTTP API with debug logging.
func Serve() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath(), "serve", "--log-level", "debug")
}
