// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package version holds build-time identification, set via -ldflags at
// build time the way the teacher's own version package is invoked from
// cmd/driver/main.go.
package version

import "github.com/go-logr/logr"

// Version, Commit, and Date are overridden at build time with
// -ldflags "-X diskengine/internal/version.Version=... -X ...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Log records the build identification at startup.
func Log(log logr.Logger) {
	log.Info("diskenginectl", "version", Version, "commit", Commit, "date", Date)
}
