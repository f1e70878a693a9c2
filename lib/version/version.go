// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version stamped into webboot
// binaries.
package version

import "runtime/debug"

// Version is the release version, overridden at build time via
//
//	-ldflags "-X github.com/tessellate-cad/webboot/lib/version.Version=v1.2.3"
var Version = "dev"

// Info returns the version plus the VCS revision when the binary was
// built from a git checkout.
func Info() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return Version + " (" + setting.Value[:12] + ")"
		}
	}
	return Version
}
