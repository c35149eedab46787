// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides GPP's color-aware CLI output helpers, built on
// fatih/color and mattn/go-isatty the same way the teacher CLI wires
// them into its main package.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	fail    = color.New(color.FgRed, color.Bold)
	faint   = color.New(color.Faint)
)

// InitColors disables color output when noColor is set, stdout isn't a
// terminal, or the NO_COLOR environment variable is present.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Success prints a green-highlighted success message to stdout.
func Success(format string, args ...interface{}) {
	success.Printf(format+"\n", args...)
}

// Warn prints a yellow-highlighted warning to stderr.
func Warn(format string, args ...interface{}) {
	warn.Fprintf(os.Stderr, format+"\n", args...)
}

// Fail prints a bold red error to stderr.
func Fail(format string, args ...interface{}) {
	fail.Fprintf(os.Stderr, format+"\n", args...)
}

// Faint prints a dimmed informational line to stdout, used for
// secondary detail (e.g. a node id under a success message).
func Faint(format string, args ...interface{}) {
	faint.Printf(format+"\n", args...)
}

// Plain prints to stdout without any color, for output meant to be
// piped (log text, dry-run reports, JSON).
func Plain(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
