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

// Package errs provides GPP's structured error type and the error kinds
// named in spec.md §7. Every fallible core operation returns one of these
// instead of a bare string so the dispatcher and CLI can render a useful
// message without re-deriving what went wrong.
package errs

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind identifies which of spec.md §7's error categories a UserError
// belongs to.
type Kind string

const (
	KindIO             Kind = "io_error"
	KindSerde          Kind = "serde_error"
	KindNotFound       Kind = "not_found"
	KindTx             Kind = "tx_error"
	KindValidation     Kind = "validation_error"
	KindRemoteConflict Kind = "remote_conflict"
	KindPush           Kind = "push_error"
	KindUnsafeContext  Kind = "unsafe_context"
)

// UserError is GPP's error type: a human-facing title/detail/suggestion
// triple plus the underlying cause, in the shape consumed throughout the
// teacher CLI's command layer (errors.NewConfigError, NewInternalError,
// etc.).
type UserError struct {
	Kind       Kind
	Title      string
	Detail     string
	Suggestion string
	Cause      error
}

func (e *UserError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func newErr(kind Kind, title, detail, suggestion string, cause error) *UserError {
	return &UserError{Kind: kind, Title: title, Detail: detail, Suggestion: suggestion, Cause: cause}
}

// NewIOError reports a filesystem or subprocess failure.
func NewIOError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindIO, title, detail, suggestion, cause)
}

// NewSerdeError reports a graph-image decode/encode failure.
func NewSerdeError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindSerde, title, detail, suggestion, cause)
}

// NewNotFoundError reports a node missing from storage.
func NewNotFoundError(nodeID string) *UserError {
	return newErr(KindNotFound,
		"Node not found",
		fmt.Sprintf("No node with id %q exists in the graph", nodeID),
		"Check the id with 'gpp log' and try again",
		nil,
	)
}

// NewTxError reports lock poisoning or an atomic-rename failure.
func NewTxError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindTx, title, detail, suggestion, cause)
}

// NewValidationError reports a requested remote not permitted by a node's
// parents (the subset-violation case of spec.md §4.5 step 2).
func NewValidationError(title, detail, suggestion string) *UserError {
	return newErr(KindValidation, title, detail, suggestion, nil)
}

// NewRemoteConflictError reports two parents disagreeing on the url for a
// shared remote name.
func NewRemoteConflictError(name, urlA, urlB string) *UserError {
	return newErr(KindRemoteConflict,
		"Conflicting remote definitions",
		fmt.Sprintf("Parents disagree on the url for remote %q: %q vs %q", name, urlA, urlB),
		"Resolve the conflicting remote url on one of the parent nodes before merging history",
		nil,
	)
}

// NewPushError reports a node on the walk that forbids the target remote
// (spec.md §4.6, ContiguityBroken).
func NewPushError(nodeID, remoteName string) *UserError {
	return newErr(KindPush,
		"Push rejected: contiguity broken",
		fmt.Sprintf("Node %q does not permit pushing to remote %q", nodeID, remoteName),
		"Grant the remote permission to every node on the path, or push from an earlier node",
		nil,
	)
}

// NewUnsafeContextError reports a real directory sitting where the active
// store pointer should be.
func NewUnsafeContextError(path string) *UserError {
	return newErr(KindUnsafeContext,
		"Refusing to overwrite active context",
		fmt.Sprintf("%q is a real directory, not the active-store pointer", path),
		fmt.Sprintf("Rename or remove %q manually, then retry the context switch", path),
		nil,
	)
}

// NewConfigError reports a problem loading or writing .gpp/config.yaml.
func NewConfigError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindIO, title, detail, suggestion, cause)
}

// NewInternalError reports a condition that should never happen.
func NewInternalError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindIO, title, detail, suggestion, cause)
}

// NewPermissionError reports a filesystem permission failure.
func NewPermissionError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindIO, title, detail, suggestion, cause)
}

// NewNetworkError reports a push/fetch transport failure.
func NewNetworkError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindIO, title, detail, suggestion, cause)
}

// NewInputError reports bad user input at the CLI boundary.
func NewInputError(title, detail, suggestion string, cause error) *UserError {
	return newErr(KindValidation, title, detail, suggestion, cause)
}

type jsonError struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Cause      string `json:"cause,omitempty"`
}

// FatalError renders err to stderr (plain text, or JSON when asJSON is
// true) and exits the process with status 1. Apart from the CLI's main
// function, it is the only place in GPP that calls os.Exit — the core
// never does, per spec.md §7's propagation policy.
func FatalError(err error, asJSON bool) {
	if err == nil {
		return
	}

	ue, ok := err.(*UserError)
	if !ok {
		ue = newErr(KindIO, "Unexpected error", err.Error(), "", err)
	}

	if asJSON {
		je := jsonError{Kind: ue.Kind, Title: ue.Title, Detail: ue.Detail, Suggestion: ue.Suggestion}
		if ue.Cause != nil {
			je.Cause = ue.Cause.Error()
		}
		enc, _ := json.MarshalIndent(je, "", "  ")
		fmt.Fprintln(os.Stderr, string(enc))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ue.Title)
		if ue.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", ue.Detail)
		}
		if ue.Cause != nil {
			fmt.Fprintf(os.Stderr, "  cause: %v\n", ue.Cause)
		}
		if ue.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  suggestion: %s\n", ue.Suggestion)
		}
	}

	os.Exit(1)
}
