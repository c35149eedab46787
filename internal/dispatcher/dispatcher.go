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

// Package dispatcher implements spec.md §4.7: a single entry point that
// takes an abstract Command DTO and yields a CmdResult, delegating
// built-ins to VersionGraph/PushManager and unknown names to a
// PluginRegistry. Handlers never reach into storage directly — they see
// only the VersionGraph and an argument vector.
package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/kraklabs/gpp/internal/graph"
	"github.com/kraklabs/gpp/internal/push"
	"github.com/kraklabs/gpp/internal/types"
)

// ResultKind classifies a CmdResult, mirroring the original's three-way
// CmdResult enum.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultOutput  ResultKind = "output"
	ResultNone    ResultKind = "none"
)

// CmdResult is the outcome of dispatching a Command.
type CmdResult struct {
	Kind    ResultKind
	Message string
}

// CommandKind identifies which Command variant is populated.
type CommandKind string

const (
	CmdAdd          CommandKind = "add"
	CmdLog          CommandKind = "log"
	CmdCheckout     CommandKind = "checkout"
	CmdChangeRemote CommandKind = "change_remote"
	CmdPush         CommandKind = "push"
	CmdTagAdd       CommandKind = "tag_add"
	CmdTagRemove    CommandKind = "tag_remove"
	CmdCustom       CommandKind = "custom"
)

// Command is the DTO dispatched to the Dispatcher. Only the fields
// relevant to Kind are populated; this mirrors the original's Rust enum
// without Go's lack of sum types forcing a pointer-heavy design.
type Command struct {
	Kind CommandKind

	// Add
	Message          string
	Author           types.Author
	Parents          []types.NodeId
	RequestedRemotes []types.RemoteRef

	// Checkout, ChangeRemote, Push, TagAdd, TagRemove
	Node types.NodeId

	// ChangeRemote
	RemoteName string
	RemoteURL  string
	Remove     bool

	// Push
	DryRun bool

	// TagAdd
	TagName string
	TagMeta map[string]string

	// Custom
	CustomName string
	CustomArgs []string
}

// Handler is the interface plugin-registered commands implement. It
// sees only the version graph and raw args, never storage directly.
type Handler interface {
	Execute(ctx context.Context, args []string, g *graph.VersionGraph) (CmdResult, error)
}

// PluginRegistry maps a Custom command's name to its handler.
type PluginRegistry struct {
	handlers map[string]Handler
}

// NewPluginRegistry returns an empty registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{handlers: make(map[string]Handler)}
}

// Register adds (or replaces) the handler for name.
func (r *PluginRegistry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Get returns the handler for name, if registered.
func (r *PluginRegistry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists every registered custom command name.
func (r *PluginRegistry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatcher owns the version graph, a PushManager built over the same
// graph, and the PluginRegistry for Custom commands.
type Dispatcher struct {
	graph    *graph.VersionGraph
	pushMgr  *push.Manager
	registry *PluginRegistry
}

// New builds a Dispatcher.
func New(g *graph.VersionGraph, pushMgr *push.Manager, registry *PluginRegistry) *Dispatcher {
	if registry == nil {
		registry = NewPluginRegistry()
	}
	return &Dispatcher{graph: g, pushMgr: pushMgr, registry: registry}
}

// Dispatch routes cmd to the matching built-in operation or, for
// CmdCustom, to the PluginRegistry.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (CmdResult, error) {
	switch cmd.Kind {
	case CmdAdd:
		id, err := d.graph.AddNode(ctx, cmd.Parents, cmd.Author, cmd.Message, cmd.RequestedRemotes)
		if err != nil {
			return CmdResult{}, err
		}
		return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("Node created: %s", id)}, nil

	case CmdLog:
		return d.dispatchLog()

	case CmdCheckout:
		if err := d.graph.Checkout(ctx, cmd.Node); err != nil {
			return CmdResult{}, err
		}
		return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("HEAD is now at %s", cmd.Node)}, nil

	case CmdChangeRemote:
		return d.dispatchChangeRemote(cmd)

	case CmdPush:
		return d.dispatchPush(ctx, cmd)

	case CmdTagAdd:
		if err := d.graph.AddTag(cmd.Node, cmd.TagName, cmd.TagMeta); err != nil {
			return CmdResult{}, err
		}
		return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("Tagged %s as %q", cmd.Node, cmd.TagName)}, nil

	case CmdTagRemove:
		if err := d.graph.RemoveTag(cmd.Node, cmd.TagName); err != nil {
			return CmdResult{}, err
		}
		return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("Removed tag %q from %s", cmd.TagName, cmd.Node)}, nil

	case CmdCustom:
		handler, ok := d.registry.Get(cmd.CustomName)
		if !ok {
			return CmdResult{}, fmt.Errorf("unknown command: %s", cmd.CustomName)
		}
		return handler.Execute(ctx, cmd.CustomArgs, d.graph)

	default:
		return CmdResult{}, fmt.Errorf("unknown command kind: %s", cmd.Kind)
	}
}

func (d *Dispatcher) dispatchChangeRemote(cmd Command) (CmdResult, error) {
	if cmd.Remove {
		if err := d.graph.RemoveRemotePermission(cmd.Node, cmd.RemoteName); err != nil {
			return CmdResult{}, err
		}
		return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("Removed permission for remote %q", cmd.RemoteName)}, nil
	}

	ref := types.RemoteRef{Name: cmd.RemoteName, URL: cmd.RemoteURL}
	if err := d.graph.AddRemotePermission(cmd.Node, ref); err != nil {
		return CmdResult{}, err
	}
	return CmdResult{Kind: ResultSuccess, Message: fmt.Sprintf("Added permission for remote %q", cmd.RemoteName)}, nil
}

func (d *Dispatcher) dispatchPush(ctx context.Context, cmd Command) (CmdResult, error) {
	ref := types.RemoteRef{Name: cmd.RemoteName, URL: cmd.RemoteURL}
	didWork, report, err := d.pushMgr.Push(ctx, cmd.Node, ref, cmd.DryRun)
	if err != nil {
		return CmdResult{}, err
	}
	if !didWork {
		return CmdResult{Kind: ResultSuccess, Message: "Nothing to push (up to date)"}, nil
	}
	if cmd.DryRun {
		return CmdResult{Kind: ResultOutput, Message: formatDryRunReport(report)}, nil
	}
	return CmdResult{Kind: ResultSuccess, Message: "Push completed successfully"}, nil
}

func formatDryRunReport(r *push.Report) string {
	var b strings.Builder
	b.WriteString("--- DRY RUN: selective push ---\n")
	fmt.Fprintf(&b, "  remote: %q (%s)\n", r.RemoteName, r.RemoteURL)
	fmt.Fprintf(&b, "  nodes to push: %d\n", r.Count)
	fmt.Fprintf(&b, "  target ref: %s\n", r.TargetRef)
	fmt.Fprintf(&b, "  new tip: %s\n", r.Tip)
	b.WriteString("--------------------------------")
	return b.String()
}

// dispatchLog builds the text report of every node reachable from the
// roots, breadth-first, matching the original's Log handler.
func (d *Dispatcher) dispatchLog() (CmdResult, error) {
	roots, err := d.graph.ListRoots()
	if err != nil {
		return CmdResult{}, err
	}

	var b strings.Builder
	visited := make(map[types.NodeId]struct{})
	queue := make([]types.NodeId, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, r.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		node, err := d.graph.GetNode(id)
		if err != nil {
			return CmdResult{}, err
		}

		fmt.Fprintf(&b, "Commit: %s\n", node.ID)
		fmt.Fprintf(&b, "Author: %s <%s>\n", node.Author.Name, node.Author.Email)
		fmt.Fprintf(&b, "Message: %s\n", node.Message)
		b.WriteString("------------------------------\n")

		for _, childID := range node.Children.Values() {
			queue = append(queue, childID)
		}
	}

	if b.Len() == 0 {
		return CmdResult{Kind: ResultOutput, Message: "History is empty."}, nil
	}
	return CmdResult{Kind: ResultOutput, Message: b.String()}, nil
}
