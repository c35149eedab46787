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

// Package types holds the value objects shared by every GPP subsystem:
// node identifiers, authorship, remote-push permissions, tags, and the
// node record itself.
package types

import (
	"sort"
	"time"
)

// NodeId is an opaque, content-derived identifier (a commit hash produced
// by the backend). Equality and hashing are byte-wise on the string.
type NodeId string

// Author records who made a change. Immutable once set on a node.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Payload points a node at the snapshot it records.
type Payload struct {
	TreeID string `json:"tree_id"`
}

// RemoteRef identifies a remote context. Identity is (Name, URL) only —
// Specs never participates in equality or hashing, so two RemoteRefs with
// the same name and url are the same remote even if their Specs differ.
type RemoteRef struct {
	Name  string            `json:"name"`
	URL   string            `json:"url"`
	Specs map[string]string `json:"specs,omitempty"`
}

// Key returns the identity this RemoteRef is compared and hashed by.
func (r RemoteRef) Key() RemoteKey {
	return RemoteKey{Name: r.Name, URL: r.URL}
}

// RemoteKey is the (name, url) identity of a RemoteRef, usable as a map key.
type RemoteKey struct {
	Name string
	URL  string
}

// Tag is a named marker attached to a node.
type Tag struct {
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"created_at"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Node is the central record of the version graph.
type Node struct {
	ID        NodeId            `json:"id"`
	Parents   []NodeId          `json:"parents"`
	Children  *NodeIdSet        `json:"children"`
	Author    Author            `json:"author"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
	Payload   Payload           `json:"payload"`
	Remotes   *RemoteSet        `json:"remotes"`
	Tags      map[string]Tag    `json:"tags"`
	Metadata  map[string]string `json:"metadata"`
}

// IsRoot reports whether the node has no parents.
func (n *Node) IsRoot() bool {
	return len(n.Parents) == 0
}

// Clone returns a deep copy of the node, so callers can mutate it (e.g.
// during a transaction) without aliasing the storage's in-memory image.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Parents = append([]NodeId(nil), n.Parents...)
	clone.Children = n.Children.Clone()
	clone.Remotes = n.Remotes.Clone()
	clone.Tags = make(map[string]Tag, len(n.Tags))
	for k, v := range n.Tags {
		meta := make(map[string]string, len(v.Meta))
		for mk, mv := range v.Meta {
			meta[mk] = mv
		}
		v.Meta = meta
		clone.Tags[k] = v
	}
	clone.Metadata = make(map[string]string, len(n.Metadata))
	for k, v := range n.Metadata {
		clone.Metadata[k] = v
	}
	return &clone
}

// AddTag inserts or replaces a tag by name.
func (n *Node) AddTag(tag Tag) {
	if n.Tags == nil {
		n.Tags = make(map[string]Tag)
	}
	n.Tags[tag.Name] = tag
}

// RemoveTag deletes a tag by name. No-op if absent.
func (n *Node) RemoveTag(name string) {
	delete(n.Tags, name)
}

// NewNode constructs a Node with empty sets/maps ready for use.
func NewNode(id NodeId, parents []NodeId, author Author, message string, payload Payload, remotes *RemoteSet) *Node {
	return &Node{
		ID:        id,
		Parents:   parents,
		Children:  NewNodeIdSet(),
		Author:    author,
		Message:   message,
		CreatedAt: time.Now(),
		Payload:   payload,
		Remotes:   remotes,
		Tags:      make(map[string]Tag),
		Metadata:  make(map[string]string),
	}
}

// SortedRemotes returns the node's remotes ordered by (name, url), giving
// callers (e.g. Checkout's context selector) a deterministic "first" pick
// over what is internally an unordered set.
func (n *Node) SortedRemotes() []RemoteRef {
	all := n.Remotes.Values()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].URL < all[j].URL
	})
	return all
}
