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

package types

import "encoding/json"

// RemoteSet is an unordered collection of RemoteRef, keyed by (name, url)
// per spec.md §4.1 — Specs never participates in membership.
type RemoteSet struct {
	m map[RemoteKey]RemoteRef
}

// NewRemoteSet builds a RemoteSet from zero or more RemoteRefs.
func NewRemoteSet(refs ...RemoteRef) *RemoteSet {
	s := &RemoteSet{m: make(map[RemoteKey]RemoteRef, len(refs))}
	for _, r := range refs {
		s.Add(r)
	}
	return s
}

// Add inserts r, overwriting any existing entry with the same (name, url).
func (s *RemoteSet) Add(r RemoteRef) {
	if s.m == nil {
		s.m = make(map[RemoteKey]RemoteRef)
	}
	s.m[r.Key()] = r
}

// RemoveByName deletes every entry whose Name matches, regardless of URL.
func (s *RemoteSet) RemoveByName(name string) {
	for k := range s.m {
		if k.Name == name {
			delete(s.m, k)
		}
	}
}

// Contains reports whether a RemoteRef with the same (name, url) identity
// is present.
func (s *RemoteSet) Contains(r RemoteRef) bool {
	if s == nil || s.m == nil {
		return false
	}
	_, ok := s.m[r.Key()]
	return ok
}

// Get returns the stored RemoteRef for a name, if any.
func (s *RemoteSet) Get(name string) (RemoteRef, bool) {
	if s == nil {
		return RemoteRef{}, false
	}
	for k, v := range s.m {
		if k.Name == name {
			return v, true
		}
	}
	return RemoteRef{}, false
}

// Names returns the set of remote names present (no particular order).
func (s *RemoteSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.m))
	for k := range s.m {
		names = append(names, k.Name)
	}
	return names
}

// Values returns a snapshot slice of the RemoteRefs in the set.
func (s *RemoteSet) Values() []RemoteRef {
	if s == nil {
		return nil
	}
	out := make([]RemoteRef, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	return out
}

// Len returns the number of distinct (name, url) entries.
func (s *RemoteSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Clone returns a deep copy.
func (s *RemoteSet) Clone() *RemoteSet {
	if s == nil {
		return NewRemoteSet()
	}
	clone := &RemoteSet{m: make(map[RemoteKey]RemoteRef, len(s.m))}
	for k, v := range s.m {
		specs := make(map[string]string, len(v.Specs))
		for sk, sv := range v.Specs {
			specs[sk] = sv
		}
		v.Specs = specs
		clone.m[k] = v
	}
	return clone
}

// MarshalJSON encodes the set as a JSON array of RemoteRef.
func (s *RemoteSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a JSON array of RemoteRef into the set.
func (s *RemoteSet) UnmarshalJSON(data []byte) error {
	var refs []RemoteRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return err
	}
	s.m = make(map[RemoteKey]RemoteRef, len(refs))
	for _, r := range refs {
		s.Add(r)
	}
	return nil
}

// NodeIdSet is an unordered collection of NodeId, used for Node.Children.
type NodeIdSet struct {
	m map[NodeId]struct{}
}

// NewNodeIdSet builds a NodeIdSet from zero or more ids.
func NewNodeIdSet(ids ...NodeId) *NodeIdSet {
	s := &NodeIdSet{m: make(map[NodeId]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id, a no-op if already present.
func (s *NodeIdSet) Add(id NodeId) {
	if s.m == nil {
		s.m = make(map[NodeId]struct{})
	}
	s.m[id] = struct{}{}
}

// Contains reports membership.
func (s *NodeIdSet) Contains(id NodeId) bool {
	if s == nil || s.m == nil {
		return false
	}
	_, ok := s.m[id]
	return ok
}

// Values returns a snapshot slice of member ids (no particular order).
func (s *NodeIdSet) Values() []NodeId {
	if s == nil {
		return nil
	}
	out := make([]NodeId, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	return out
}

// Len returns the number of members.
func (s *NodeIdSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Clone returns a deep copy.
func (s *NodeIdSet) Clone() *NodeIdSet {
	if s == nil {
		return NewNodeIdSet()
	}
	clone := &NodeIdSet{m: make(map[NodeId]struct{}, len(s.m))}
	for id := range s.m {
		clone.m[id] = struct{}{}
	}
	return clone
}

// MarshalJSON encodes the set as a JSON array of NodeId.
func (s *NodeIdSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a JSON array of NodeId into the set.
func (s *NodeIdSet) UnmarshalJSON(data []byte) error {
	var ids []NodeId
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.m = make(map[NodeId]struct{}, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return nil
}
