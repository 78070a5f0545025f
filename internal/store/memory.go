// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package store

// MemoryStore is an in-process Store used by tests in place of a SQLite
// file on disk.
type MemoryStore struct {
	state State
	ok    bool
}

var _ Store = (*MemoryStore)(nil)

// Load returns the last-saved state, or ok=false before the first Save.
func (m *MemoryStore) Load() (State, bool, error) {
	return m.state, m.ok, nil
}

// Save records st as the current state.
func (m *MemoryStore) Save(st State) error {
	m.state = st
	m.ok = true
	return nil
}
