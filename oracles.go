// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"fmt"

	"github.com/fido2key/authenticator/internal/store"
)

// StoreBackedSignCounter returns an Oracles.IncrementSignCounter
// implementation that increments and persists sign_counter through st,
// for standalone/CLI use where no dedicated counter hardware exists
// (SPEC_FULL.md §4.5). It reads the current counter fresh on every call
// so it stays correct even if other fields in State change between
// calls.
func StoreBackedSignCounter(st store.Store) func() (uint32, error) {
	return func() (uint32, error) {
		s, _, err := st.Load()
		if err != nil {
			return 0, fmt.Errorf("authenticator: loading sign counter: %w", err)
		}
		s.SignCounter++
		if err := st.Save(s); err != nil {
			return 0, fmt.Errorf("authenticator: persisting sign counter: %w", err)
		}
		return s.SignCounter, nil
	}
}

// AlwaysPresent is a user-presence oracle that always grants presence,
// for non-interactive/scripted use (SPEC_FULL.md §4.5's -script mode).
func AlwaysPresent() bool { return true }
