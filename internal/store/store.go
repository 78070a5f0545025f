// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package store persists the authenticator's reboot-surviving state
// (spec.md §6 "Persisted state", plus the AAGUID added in SPEC_FULL.md
// §5.1) to a single-row SQLite table via github.com/ncruces/go-sqlite3,
// the pure-Go SQLite driver the teacher's own sqlite/ submodule depends
// on for the same purpose (persisting device/owner state across restarts).
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver" // registers the "sqlite3" database/sql driver
	_ "github.com/ncruces/go-sqlite3/embed"  // embeds the SQLite library, no cgo required
)

// State is the full set of fields that survive a power cycle.
type State struct {
	AAGUID             [16]byte
	MasterSecret       []byte
	AttestationKeyDER  []byte // PKCS#8, empty if not yet provisioned
	AttestationCertDER []byte
	SignCounter        uint32
	PinCodeSet         bool
	PinCodeHash        [16]byte
	PinRetries         uint8
}

// Store is the persistence seam lifecycle.go (C10) depends on.
// SQLiteStore is the production implementation; MemoryStore (memory.go)
// is used by tests so they don't need a filesystem.
type Store interface {
	Load() (State, bool, error)
	Save(State) error
}

// SQLiteStore is a device state store backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if absent) the SQLite database at path and ensures
// the device_state table exists.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS device_state (
	id                   INTEGER PRIMARY KEY CHECK (id = 1),
	aaguid               BLOB NOT NULL,
	master_secret        BLOB NOT NULL,
	attestation_key_der  BLOB NOT NULL,
	attestation_cert_der BLOB NOT NULL,
	sign_counter         INTEGER NOT NULL,
	pin_code_set         INTEGER NOT NULL,
	pin_code_hash        BLOB NOT NULL,
	pin_retries          INTEGER NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the persisted state. ok is false if the device has never
// been provisioned (first boot): the caller is expected to provision
// fresh state and call Save.
func (s *SQLiteStore) Load() (st State, ok bool, err error) {
	row := s.db.QueryRow(`SELECT aaguid, master_secret, attestation_key_der,
		attestation_cert_der, sign_counter, pin_code_set, pin_code_hash, pin_retries
		FROM device_state WHERE id = 1`)

	var aaguid, masterSecret, keyDER, certDER, pinHash []byte
	var signCounter, pinRetries int64
	var pinSet int64
	switch err := row.Scan(&aaguid, &masterSecret, &keyDER, &certDER, &signCounter, &pinSet, &pinHash, &pinRetries); {
	case err == sql.ErrNoRows:
		return State{}, false, nil
	case err != nil:
		return State{}, false, fmt.Errorf("store: loading device state: %w", err)
	}

	copy(st.AAGUID[:], aaguid)
	st.MasterSecret = masterSecret
	st.AttestationKeyDER = keyDER
	st.AttestationCertDER = certDER
	st.SignCounter = uint32(signCounter)
	st.PinCodeSet = pinSet != 0
	copy(st.PinCodeHash[:], pinHash)
	st.PinRetries = uint8(pinRetries)
	return st, true, nil
}

// Save upserts the persisted state (the single id=1 row).
func (s *SQLiteStore) Save(st State) error {
	pinSet := int64(0)
	if st.PinCodeSet {
		pinSet = 1
	}
	_, err := s.db.Exec(`INSERT INTO device_state
		(id, aaguid, master_secret, attestation_key_der, attestation_cert_der, sign_counter, pin_code_set, pin_code_hash, pin_retries)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			aaguid = excluded.aaguid,
			master_secret = excluded.master_secret,
			attestation_key_der = excluded.attestation_key_der,
			attestation_cert_der = excluded.attestation_cert_der,
			sign_counter = excluded.sign_counter,
			pin_code_set = excluded.pin_code_set,
			pin_code_hash = excluded.pin_code_hash,
			pin_retries = excluded.pin_retries`,
		st.AAGUID[:], st.MasterSecret, st.AttestationKeyDER, st.AttestationCertDER,
		st.SignCounter, pinSet, st.PinCodeHash[:], st.PinRetries)
	if err != nil {
		return fmt.Errorf("store: saving device state: %w", err)
	}
	return nil
}
