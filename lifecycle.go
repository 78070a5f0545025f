// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	"fmt"
	"log/slog"

	"github.com/fido2key/authenticator/internal/store"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

// Config wires a Session's external collaborators: the device state
// store, the attestation key source, the AAGUID to report from GetInfo,
// and the user-presence/sign-counter oracles (spec.md §2).
type Config struct {
	Store       store.Store
	Attestation xcrypto.AttestationKeySource
	AAGUID      [16]byte
	Oracles     Oracles
	Log         *slog.Logger
}

// Init boots a Session: it is the Go analog of the firmware's ctap_init.
// On first boot (the store has never been provisioned) it generates a
// fresh device master secret and a full retry budget; on every later
// boot it loads the persisted master secret, PIN state, and retry count
// unchanged, and re-enters lockout if that count is zero (DESIGN.md Open
// Question 6) — only crypto state that is
// process-volatile by nature (the key-agreement keypair and pin_token)
// is regenerated on every boot, matching spec.md §4.7.
func Init(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("authenticator: Config.Store is required")
	}
	if cfg.Attestation == nil {
		return nil, fmt.Errorf("authenticator: Config.Attestation is required")
	}
	if cfg.Oracles.UserPresence == nil || cfg.Oracles.IncrementSignCounter == nil {
		return nil, fmt.Errorf("authenticator: Config.Oracles is incomplete")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	st, provisioned, err := cfg.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("authenticator: loading device state: %w", err)
	}

	s := &Session{
		store:   cfg.Store,
		log:     log,
		oracles: cfg.Oracles,
		attest:  cfg.Attestation,
		aaguid:  cfg.AAGUID,
	}

	if !provisioned {
		log.Info("first boot: provisioning fresh device state")
		s.fc = xcrypto.New()
		s.pinRetries = maxPinRetries
		st = store.State{
			AAGUID:       cfg.AAGUID,
			MasterSecret: s.fc.MasterSecret(),
			PinRetries:   maxPinRetries,
		}
		if err := cfg.Store.Save(st); err != nil {
			return nil, fmt.Errorf("authenticator: saving first-boot state: %w", err)
		}
	} else {
		s.fc = xcrypto.New()
		s.fc.LoadMasterSecret(st.MasterSecret)
		s.aaguid = st.AAGUID
		s.signCounter = st.SignCounter
		s.pinCodeSet = st.PinCodeSet
		s.pinCodeHash = st.PinCodeHash
		s.pinRetries = st.PinRetries
		s.lockout = st.PinRetries == 0
	}

	if err := s.regenerateKeyAgreement(); err != nil {
		return nil, err
	}
	if !s.fc.RNG(s.pinToken[:]) {
		return nil, fmt.Errorf("authenticator: rng failure generating pin_token")
	}

	log.Info("authenticator initialized", "pin_set", s.pinCodeSet, "pin_retries", s.pinRetries, "lockout", s.lockout)
	return s, nil
}

// regenerateKeyAgreement replaces the process-volatile ECDH key-agreement
// keypair, used at boot, on factory reset, and after every failed PIN
// check in changePin/getPinToken.
func (s *Session) regenerateKeyAgreement() error {
	kp, err := s.fc.GenerateKeyAgreementKeyPair()
	if err != nil {
		return fmt.Errorf("authenticator: generating key-agreement keypair: %w", err)
	}
	s.keyAgreement = kp
	return nil
}

// Reset performs a factory reset (CTAP2_CMD_RESET, C10): it clears the
// PIN, restores the full retry budget, clears lockout, regenerates the
// device master secret and key-agreement keypair, and drops any pending
// get-assertion continuation. It does not touch sign_counter, aaguid, or
// the attestation key/certificate (spec.md §4.7: "nothing else is
// persisted from boot to boot except ..." describes boot, not reset; the
// firmware's own ctap_reset leaves SIGN_COUNTER, AAGUID and the batch
// attestation key/cert untouched for the same reason — they identify the
// authenticator model/batch, not this particular enrollment).
func (s *Session) Reset() error {
	s.fc.ResetMasterSecret()
	s.pinCodeSet = false
	s.pinCodeHash = [16]byte{}
	s.pinRetries = maxPinRetries
	s.lockout = false
	s.continuation = nil

	if err := s.regenerateKeyAgreement(); err != nil {
		return err
	}
	if !s.fc.RNG(s.pinToken[:]) {
		return fmt.Errorf("authenticator: rng failure generating pin_token")
	}

	s.log.Warn("factory reset performed")
	return s.persist()
}

// persist writes the session's reboot-surviving fields to the store.
func (s *Session) persist() error {
	st := store.State{
		AAGUID:       s.aaguid,
		MasterSecret: s.fc.MasterSecret(),
		SignCounter:  s.signCounter,
		PinCodeSet:   s.pinCodeSet,
		PinCodeHash:  s.pinCodeHash,
		PinRetries:   s.pinRetries,
	}
	if s.attest != nil {
		st.AttestationCertDER = s.attest.CertificateDER()
	}
	if err := s.store.Save(st); err != nil {
		return fmt.Errorf("authenticator: persisting device state: %w", err)
	}
	return nil
}

// deviceLocked reports whether the device is in PIN lockout (the Go
// analog of ctap_device_locked).
func (s *Session) deviceLocked() bool {
	return s.lockout
}

// decrementPinRetries consumes one retry attempt. It returns
// ErrPinNotSet-free nil while retries remain, and enters lockout (and
// persists it) once the budget is exhausted (spec.md §4.6, §8 invariant
// 5), mirroring ctap_decrement_pin_attempts.
func (s *Session) decrementPinRetries() error {
	if s.pinRetries > 0 {
		s.pinRetries--
	}
	if s.pinRetries == 0 {
		s.lockout = true
		s.log.Warn("pin retries exhausted, device locked")
	}
	return s.persist()
}

// resetPinRetries restores the full retry budget after a correct PIN
// (spec.md §4.6: a successful getPinToken clears the retry counter).
func (s *Session) resetPinRetries() error {
	s.pinRetries = maxPinRetries
	return s.persist()
}
