// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Command authenticator drives a Session from the command line, for
// manual/integration testing (SPEC_FULL.md §4.5, A6): it feeds hex-
// encoded CTAP2 request packets to Dispatch, one per line, either from a
// script file or from stdin, and prints the hex response alongside its
// decoded status name.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/fido2key/authenticator"
	"github.com/fido2key/authenticator/internal/logging"
	"github.com/fido2key/authenticator/internal/store"
	"github.com/fido2key/authenticator/internal/xcrypto"
)

var driverFlags = flag.NewFlagSet("authenticator", flag.ExitOnError)

var (
	statePath    string
	attKeyPath   string
	attCertPath  string
	scriptPath   string
)

func init() {
	driverFlags.StringVar(&statePath, "state", "ctap2.db", "Path to the device state SQLite database")
	driverFlags.StringVar(&attKeyPath, "attestation-key", "", "PEM path of the batch attestation private key (self-signed if omitted)")
	driverFlags.StringVar(&attCertPath, "attestation-cert", "", "PEM path of the batch attestation certificate")
	driverFlags.StringVar(&scriptPath, "script", "", "File of hex-encoded request packets, one per line (omit for interactive stdin)")
}

func main() {
	if err := driverFlags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "authenticator:", err)
		os.Exit(1)
	}
}

func run() error {
	log := logging.New(os.Stderr)

	st, err := store.Open(statePath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer func() { _ = st.Close() }()

	attest, err := loadAttestation()
	if err != nil {
		return fmt.Errorf("loading attestation key: %w", err)
	}

	// AAGUID is only consulted on first boot (Init loads the persisted
	// value on every later boot), so a fresh random one here is harmless
	// on an already-provisioned device.
	session, err := authenticator.Init(authenticator.Config{
		Store:       st,
		Attestation: attest,
		AAGUID:      [16]byte(uuid.New()),
		Oracles: authenticator.Oracles{
			UserPresence:         authenticator.AlwaysPresent,
			IncrementSignCounter: authenticator.StoreBackedSignCounter(st),
		},
		Log: log,
	})
	if err != nil {
		return fmt.Errorf("initializing authenticator: %w", err)
	}

	var in *bufio.Scanner
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("opening script %q: %w", scriptPath, err)
		}
		defer func() { _ = f.Close() }()
		in = bufio.NewScanner(f)
	} else {
		in = bufio.NewScanner(os.Stdin)
	}

	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		packet, err := hex.DecodeString(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "authenticator: skipping malformed line %q: %v\n", line, err)
			continue
		}
		resp := session.Dispatch(packet)
		status := authenticator.Status(resp[0])
		fmt.Printf("%s %s\n", status, hex.EncodeToString(resp))
	}
	return in.Err()
}

func loadAttestation() (xcrypto.AttestationKeySource, error) {
	if attKeyPath == "" {
		return xcrypto.GenerateSelfSignedAttestationKey()
	}
	keyPEM, err := os.ReadFile(attKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", attKeyPath, err)
	}
	certPEM, err := os.ReadFile(attCertPath)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", attCertPath, err)
	}
	return xcrypto.LoadSoftwareAttestationKey(keyPEM, certPEM)
}
