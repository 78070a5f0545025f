// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package authenticator implements the command-processing core of a
// FIDO2/CTAP2 roaming authenticator: it accepts a CBOR-encoded CTAP2
// command, executes it against on-device key material and authenticator
// state, and emits a CBOR-encoded response. The transport that frames
// packets into commands (USB-HID/CTAPHID), user-presence hardware, RNG
// and EC/AES/SHA primitives, the attestation certificate/key material,
// monotonic sign-counter storage, and logging sinks are all external
// collaborators; see the Oracles and Config types in this package.
package authenticator

import "fmt"

// Command is the first byte of a raw CTAP2 request packet.
type Command byte

// CTAP2 command identifiers, per the published CTAP2 command table.
const (
	CmdMakeCredential   Command = 0x01
	CmdGetAssertion     Command = 0x02
	CmdGetInfo          Command = 0x04
	CmdClientPIN        Command = 0x06
	CmdReset            Command = 0x07
	CmdGetNextAssertion Command = 0x08
	CmdCancel           Command = 0x11
)

// Status is the first byte of a CTAP2 response packet.
type Status byte

// Status codes, per the published CTAP2 error table. Success is zero.
const (
	StatusSuccess              Status = 0x00
	StatusInvalidCommand       Status = 0x01
	StatusInvalidCBOR          Status = 0x12
	StatusMissingParameter     Status = 0x14
	StatusCredentialExcluded   Status = 0x19
	StatusCredentialNotValid   Status = 0x22
	StatusOperationDenied      Status = 0x27
	StatusNotAllowed           Status = 0x30
	StatusPinInvalid           Status = 0x31
	StatusPinAuthInvalid       Status = 0x33
	StatusPinNotSet            Status = 0x35
	StatusPinRequired          Status = 0x36
	StatusPinPolicyViolation   Status = 0x37
	StatusOther                Status = 0x7f
)

// RelyingParty identifies the RP a credential or assertion is scoped to.
//
//	PublicKeyCredentialRpEntity = {
//	    id: tstr,
//	    name: tstr
//	}
type RelyingParty struct {
	ID   string
	Name string
}

// User is the user entity bound into a credential and returned on assertion.
//
//	PublicKeyCredentialUserEntity = {
//	    id: bstr,
//	    name: tstr,
//	    displayName: tstr
//	}
type User struct {
	ID          []byte
	Name        string
	DisplayName string
}

// CredentialDescriptor references a credential by its opaque id, as used in
// exclude-lists and allow-lists.
//
//	PublicKeyCredentialDescriptor = {
//	    type: "public-key",
//	    id: bstr
//	}
type CredentialDescriptor struct {
	Type string
	ID   []byte
}

var commandNames = map[Command]string{
	CmdMakeCredential:   "MAKE_CREDENTIAL",
	CmdGetAssertion:     "GET_ASSERTION",
	CmdGetInfo:          "GET_INFO",
	CmdClientPIN:        "CLIENT_PIN",
	CmdReset:            "RESET",
	CmdGetNextAssertion: "GET_NEXT_ASSERTION",
	CmdCancel:           "CANCEL",
}

// String renders a Command by its CTAP2 name, for logging.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CMD(0x%02x)", byte(c))
}

var statusNames = map[Status]string{
	StatusSuccess:            "SUCCESS",
	StatusInvalidCommand:     "INVALID_COMMAND",
	StatusInvalidCBOR:        "INVALID_CBOR",
	StatusMissingParameter:   "MISSING_PARAMETER",
	StatusCredentialExcluded: "CREDENTIAL_EXCLUDED",
	StatusCredentialNotValid: "CREDENTIAL_NOT_VALID",
	StatusOperationDenied:    "OPERATION_DENIED",
	StatusNotAllowed:         "NOT_ALLOWED",
	StatusPinInvalid:         "PIN_INVALID",
	StatusPinAuthInvalid:     "PIN_AUTH_INVALID",
	StatusPinNotSet:          "PIN_NOT_SET",
	StatusPinRequired:        "PIN_REQUIRED",
	StatusPinPolicyViolation: "PIN_POLICY_VIOLATION",
	StatusOther:              "OTHER",
}

// String renders a Status by its CTAP2 name, for logging and the CLI.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(0x%02x)", byte(s))
}
