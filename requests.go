// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	icbor "github.com/fido2key/authenticator/internal/cbor"
)

// pubKeyCredParam is one entry of the pubKeyCredParams list in a
// make-credential request; only (type="public-key", alg=-7/ES256) is
// acceptable (spec.md §4.4).
type pubKeyCredParam struct {
	Type string `cbor:"type"`
	Alg  int64  `cbor:"alg"`
}

const algES256 = -7

// rpEntity/userEntity mirror RelyingParty/User with CBOR field names,
// decoded then converted to the package's plain types.
type rpEntity struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name"`
}

type userEntity struct {
	ID          []byte `cbor:"id"`
	Name        string `cbor:"name"`
	DisplayName string `cbor:"displayName"`
}

func (u userEntity) toUser() User {
	return User{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName}
}

type credentialDescriptorWire struct {
	Type string `cbor:"type"`
	ID   []byte `cbor:"id"`
}

func (c credentialDescriptorWire) toDescriptor() CredentialDescriptor {
	return CredentialDescriptor{Type: c.Type, ID: c.ID}
}

// makeCredentialRequest is the CTAP2_CMD_MAKE_CREDENTIAL request map
// (spec.md §4.4), keyed by the published CTAP2 integer field numbers.
type makeCredentialRequest struct {
	ClientDataHash   []byte                      `cbor:"1,keyasint"`
	RP               rpEntity                    `cbor:"2,keyasint"`
	User             userEntity                  `cbor:"3,keyasint"`
	PubKeyCredParams []pubKeyCredParam           `cbor:"4,keyasint"`
	ExcludeList      []credentialDescriptorWire  `cbor:"5,keyasint,omitempty"`
	PinAuth          []byte                      `cbor:"8,keyasint,omitempty"`
	PinProtocol      int64                       `cbor:"9,keyasint,omitempty"`
}

func decodeMakeCredentialRequest(payload []byte) (makeCredentialRequest, error) {
	var req makeCredentialRequest
	if err := icbor.Unmarshal(payload, &req); err != nil {
		return makeCredentialRequest{}, err
	}
	return req, nil
}

// getAssertionRequest is the CTAP2_CMD_GET_ASSERTION request map
// (spec.md §4.5).
type getAssertionRequest struct {
	RPID           string                     `cbor:"1,keyasint"`
	ClientDataHash []byte                     `cbor:"2,keyasint"`
	AllowList      []credentialDescriptorWire `cbor:"3,keyasint,omitempty"`
	PinAuth        []byte                     `cbor:"6,keyasint,omitempty"`
	PinProtocol    int64                      `cbor:"7,keyasint,omitempty"`
}

func decodeGetAssertionRequest(payload []byte) (getAssertionRequest, error) {
	var req getAssertionRequest
	if err := icbor.Unmarshal(payload, &req); err != nil {
		return getAssertionRequest{}, err
	}
	return req, nil
}

// clientPinRequest is the CTAP2_CMD_CLIENT_PIN request map (spec.md §4.6).
type clientPinRequest struct {
	PinProtocol int64          `cbor:"1,keyasint"`
	SubCommand  int64          `cbor:"2,keyasint"`
	KeyAgreement coseKeyWire   `cbor:"3,keyasint,omitempty"`
	PinAuth     []byte         `cbor:"4,keyasint,omitempty"`
	NewPinEnc   []byte         `cbor:"5,keyasint,omitempty"`
	PinHashEnc  []byte         `cbor:"6,keyasint,omitempty"`
}

// coseKeyWire decodes just the EC2/P-256 fields of a platform-supplied
// COSE_Key (spec.md §4.6's keyAgreement parameter).
type coseKeyWire struct {
	X []byte `cbor:"-2,keyasint,omitempty"`
	Y []byte `cbor:"-3,keyasint,omitempty"`
}

func decodeClientPinRequest(payload []byte) (clientPinRequest, error) {
	var req clientPinRequest
	if err := icbor.Unmarshal(payload, &req); err != nil {
		return clientPinRequest{}, err
	}
	return req, nil
}

// Client-PIN subcommand identifiers (spec.md §4.6).
const (
	pinSubGetRetries      = 0x01
	pinSubGetKeyAgreement = 0x02
	pinSubSetPin          = 0x03
	pinSubChangePin       = 0x04
	pinSubGetPinToken     = 0x05
)
