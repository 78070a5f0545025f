// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

import (
	icbor "github.com/fido2key/authenticator/internal/cbor"
)

// maxMsgSize is the maximum message size GetInfo reports: a fixed
// ceiling, not externally negotiated. Dispatch does not check incoming
// packets against it.
const maxMsgSize = 2048

type getInfoOptions struct {
	Plat      bool `cbor:"plat"`
	RK        bool `cbor:"rk"`
	UP        bool `cbor:"up"`
	UV        bool `cbor:"uv"`
	ClientPin bool `cbor:"clientPin"`
}

// getInfoResponse is the CTAP2_CMD_GET_INFO response map (spec.md §6).
type getInfoResponse struct {
	Versions     []string       `cbor:"1,keyasint"`
	AAGUID       []byte         `cbor:"3,keyasint"`
	Options      getInfoOptions `cbor:"4,keyasint"`
	MaxMsgSize   int64          `cbor:"5,keyasint"`
	PinProtocols []int64        `cbor:"6,keyasint"`
}

// GetInfo implements CTAP2_CMD_GET_INFO. It is answered even while the
// device is locked out (SPEC_FULL.md §5 supplemented feature: GET_INFO
// and CANCEL are not in the dispatcher's lockout-gated command set).
func (s *Session) GetInfo() ([]byte, error) {
	resp := getInfoResponse{
		Versions:     []string{"U2F_V2", "FIDO_2_0"},
		AAGUID:       s.aaguid[:],
		MaxMsgSize:   maxMsgSize,
		PinProtocols: []int64{pinProtocolV1},
		Options: getInfoOptions{
			Plat:      false,
			RK:        false,
			UP:        true,
			UV:        false,
			ClientPin: s.pinCodeSet,
		},
	}
	return icbor.Marshal(resp)
}
