// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package cose_test

import (
	"testing"

	"github.com/fido2key/authenticator/internal/cose"
)

func TestBuildEC2KeyHasCanonicalLabels(t *testing.T) {
	var x, y [32]byte
	x[0], y[0] = 0xAA, 0xBB

	key := cose.BuildEC2Key(x, y)
	if len(key) != 5 {
		t.Fatalf("expected a 5-entry COSE_Key map, got %d entries", len(key))
	}
	if key[int(cose.LabelKty)] != cose.KtyEC2 {
		t.Errorf("kty = %v, want %v", key[int(cose.LabelKty)], cose.KtyEC2)
	}
	if key[int(cose.LabelAlg)] != cose.AlgES256 {
		t.Errorf("alg = %v, want %v", key[int(cose.LabelAlg)], cose.AlgES256)
	}
	if key[int(cose.LabelCrv)] != cose.CrvP256 {
		t.Errorf("crv = %v, want %v", key[int(cose.LabelCrv)], cose.CrvP256)
	}
	gotX, ok := key[int(cose.LabelX)].([]byte)
	if !ok || gotX[0] != 0xAA {
		t.Errorf("x = %v, want first byte 0xAA", key[int(cose.LabelX)])
	}
	gotY, ok := key[int(cose.LabelY)].([]byte)
	if !ok || gotY[0] != 0xBB {
		t.Errorf("y = %v, want first byte 0xBB", key[int(cose.LabelY)])
	}
}
