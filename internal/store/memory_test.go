// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package store_test

import (
	"reflect"
	"testing"

	"github.com/fido2key/authenticator/internal/store"
)

func TestMemoryStoreLoadBeforeSave(t *testing.T) {
	m := &store.MemoryStore{}
	_, ok, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false before the first Save")
	}
}

func TestMemoryStoreSaveLoadRoundTrip(t *testing.T) {
	m := &store.MemoryStore{}
	want := store.State{SignCounter: 42, PinCodeSet: true, PinRetries: 5}
	if err := m.Save(want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected ok=true after Save")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
