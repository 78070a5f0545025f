// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package logging provides the authenticator's one structured-logging
// constructor, built on hermannm.dev/devlog over log/slog (the teacher's
// examples/go.mod dependency for this purpose). No package-level logger
// is kept: every session owns its own *slog.Logger (Design Notes §9).
package logging

import (
	"io"
	"log/slog"

	"hermannm.dev/devlog"
)

// New returns a devlog-formatted structured logger writing to w.
func New(w io.Writer) *slog.Logger {
	return slog.New(devlog.NewHandler(w, nil))
}
