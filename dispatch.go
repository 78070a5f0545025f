// Copyright 2023 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package authenticator

// Dispatch decodes the command byte of a raw CTAP2 request packet,
// invokes the matching handler, and returns the full response packet:
// a single status byte followed by the CBOR payload (empty on any
// non-success status, per spec.md §7). This is the sole entry point a
// transport layer calls (spec.md §2: "transport → C9 dispatcher → ...").
func (s *Session) Dispatch(packet []byte) []byte {
	if len(packet) == 0 {
		return []byte{byte(StatusInvalidCommand)}
	}
	cmd := Command(packet[0])
	payload := packet[1:]

	payloadOut, err := s.dispatchCommand(cmd, payload)
	status := StatusFor(err)

	s.log.Info("dispatch", "cmd", cmd, "status", status)

	if status != StatusSuccess {
		return []byte{byte(status)}
	}
	out := make([]byte, 0, 1+len(payloadOut))
	out = append(out, byte(status))
	out = append(out, payloadOut...)
	return out
}

func (s *Session) dispatchCommand(cmd Command, payload []byte) ([]byte, error) {
	switch cmd {
	case CmdMakeCredential:
		if s.deviceLocked() {
			return nil, ErrNotAllowed
		}
		resp, err := s.MakeCredential(payload)
		s.recordLastCommand(cmd, err)
		return resp, err

	case CmdGetAssertion:
		if s.deviceLocked() {
			return nil, ErrNotAllowed
		}
		resp, err := s.GetAssertion(payload)
		s.recordLastCommand(cmd, err)
		return resp, err

	case CmdGetNextAssertion:
		resp, err := s.GetNextAssertion()
		// GetNextAssertion already updates lastCommand itself on success.
		// A failure is recorded here, which ends eligibility for any
		// further get-next-assertion until the next get-assertion.
		if err != nil {
			s.recordLastCommand(cmd, err)
		}
		return resp, err

	case CmdClientPIN:
		if s.deviceLocked() {
			return nil, ErrNotAllowed
		}
		resp, err := s.ClientPIN(payload)
		s.recordLastCommand(cmd, err)
		return resp, err

	case CmdGetInfo:
		// Answered even during lockout (SPEC_FULL.md §5.4).
		resp, err := s.GetInfo()
		s.recordLastCommand(cmd, err)
		return resp, err

	case CmdReset:
		if !s.oracles.UserPresence() {
			s.recordLastCommand(cmd, ErrNotAllowed)
			return nil, ErrNotAllowed
		}
		err := s.Reset()
		s.recordLastCommand(cmd, err)
		return nil, err

	case CmdCancel:
		// No-op at this layer; does not alter continuation state or
		// last-command eligibility (spec.md §5).
		return nil, nil

	default:
		return nil, ErrInvalidCommand
	}
}

// recordLastCommand updates the dispatcher's last-command tag, the only
// coupling between consecutive commands (spec.md §5). It is skipped for
// GetNextAssertion's own success path, which updates it itself so the
// credential-popping state change and the eligibility flag stay atomic.
func (s *Session) recordLastCommand(cmd Command, err error) {
	s.lastCommand = cmd
	s.lastCommandOK = err == nil
	if cmd != CmdGetAssertion && cmd != CmdGetNextAssertion {
		s.continuation = nil
	}
}
