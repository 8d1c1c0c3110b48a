package board

import (
	"encoding/json"
	"fmt"
)

// Wire format for commands: a kind tag plus the variant's own payload.
// Only caller-constructible kinds round-trip; inverse-only kinds never
// leave the process.

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalCommand encodes a command as a kind-tagged JSON envelope.
func MarshalCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("cannot marshal nil command")
	}
	switch cmd.Kind() {
	case kindRemoveAdded, kindRestoreToken, kindRestoreEntities:
		return nil, fmt.Errorf("cannot marshal internal command kind %q", cmd.Kind())
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding %q payload: %w", cmd.Kind(), err)
	}
	return json.Marshal(envelope{Kind: cmd.Kind(), Payload: payload})
}

// UnmarshalCommand decodes a kind-tagged JSON envelope into a command.
func UnmarshalCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding command envelope: %w", err)
	}

	var (
		cmd Command
		err error
	)
	switch env.Kind {
	case KindAddToken:
		cmd, err = decodeInto[AddToken](env.Payload)
	case KindMoveToken:
		cmd, err = decodeInto[MoveToken](env.Payload)
	case KindRemoveToken:
		cmd, err = decodeInto[RemoveToken](env.Payload)
	case KindAddArrow:
		cmd, err = decodeInto[AddArrow](env.Payload)
	case KindRemoveArrow:
		cmd, err = decodeInto[RemoveArrow](env.Payload)
	case KindAddStroke:
		cmd, err = decodeInto[AddStroke](env.Payload)
	case KindAddZone:
		cmd, err = decodeInto[AddZone](env.Payload)
	case KindRemoveZone:
		cmd, err = decodeInto[RemoveZone](env.Payload)
	case KindErase:
		cmd, err = decodeInto[Erase](env.Payload)
	case KindResetBoard:
		cmd = ResetBoard{}
	case KindSetFormation:
		cmd, err = decodeInto[SetFormation](env.Payload)
	case KindBatch:
		cmd, err = decodeInto[Batch](env.Payload)
	case KindRestoreSnapshot:
		cmd, err = decodeInto[RestoreSnapshot](env.Payload)
	default:
		return nil, fmt.Errorf("unknown command kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %q payload: %w", env.Kind, err)
	}
	return cmd, nil
}

func decodeInto[T Command](payload json.RawMessage) (Command, error) {
	var cmd T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

// MarshalJSON encodes the nested commands through the envelope codec so a
// Batch round-trips despite holding an interface slice.
func (c Batch) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(c.Commands))
	for i, sub := range c.Commands {
		data, err := MarshalCommand(sub)
		if err != nil {
			return nil, err
		}
		raw[i] = data
	}
	return json.Marshal(struct {
		Commands []json.RawMessage `json:"commands"`
	}{Commands: raw})
}

// UnmarshalJSON decodes nested envelope-encoded commands.
func (c *Batch) UnmarshalJSON(data []byte) error {
	var wire struct {
		Commands []json.RawMessage `json:"commands"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Commands = make([]Command, len(wire.Commands))
	for i, raw := range wire.Commands {
		sub, err := UnmarshalCommand(raw)
		if err != nil {
			return err
		}
		c.Commands[i] = sub
	}
	return nil
}
