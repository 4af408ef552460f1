package telemetry

import (
	"encoding/json"

	"github.com/c360/plotstream/errors"
)

// Param is one (signal name, typed value) pair in a snapshot. The name is a
// full signal identifier string; a nil value means the signal reported
// nothing this batch.
type Param struct {
	Name  string `json:"name"`
	Value *Value `json:"value,omitempty"`
}

// Snapshot is one delivered telemetry batch: an ordered list of params.
// Order is meaningful — the dispatcher takes the first occurrence of the time
// axis and resolves entries in delivered order.
type Snapshot struct {
	Params []Param `json:"params"`
}

// Encode renders the snapshot in its JSON wire form.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "Snapshot", "Encode", "json marshal")
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot from its JSON wire form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapInvalid(err, "Snapshot", "DecodeSnapshot", "json unmarshal")
	}
	return &s, nil
}
