// Package orderparams merges order-parameter form input into a pending
// basket mutation. It performs no I/O.
package orderparams

import (
	"errors"
	"fmt"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
)

var (
	// ErrPositionOutOfRange is returned when a field addresses a position that
	// is neither an existing entry nor the next expansion slot.
	ErrPositionOutOfRange = errors.New("order param position out of range")
)

type ControlKind string

const (
	ControlText     ControlKind = "text"
	ControlSelect   ControlKind = "select"
	ControlCheckbox ControlKind = "checkbox"
	ControlRadio    ControlKind = "radio"
)

// GroupField is a parameter-group selector, ParamGroup[position][groupID].
type GroupField struct {
	Position int    `json:"position"`
	GroupID  string `json:"group_id"`
	Value    string `json:"value"`
}

// ValueField is a parameter value control, ParamValue[position][paramID].
type ValueField struct {
	Position int         `json:"position"`
	ParamID  string      `json:"param_id"`
	Value    string      `json:"value"`
	Kind     ControlKind `json:"kind"`
	Checked  bool        `json:"checked"`
}

// Applies reports whether the field contributes a value. Exclusive-choice
// controls count only when checked; free-form controls always count.
func (f ValueField) Applies() bool {
	switch f.Kind {
	case ControlCheckbox, ControlRadio:
		return f.Checked
	default:
		return true
	}
}

// Form is the typed order-parameter input produced by the UI layer.
type Form struct {
	GroupFields []GroupField `json:"group_fields"`
	ValueFields []ValueField `json:"value_fields"`
}

// MergeParam appends {paramID, value} to the entry at position and forces that
// entry's quantity to 1. When position is the next free slot above zero, the
// entry is created as a copy of entry 0 with an empty parameter list.
// The addressed entry is modified in place; other entries are left untouched.
func MergeParam(m model.PendingBasketMutation, position int, groupID, paramID, value string) (model.PendingBasketMutation, error) {
	if position < 0 || len(m) == 0 || position > len(m) || (position == len(m) && position == 0) {
		return m, fmt.Errorf("%w: position %d with %d entries", ErrPositionOutOfRange, position, len(m))
	}

	if position == len(m) {
		expansion := m[0].Clone()
		expansion.OrderParams = []model.OrderParamValue{}
		m = append(m, expansion)
	}

	entry := &m[position]
	entry.Quantity = 1
	entry.OrderParams = append(entry.OrderParams, model.OrderParamValue{
		ParamGroupID: groupID,
		ParamID:      paramID,
		Value:        value,
	})
	return m, nil
}

// Save applies every group field and then every applicable value field to a
// copy of m. Group fields go first so the entries they create exist before
// value fields target them.
func Save(m model.PendingBasketMutation, form Form) (model.PendingBasketMutation, error) {
	out := m.Clone()
	var err error

	for _, field := range form.GroupFields {
		out, err = MergeParam(out, field.Position, field.GroupID, field.Value, field.Value)
		if err != nil {
			return nil, fmt.Errorf("group field %s: %w", field.GroupID, err)
		}
	}

	for _, field := range form.ValueFields {
		if !field.Applies() {
			continue
		}
		out, err = MergeParam(out, field.Position, "", field.ParamID, field.Value)
		if err != nil {
			return nil, fmt.Errorf("value field %s: %w", field.ParamID, err)
		}
	}

	return out, nil
}
