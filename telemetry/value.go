// Package telemetry defines the typed value model carried by introspection
// snapshots: scalar numerics, booleans, durations, and structural values
// (vectors, orientations, poses), with the JSON wire encoding used on the bus.
package telemetry

import (
	"fmt"
	"time"

	"github.com/c360/plotstream/errors"
)

// ValueType is the declared type tag of a telemetry value.
type ValueType string

// Supported value types
const (
	TypeDouble     ValueType = "double"
	TypeInt        ValueType = "int"
	TypeBool       ValueType = "bool"
	TypeDuration   ValueType = "duration"
	TypeVector3    ValueType = "vector3"
	TypeQuaternion ValueType = "quaternion"
	TypePose       ValueType = "pose"
)

// Value is a tagged union of the telemetry value types. The Type tag declares
// which field is populated; exactly one concrete field must be set.
type Value struct {
	Type ValueType `json:"type"`

	Double     *float64       `json:"double,omitempty"`
	Int        *int64         `json:"int,omitempty"`
	Bool       *bool          `json:"bool,omitempty"`
	Duration   *time.Duration `json:"duration_ns,omitempty"`
	Vector3    *Vector3       `json:"vector3,omitempty"`
	Quaternion *Quaternion    `json:"quaternion,omitempty"`
	Pose       *Pose          `json:"pose,omitempty"`
}

// NewDouble returns a double value.
func NewDouble(v float64) *Value {
	return &Value{Type: TypeDouble, Double: &v}
}

// NewInt returns an integer value.
func NewInt(v int64) *Value {
	return &Value{Type: TypeInt, Int: &v}
}

// NewBool returns a boolean value.
func NewBool(v bool) *Value {
	return &Value{Type: TypeBool, Bool: &v}
}

// NewDuration returns a duration value.
func NewDuration(d time.Duration) *Value {
	return &Value{Type: TypeDuration, Duration: &d}
}

// NewVector3 returns a vector value.
func NewVector3(v Vector3) *Value {
	return &Value{Type: TypeVector3, Vector3: &v}
}

// NewQuaternion returns an orientation value.
func NewQuaternion(q Quaternion) *Value {
	return &Value{Type: TypeQuaternion, Quaternion: &q}
}

// NewPose returns a pose value.
func NewPose(p Pose) *Value {
	return &Value{Type: TypePose, Pose: &p}
}

// Has reports whether the field declared by the type tag is populated.
func (v *Value) Has() bool {
	if v == nil {
		return false
	}
	switch v.Type {
	case TypeDouble:
		return v.Double != nil
	case TypeInt:
		return v.Int != nil
	case TypeBool:
		return v.Bool != nil
	case TypeDuration:
		return v.Duration != nil
	case TypeVector3:
		return v.Vector3 != nil
	case TypeQuaternion:
		return v.Quaternion != nil
	case TypePose:
		return v.Pose != nil
	default:
		return false
	}
}

// Validate checks that the type tag is known and the declared field is set.
func (v *Value) Validate() error {
	if v == nil {
		return errors.ErrInvalidValue
	}
	switch v.Type {
	case TypeDouble, TypeInt, TypeBool, TypeDuration,
		TypeVector3, TypeQuaternion, TypePose:
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: unknown type %q", errors.ErrInvalidValue, v.Type),
			"telemetry", "Validate", "type tag check")
	}
	if !v.Has() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s field not set", errors.ErrInvalidValue, v.Type),
			"telemetry", "Validate", "field presence check")
	}
	return nil
}

// Scalar returns the direct scalar rendering of a plain value: doubles and
// ints as-is, booleans as 0/1, durations as floating seconds. Structural
// types (vector, quaternion, pose) have no direct scalar and report false;
// they require a query-directed extraction.
func (v *Value) Scalar() (float64, bool) {
	if !v.Has() {
		return 0, false
	}
	switch v.Type {
	case TypeDouble:
		return *v.Double, true
	case TypeInt:
		return float64(*v.Int), true
	case TypeBool:
		if *v.Bool {
			return 1, true
		}
		return 0, true
	case TypeDuration:
		return v.Duration.Seconds(), true
	default:
		return 0, false
	}
}
