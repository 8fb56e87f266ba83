package solution

import (
	"fmt"
	"regexp"

	"github.com/mini-maxit/executor/pkg/errors"
)

// ValueType names an argument or return type of an entry point. Dynamic languages
// ignore it; statically typed languages generate parsers and printers from it.
type ValueType string

const (
	TypeInt          ValueType = "int"
	TypeLong         ValueType = "long"
	TypeDouble       ValueType = "double"
	TypeBool         ValueType = "bool"
	TypeString       ValueType = "string"
	TypeIntArray     ValueType = "int[]"
	TypeLongArray    ValueType = "long[]"
	TypeDoubleArray  ValueType = "double[]"
	TypeBoolArray    ValueType = "bool[]"
	TypeStringArray  ValueType = "string[]"
	TypeIntMatrix    ValueType = "int[][]"
	TypeStringMatrix ValueType = "string[][]"
)

var knownValueTypes = map[ValueType]struct{}{
	TypeInt: {}, TypeLong: {}, TypeDouble: {}, TypeBool: {}, TypeString: {},
	TypeIntArray: {}, TypeLongArray: {}, TypeDoubleArray: {}, TypeBoolArray: {},
	TypeStringArray: {}, TypeIntMatrix: {}, TypeStringMatrix: {},
}

// Valid reports whether t belongs to the supported type vocabulary.
func (t ValueType) Valid() bool {
	_, ok := knownValueTypes[t]
	return ok
}

// Elem returns the element type of an array type, or "" for scalars.
func (t ValueType) Elem() ValueType {
	switch t {
	case TypeIntArray:
		return TypeInt
	case TypeLongArray:
		return TypeLong
	case TypeDoubleArray:
		return TypeDouble
	case TypeBoolArray:
		return TypeBool
	case TypeStringArray:
		return TypeString
	case TypeIntMatrix:
		return TypeIntArray
	case TypeStringMatrix:
		return TypeStringArray
	default:
		return ""
	}
}

type Param struct {
	Name string    `json:"name"`
	Type ValueType `json:"type"`
}

// EntryPoint describes the function the harness calls: its name, ordered parameters
// and return type. It is part of the problem definition.
type EntryPoint struct {
	Name    string    `json:"name"`
	Params  []Param   `json:"params"`
	Returns ValueType `json:"returns"`
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DefaultEntryPoint is the two-number index sum signature the judge started with.
func DefaultEntryPoint() EntryPoint {
	return EntryPoint{
		Name: "twoSum",
		Params: []Param{
			{Name: "nums", Type: TypeIntArray},
			{Name: "target", Type: TypeInt},
		},
		Returns: TypeIntArray,
	}
}

// IsZero reports whether no entry point was supplied.
func (ep EntryPoint) IsZero() bool {
	return ep.Name == "" && len(ep.Params) == 0 && ep.Returns == ""
}

// ValidateNames checks the function and parameter names. They end up in generated
// source, so only plain identifiers are allowed.
func (ep EntryPoint) ValidateNames() error {
	if !identifierRegex.MatchString(ep.Name) {
		return fmt.Errorf("%w: function name %q", errors.ErrInvalidEntryPoint, ep.Name)
	}
	for i, p := range ep.Params {
		if !identifierRegex.MatchString(p.Name) {
			return fmt.Errorf("%w: parameter %d name %q", errors.ErrInvalidEntryPoint, i, p.Name)
		}
	}
	return nil
}

// Validate checks names and types.
func (ep EntryPoint) Validate() error {
	if err := ep.ValidateNames(); err != nil {
		return err
	}
	for _, p := range ep.Params {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: parameter %s type %q", errors.ErrUnsupportedValueType, p.Name, p.Type)
		}
	}
	if !ep.Returns.Valid() {
		return fmt.Errorf("%w: return type %q", errors.ErrUnsupportedValueType, ep.Returns)
	}
	return nil
}
