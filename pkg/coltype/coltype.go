// Package coltype models the logical column types a physical schema can
// target. Type names arrive as strings from three untrusted-ish places
// (source profiling, AI suggestions, user overrides), so parsing never
// fails: an unrecognized name degrades to String rather than aborting a
// whole pipeline run.
package coltype

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind enumerates the supported logical type families.
type Kind int

const (
	KindString Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindBinary
	KindBoolean
	KindDate
	KindDatetime
	KindTime
	KindCategorical
	KindDecimal
)

// Type is a logical column type: a kind plus optional fixed-point
// parameters. Precision/scale are meaningful only for KindDecimal; a
// Decimal with Precision == 0 is the unparameterized fallback form.
type Type struct {
	Kind      Kind
	Precision int
	Scale     int
}

// Canonical type constructors for the common cases.
var (
	String  = Type{Kind: KindString}
	Int64   = Type{Kind: KindInt64}
	Float64 = Type{Kind: KindFloat64}
	Boolean = Type{Kind: KindBoolean}
	Date    = Type{Kind: KindDate}

	Datetime = Type{Kind: KindDatetime}
)

// Decimal returns a parameterized fixed-point type.
func Decimal(precision, scale int) Type {
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// kindNames maps each kind to its canonical wire name.
var kindNames = map[Kind]string{
	KindString:      "String",
	KindInt8:        "Int8",
	KindInt16:       "Int16",
	KindInt32:       "Int32",
	KindInt64:       "Int64",
	KindUInt8:       "UInt8",
	KindUInt16:      "UInt16",
	KindUInt32:      "UInt32",
	KindUInt64:      "UInt64",
	KindFloat32:     "Float32",
	KindFloat64:     "Float64",
	KindBinary:      "Binary",
	KindBoolean:     "Boolean",
	KindDate:        "Date",
	KindDatetime:    "Datetime",
	KindTime:        "Time",
	KindCategorical: "Categorical",
	KindDecimal:     "Decimal",
}

// byName is the exact-match lookup table, including the accepted aliases.
var byName = map[string]Type{
	"Int8":    {Kind: KindInt8},
	"Int16":   {Kind: KindInt16},
	"Int32":   {Kind: KindInt32},
	"Int64":   {Kind: KindInt64},
	"UInt8":   {Kind: KindUInt8},
	"UInt16":  {Kind: KindUInt16},
	"UInt32":  {Kind: KindUInt32},
	"UInt64":  {Kind: KindUInt64},
	"Float32": {Kind: KindFloat32},
	"Float64": {Kind: KindFloat64},

	"String": {Kind: KindString},
	"Utf8":   {Kind: KindString},
	"Binary": {Kind: KindBinary},

	"Boolean": {Kind: KindBoolean},
	"Bool":    {Kind: KindBoolean},

	"Date":     {Kind: KindDate},
	"Datetime": {Kind: KindDatetime},
	"Time":     {Kind: KindTime},

	"Categorical": {Kind: KindCategorical},
	"Decimal":     {Kind: KindDecimal},
}

const decimalPrefix = "Decimal"

var decimalRe = regexp.MustCompile(`^Decimal\((\d+),\s*(\d+)\)$`)

// Parse resolves a logical type name to a Type.
//
// Resolution order: exact match against the canonical name table, then the
// parameterized fixed-point form "Decimal(precision,scale)", then the
// String fallback. A malformed Decimal parameter list falls back to the
// unparameterized Decimal type instead of erroring.
func Parse(name string) Type {
	name = strings.TrimSpace(name)
	if t, ok := byName[name]; ok {
		return t
	}
	if strings.HasPrefix(name, decimalPrefix) {
		m := decimalRe.FindStringSubmatch(name)
		if m == nil {
			return Type{Kind: KindDecimal}
		}
		precision, err1 := strconv.Atoi(m[1])
		scale, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return Type{Kind: KindDecimal}
		}
		return Decimal(precision, scale)
	}
	return Type{Kind: KindString}
}

// String renders the canonical wire name, including fixed-point parameters
// when present.
func (t Type) String() string {
	if t.Kind == KindDecimal && t.Precision > 0 {
		return fmt.Sprintf("Decimal(%d,%d)", t.Precision, t.Scale)
	}
	if s, ok := kindNames[t.Kind]; ok {
		return s
	}
	return "String"
}

// IsNumeric reports whether values of this type support min/max profiling
// and numeric casting.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindFloat32, KindFloat64, KindDecimal:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the kind is a signed or unsigned integer.
func (t Type) IsInteger() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	default:
		return false
	}
}

// Bounds returns the inclusive integer range for integer kinds. ok is false
// for non-integer kinds.
func (t Type) Bounds() (min int64, max uint64, ok bool) {
	switch t.Kind {
	case KindInt8:
		return -1 << 7, 1<<7 - 1, true
	case KindInt16:
		return -1 << 15, 1<<15 - 1, true
	case KindInt32:
		return -1 << 31, 1<<31 - 1, true
	case KindInt64:
		return -1 << 63, 1<<63 - 1, true
	case KindUInt8:
		return 0, 1<<8 - 1, true
	case KindUInt16:
		return 0, 1<<16 - 1, true
	case KindUInt32:
		return 0, 1<<32 - 1, true
	case KindUInt64:
		return 0, 1<<64 - 1, true
	default:
		return 0, 0, false
	}
}
