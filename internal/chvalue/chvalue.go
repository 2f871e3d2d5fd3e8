// Package chvalue defines the typed value vocabulary rows are built from
// on their way into ClickHouse: a small, fixed set of column types and a
// tagged value that carries one of them.
package chvalue

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the destination column types a Decoder can produce.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindUuid
	KindDate
	KindDateTime64
	KindArray
	KindMap
)

// ColumnType is a descriptor of a destination column. Scalar and
// DateTime64 types compare equal with == when they describe the same
// shape, regardless of where they were constructed. Array and Map carry
// the element/value type they were built from by pointer, so == on them
// compares those pointers: two separately built Array(Int32) values are
// not ==, and their shapes match only by comparing Kind and *Elem (or
// *Value).
type ColumnType struct {
	Kind Kind

	// DateTime64 only.
	Precision int
	Loc       *time.Location

	// Array only.
	Elem *ColumnType
	// Map only (keys are always String).
	Value *ColumnType
}

var (
	Bool    = ColumnType{Kind: KindBool}
	Int32   = ColumnType{Kind: KindInt32}
	Int64   = ColumnType{Kind: KindInt64}
	Float32 = ColumnType{Kind: KindFloat32}
	Float64 = ColumnType{Kind: KindFloat64}
	String  = ColumnType{Kind: KindString}
	Uuid    = ColumnType{Kind: KindUuid}
	Date    = ColumnType{Kind: KindDate}
)

// DateTime64 builds the (precision, tz) column type. precision is in
// {3, 6} for the logical types this bridge supports (milliseconds,
// microseconds).
func DateTime64(precision int, loc *time.Location) ColumnType {
	return ColumnType{Kind: KindDateTime64, Precision: precision, Loc: loc}
}

// Array builds an Array(elem) column type.
func Array(elem ColumnType) ColumnType {
	return ColumnType{Kind: KindArray, Elem: &elem}
}

// Map builds a Map(String, value) column type.
func Map(value ColumnType) ColumnType {
	return ColumnType{Kind: KindMap, Value: &value}
}

// Value is a typed value tagged with the ColumnType it was decoded as.
// The zero value of each native field is meaningless unless Type.Kind
// selects it.
type Value struct {
	Type ColumnType

	boolVal    bool
	int32Val   int32
	int64Val   int64
	float32Val float32
	float64Val float64
	bytesVal   []byte
	uuidVal    uuid.UUID
	dateVal    uint16
	timeVal    time.Time
	arrayVal   []Value
	mapVal     map[string]Value
}

func NewBool(v bool) Value       { return Value{Type: Bool, boolVal: v} }
func NewInt32(v int32) Value     { return Value{Type: Int32, int32Val: v} }
func NewInt64(v int64) Value     { return Value{Type: Int64, int64Val: v} }
func NewFloat32(v float32) Value { return Value{Type: Float32, float32Val: v} }
func NewFloat64(v float64) Value { return Value{Type: Float64, float64Val: v} }
func NewString(v []byte) Value   { return Value{Type: String, bytesVal: v} }
func NewStringFrom(v string) Value {
	return Value{Type: String, bytesVal: []byte(v)}
}
func NewUuid(v uuid.UUID) Value { return Value{Type: Uuid, uuidVal: v} }
func NewDate(days uint16) Value { return Value{Type: Date, dateVal: days} }
func NewDateTime64(t time.Time, precision int, loc *time.Location) Value {
	return Value{Type: DateTime64(precision, loc), timeVal: t}
}
func NewArray(elem ColumnType, items []Value) Value {
	return Value{Type: Array(elem), arrayVal: items}
}
func NewMap(value ColumnType, entries map[string]Value) Value {
	return Value{Type: Map(value), mapVal: entries}
}

func (v Value) Bool() bool                { return v.boolVal }
func (v Value) Int32() int32              { return v.int32Val }
func (v Value) Int64() int64              { return v.int64Val }
func (v Value) Float32() float32          { return v.float32Val }
func (v Value) Float64() float64          { return v.float64Val }
func (v Value) Bytes() []byte             { return v.bytesVal }
func (v Value) String() string            { return string(v.bytesVal) }
func (v Value) Uuid() uuid.UUID           { return v.uuidVal }
func (v Value) DateDays() uint16          { return v.dateVal }
func (v Value) Time() time.Time           { return v.timeVal }
func (v Value) Array() []Value            { return v.arrayVal }
func (v Value) Map() map[string]Value     { return v.mapVal }

// Native returns the plain Go value suitable for handing to a
// ClickHouse driver's positional column append.
func (v Value) Native() any {
	switch v.Type.Kind {
	case KindBool:
		return v.boolVal
	case KindInt32:
		return v.int32Val
	case KindInt64:
		return v.int64Val
	case KindFloat32:
		return v.float32Val
	case KindFloat64:
		return v.float64Val
	case KindString:
		return v.bytesVal
	case KindUuid:
		return v.uuidVal
	case KindDate:
		return v.dateVal
	case KindDateTime64:
		return v.timeVal
	case KindArray:
		natives := make([]any, len(v.arrayVal))
		for i, e := range v.arrayVal {
			natives[i] = e.Native()
		}
		return natives
	case KindMap:
		natives := make(map[string]any, len(v.mapVal))
		for k, e := range v.mapVal {
			natives[k] = e.Native()
		}
		return natives
	default:
		return nil
	}
}

// Column is a single named, typed entry of a Row.
type Column struct {
	Name  string
	Value Value
}

// Row is an ordered sequence of columns. Column order follows the
// decoder's field iteration order and must stay stable across the
// rows of a single decoder so that a positional insert lines up with
// the destination table.
type Row []Column

// Names returns the column names in row order, used by sinks that
// insert with an explicit column list.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// ZeroValue returns the substitute value used when a nullable Avro
// field decodes to null, for a given column type.
func ZeroValue(t ColumnType) Value {
	switch t.Kind {
	case KindBool:
		return NewBool(false)
	case KindInt32:
		return NewInt32(0)
	case KindInt64:
		return NewInt64(0)
	case KindFloat32:
		return NewFloat32(0)
	case KindFloat64:
		return NewFloat64(0)
	case KindString:
		return NewString(nil)
	case KindUuid:
		return NewUuid(uuid.UUID{})
	case KindDate:
		return NewDate(0)
	case KindDateTime64:
		return NewDateTime64(time.Unix(0, 0).In(t.Loc), t.Precision, t.Loc)
	default:
		return Value{Type: t}
	}
}
