package avro

import (
	"fmt"
	"time"

	"github.com/hamba/avro/v2"

	"github.com/streambridge/chafka/internal/chvalue"
)

// Analyzer holds everything derived from a record schema at
// construction time: the column type of every array/map field, and
// the null-zero substitute for every nullable field. All three tables
// are built once and never mutated afterwards.
type Analyzer struct {
	schema *avro.RecordSchema

	// ArrayTypes maps an `array` field's name to its element column
	// type.
	ArrayTypes map[string]chvalue.ColumnType
	// MapTypes maps a `map` field's name to its value column type.
	MapTypes map[string]chvalue.ColumnType
	// NullZeros maps a nullable ([null, T]) field's name to the
	// zero value substituted when it decodes to null.
	NullZeros map[string]chvalue.Value
}

// Fields returns the record's fields in declared order. Decode relies
// on this order, not on map iteration, to preserve column order.
func (a *Analyzer) Fields() []*avro.Field { return a.schema.Fields() }

// Analyze validates schema and derives the Analyzer's tables.
// schema must be a record at the top level; nested records, decimal
// logical types, and unions other than [null, T] are all rejected.
func Analyze(schema avro.Schema) (*Analyzer, error) {
	record, ok := schema.(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("avro schema root must be a record")
	}

	a := &Analyzer{
		schema:     record,
		ArrayTypes: make(map[string]chvalue.ColumnType),
		MapTypes:   make(map[string]chvalue.ColumnType),
		NullZeros:  make(map[string]chvalue.Value),
	}

	for _, field := range record.Fields() {
		if err := a.analyzeField(field); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name(), err)
		}
	}
	return a, nil
}

func (a *Analyzer) analyzeField(field *avro.Field) error {
	switch t := field.Type().(type) {
	case *avro.RecordSchema:
		return fmt.Errorf("nested records are not supported")
	case *avro.UnionSchema:
		types := t.Types()
		if len(types) != 2 || types[0].Type() != avro.Null {
			return fmt.Errorf("only supported union type is [null, <type>]")
		}
		zero, err := zeroValueOf(types[1])
		if err != nil {
			return err
		}
		a.NullZeros[field.Name()] = zero
	case *avro.ArraySchema:
		ct, err := sqlTypeOf(t.Items())
		if err != nil {
			return err
		}
		a.ArrayTypes[field.Name()] = ct
	case *avro.MapSchema:
		ct, err := sqlTypeOf(t.Values())
		if err != nil {
			return err
		}
		a.MapTypes[field.Name()] = ct
	case *avro.FixedSchema, *avro.EnumSchema:
		// Decoder.convertScalarField maps both straight to String
		// (or, for a fixed(12) duration logical type, flattens it via
		// scalarToValue) without consulting sqlTypeOf, which only
		// understands PrimitiveSchema nodes. A fixed-backed decimal is
		// rejected here, as a bytes-backed one is in sqlTypeOf.
		if f, ok := t.(*avro.FixedSchema); ok && f.Logical() != nil && f.Logical().Type() == avro.Decimal {
			return fmt.Errorf("unsupported decimal type")
		}
	default:
		// Scalar/temporal/UUID field: must resolve to a known column
		// type, even though we don't need to record it anywhere —
		// this catches unsupported types (e.g. decimal) at
		// construction time rather than on the first message.
		if _, err := sqlTypeOf(t); err != nil {
			return err
		}
	}
	return nil
}

// sqlTypeOf maps a non-record, non-union Avro schema node to its
// destination column type.
func sqlTypeOf(s avro.Schema) (chvalue.ColumnType, error) {
	prim, ok := s.(*avro.PrimitiveSchema)
	if !ok {
		return chvalue.ColumnType{}, unsupportedType(s)
	}
	if logical := prim.Logical(); logical != nil {
		switch logical.Type() {
		case avro.Date:
			return chvalue.Date, nil
		case avro.TimeMillis, avro.TimeMicros:
			return chvalue.Int32, nil
		case avro.TimestampMillis, avro.LocalTimestampMillis:
			return chvalue.DateTime64(3, time.UTC), nil
		case avro.TimestampMicros, avro.LocalTimestampMicros:
			return chvalue.DateTime64(6, time.UTC), nil
		case avro.Duration:
			return chvalue.Int64, nil
		case avro.Decimal:
			return chvalue.ColumnType{}, fmt.Errorf("unsupported decimal type")
		}
	}
	switch prim.Type() {
	case avro.Boolean:
		return chvalue.Bool, nil
	case avro.Int:
		return chvalue.Int32, nil
	case avro.Long:
		return chvalue.Int64, nil
	case avro.Float:
		return chvalue.Float32, nil
	case avro.Double:
		return chvalue.Float64, nil
	case avro.Bytes:
		return chvalue.String, nil
	case avro.String:
		if prim.Logical() != nil && prim.Logical().Type() == avro.UUID {
			return chvalue.Uuid, nil
		}
		return chvalue.String, nil
	}
	return chvalue.ColumnType{}, unsupportedType(s)
}

func zeroValueOf(s avro.Schema) (chvalue.Value, error) {
	// Fixed and enum schemas surface as their own node kinds rather
	// than PrimitiveSchema; both map to String, except a fixed(12)
	// duration, which decodes to Int64, and a fixed decimal, which is
	// rejected.
	switch f := s.(type) {
	case *avro.FixedSchema:
		if logical := f.Logical(); logical != nil {
			switch logical.Type() {
			case avro.Duration:
				return chvalue.ZeroValue(chvalue.Int64), nil
			case avro.Decimal:
				return chvalue.Value{}, fmt.Errorf("unsupported decimal type")
			}
		}
		return chvalue.NewString(nil), nil
	case *avro.EnumSchema:
		return chvalue.NewString(nil), nil
	}
	ct, err := sqlTypeOf(s)
	if err != nil {
		return chvalue.Value{}, err
	}
	return chvalue.ZeroValue(ct), nil
}

func unsupportedType(s avro.Schema) error {
	return fmt.Errorf("unsupported type %s", s.Type())
}
