package avro

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hamba/avro/v2"
	goavro "github.com/linkedin/goavro/v2"
	"github.com/google/uuid"

	"github.com/streambridge/chafka/internal/chvalue"
)

// Name is the identifier this decoder is registered under in a
// decoder.Factory.
const Name = "avro"

// Decoder decodes Confluent-wire-framed Avro messages against a single
// schema resolved once at construction time. Decoding is split across
// a goavro codec (binary decode) and a hamba/avro schema tree (field
// order and column-type derivation), since goavro's Codec does not
// expose a walkable schema.
type Decoder struct {
	codec    *goavro.Codec
	analyzer *Analyzer

	includeFields map[string]bool
	excludeFields map[string]bool
	nameOverrides map[string]string
}

// New builds an AvroDecoder: resolves the schema (file or registry),
// parses it two ways — once for goavro's binary codec, once for the
// field-order/column-type analysis — and captures the field filtering
// options out of custom.
func New(topic string, custom map[string]any) (*Decoder, error) {
	schemaText, err := ResolveSchema(topic, schemaSourceFrom(custom))
	if err != nil {
		return nil, err
	}

	codec, err := goavro.NewCodec(schemaText)
	if err != nil {
		return nil, fmt.Errorf("parsing avro schema for codec: %w", err)
	}

	parsed, err := avro.Parse(schemaText)
	if err != nil {
		return nil, fmt.Errorf("parsing avro schema: %w", err)
	}
	analyzer, err := Analyze(parsed)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		codec:         codec,
		analyzer:      analyzer,
		includeFields: stringSet(custom["include_fields"]),
		excludeFields: stringSet(custom["exclude_fields"]),
		nameOverrides: stringMap(custom["field_names"]),
	}, nil
}

func (d *Decoder) Name() string { return Name }

// Decode strips the 5-byte Confluent wire prefix unconditionally (no
// magic-byte or schema-id validation — the caller trusts the
// configured schema), decodes the remainder under the stored schema,
// and walks the record's fields in declared order.
func (d *Decoder) Decode(message []byte) (chvalue.Row, error) {
	if len(message) < 5 {
		return nil, fmt.Errorf("avro message shorter than the confluent wire prefix")
	}
	payload := message[5:]

	native, _, err := d.codec.NativeFromBinary(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding avro binary: %w", err)
	}
	record, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avro message must be a record")
	}

	fields := d.analyzer.Fields()
	row := make(chvalue.Row, 0, len(fields))
	for _, field := range fields {
		name := field.Name()
		if d.excludeFields[name] {
			continue
		}
		if len(d.includeFields) > 0 && !d.includeFields[name] {
			continue
		}

		value, err := d.convertField(field, record[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		emitted := name
		if override, ok := d.nameOverrides[name]; ok {
			emitted = override
		}
		row = append(row, chvalue.Column{Name: emitted, Value: value})
	}
	return row, nil
}

// convertField converts one field's decoded native value per the
// avro-value-to-column-value table: unions unwrap to either the
// recorded null-zero or the non-null branch; arrays/maps recurse
// element-by-element against the analyzer's recorded element type;
// everything else is a scalar conversion.
func (d *Decoder) convertField(field *avro.Field, raw interface{}) (chvalue.Value, error) {
	name := field.Name()
	switch t := field.Type().(type) {
	case *avro.UnionSchema:
		return d.convertUnion(name, t, raw)
	case *avro.ArraySchema:
		items, ok := raw.([]interface{})
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected array, got %T", raw)
		}
		elemType, ok := d.analyzer.ArrayTypes[name]
		if !ok {
			return chvalue.Value{}, fmt.Errorf("missing array element type (analyzer bug)")
		}
		values := make([]chvalue.Value, len(items))
		for i, item := range items {
			v, err := scalarToValue(elemType, item)
			if err != nil {
				return chvalue.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = v
		}
		return chvalue.NewArray(elemType, values), nil
	case *avro.MapSchema:
		entries, ok := raw.(map[string]interface{})
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected map, got %T", raw)
		}
		valueType, ok := d.analyzer.MapTypes[name]
		if !ok {
			return chvalue.Value{}, fmt.Errorf("missing map value type (analyzer bug)")
		}
		out := make(map[string]chvalue.Value, len(entries))
		for k, v := range entries {
			cv, err := scalarToValue(valueType, v)
			if err != nil {
				return chvalue.Value{}, fmt.Errorf("entry %s: %w", k, err)
			}
			out[k] = cv
		}
		return chvalue.NewMap(valueType, out), nil
	case *avro.RecordSchema:
		return chvalue.Value{}, fmt.Errorf("unsupported nested record")
	default:
		if raw == nil {
			return chvalue.Value{}, fmt.Errorf("unexpected null")
		}
		return d.convertScalarField(t, raw)
	}
}

// convertUnion unwraps goavro's single-key-map union representation:
// {"null": nil} for the null branch, {typeName: value} otherwise.
func (d *Decoder) convertUnion(name string, union *avro.UnionSchema, raw interface{}) (chvalue.Value, error) {
	wrapped, ok := raw.(map[string]interface{})
	if !ok {
		return chvalue.Value{}, fmt.Errorf("expected union wrapper, got %T", raw)
	}
	for key, inner := range wrapped {
		if key == "null" {
			zero, ok := d.analyzer.NullZeros[name]
			if !ok {
				return chvalue.Value{}, fmt.Errorf("missing null-zero value (analyzer bug)")
			}
			return zero, nil
		}
		branch := union.Types()[1]
		if recordBranch, ok := branch.(*avro.RecordSchema); ok {
			_ = recordBranch
			return chvalue.Value{}, fmt.Errorf("unsupported nested record")
		}
		return d.convertScalarField(branch, inner)
	}
	return chvalue.Value{}, fmt.Errorf("empty union value")
}

// convertScalarField converts a non-union, non-array, non-map field:
// Fixed and Enum decode to String(bytes)/String(symbol); everything
// else resolves a column type via sqlTypeOf and converts the raw
// native value goavro produced.
func (d *Decoder) convertScalarField(s avro.Schema, raw interface{}) (chvalue.Value, error) {
	switch f := s.(type) {
	case *avro.FixedSchema:
		if logical := f.Logical(); logical != nil && logical.Type() == avro.Duration {
			return scalarToValue(chvalue.Int64, raw)
		}
		b, ok := raw.([]byte)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected fixed bytes, got %T", raw)
		}
		return chvalue.NewString(b), nil
	case *avro.EnumSchema:
		sym, ok := raw.(string)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected enum symbol, got %T", raw)
		}
		return chvalue.NewStringFrom(sym), nil
	}

	ct, err := sqlTypeOf(s)
	if err != nil {
		return chvalue.Value{}, err
	}
	return scalarToValue(ct, raw)
}

// scalarToValue converts a raw native value goavro produced into a
// Value of the given column type. It is also used for array elements
// and map values, whose column type was already resolved by the
// analyzer.
func scalarToValue(ct chvalue.ColumnType, raw interface{}) (chvalue.Value, error) {
	switch ct.Kind {
	case chvalue.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return chvalue.NewBool(b), nil

	case chvalue.KindInt32:
		switch n := raw.(type) {
		case int32:
			return chvalue.NewInt32(n), nil
		case int:
			return chvalue.NewInt32(int32(n)), nil
		case int64:
			return chvalue.NewInt32(int32(n)), nil
		case time.Duration:
			// avro time-millis/time-micros: goavro decodes both to the
			// duration since midnight, so collapse to whole
			// milliseconds-of-day for the Int32 column.
			return chvalue.NewInt32(int32(n / time.Millisecond)), nil
		default:
			return chvalue.Value{}, fmt.Errorf("expected int, got %T", raw)
		}

	case chvalue.KindInt64:
		switch n := raw.(type) {
		case int64:
			return chvalue.NewInt64(n), nil
		case int32:
			return chvalue.NewInt64(int64(n)), nil
		case []byte:
			// avro duration: a 12-byte fixed of three little-endian
			// uint32 values (months, days, millis). goavro carries this
			// logical type through as its raw fixed-size encoding
			// rather than a higher-level type, so it is flattened here
			// into a single millisecond count (30-day months).
			if len(n) != 12 {
				return chvalue.Value{}, fmt.Errorf("expected 12-byte duration, got %d bytes", len(n))
			}
			months := binary.LittleEndian.Uint32(n[0:4])
			days := binary.LittleEndian.Uint32(n[4:8])
			millis := binary.LittleEndian.Uint32(n[8:12])
			flattened := (int64(months)*30+int64(days))*86400*1000 + int64(millis)
			return chvalue.NewInt64(flattened), nil
		default:
			return chvalue.Value{}, fmt.Errorf("expected long, got %T", raw)
		}

	case chvalue.KindFloat32:
		f, ok := raw.(float32)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected float, got %T", raw)
		}
		return chvalue.NewFloat32(f), nil

	case chvalue.KindFloat64:
		f, ok := raw.(float64)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected double, got %T", raw)
		}
		return chvalue.NewFloat64(f), nil

	case chvalue.KindString:
		switch s := raw.(type) {
		case []byte:
			return chvalue.NewString(s), nil
		case string:
			return chvalue.NewStringFrom(s), nil
		default:
			return chvalue.Value{}, fmt.Errorf("expected string/bytes, got %T", raw)
		}

	case chvalue.KindUuid:
		s, ok := raw.(string)
		if !ok {
			return chvalue.Value{}, fmt.Errorf("expected uuid string, got %T", raw)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return chvalue.Value{}, fmt.Errorf("parsing uuid: %w", err)
		}
		return chvalue.NewUuid(id), nil

	case chvalue.KindDate:
		switch d := raw.(type) {
		case int32:
			return chvalue.NewDate(uint16(d)), nil
		case int:
			return chvalue.NewDate(uint16(d)), nil
		case time.Time:
			// avro date: goavro decodes it to a UTC midnight time.Time.
			days := d.UTC().Unix() / int64((24 * time.Hour).Seconds())
			return chvalue.NewDate(uint16(days)), nil
		default:
			return chvalue.Value{}, fmt.Errorf("expected date, got %T", raw)
		}

	case chvalue.KindDateTime64:
		switch t := raw.(type) {
		case time.Time:
			// avro timestamp-millis/timestamp-micros: goavro decodes
			// both directly to a time.Time at the right instant.
			return chvalue.NewDateTime64(t.In(ct.Loc), ct.Precision, ct.Loc), nil
		case int64:
			tm := unixToTime(t, ct.Precision)
			return chvalue.NewDateTime64(tm.In(ct.Loc), ct.Precision, ct.Loc), nil
		default:
			return chvalue.Value{}, fmt.Errorf("expected timestamp, got %T", raw)
		}

	default:
		return chvalue.Value{}, fmt.Errorf("unsupported column kind for conversion")
	}
}
