package rest

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// taggedValue pairs a rendered parameter value with a bit saying whether
// it is already JSON text: Preserialized means Raw is an object/array/
// quoted string produced by the JSON codec; otherwise Raw is a REST-string
// scalar (bare true/false, a decimal number, or an unquoted string).
type taggedValue struct {
	Raw           string
	Preserialized bool
}

// encodeRESTString renders v either as a compact REST-string scalar or,
// for anything else, as JSON text.
func encodeRESTString(v reflect.Value) taggedValue {
	if !v.IsValid() {
		return taggedValue{Raw: "null", Preserialized: true}
	}

	switch v.Kind() {
	case reflect.Bool:
		return taggedValue{Raw: strconv.FormatBool(v.Bool())}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return taggedValue{Raw: strconv.FormatInt(v.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return taggedValue{Raw: strconv.FormatUint(v.Uint(), 10)}
	case reflect.Float32, reflect.Float64:
		return taggedValue{Raw: strconv.FormatFloat(v.Float(), 'g', -1, 64)}
	case reflect.String:
		return taggedValue{Raw: v.String()}
	default:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return taggedValue{Raw: "null", Preserialized: true}
		}
		return taggedValue{Raw: string(b), Preserialized: true}
	}
}

// decodeRESTString parses s, a REST-string scalar, into a value of typ.
func decodeRESTString(s string, typ reflect.Type) (reflect.Value, error) {
	switch typ.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, newProtocolError("invalid bool %q", s)
		}
		return reflect.ValueOf(b).Convert(typ), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return reflect.Value{}, newProtocolError("invalid integer %q", s)
		}
		v := reflect.New(typ).Elem()
		v.SetInt(n)
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return reflect.Value{}, newProtocolError("invalid integer %q", s)
		}
		v := reflect.New(typ).Elem()
		v.SetUint(n)
		return v, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return reflect.Value{}, newProtocolError("invalid number %q", s)
		}
		v := reflect.New(typ).Elem()
		v.SetFloat(f)
		return v, nil
	case reflect.String:
		return reflect.ValueOf(s).Convert(typ), nil
	default:
		v := reflect.New(typ)
		if err := json.Unmarshal([]byte(s), v.Interface()); err != nil {
			return reflect.Value{}, newProtocolError("undeserializable value for %s: %v", typ, err)
		}
		return v.Elem(), nil
	}
}
