package debugs

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// Globals converts Go values to starlark ones for inspection scripts.
func Globals(values map[string]any) (starlark.StringDict, error) {
	ret := make(starlark.StringDict, len(values))
	for name, value := range values {
		v, err := toStarlarkValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		ret[name] = v
	}
	return ret, nil
}

var errorType = reflect.TypeFor[error]()

func toStarlarkValue(v any) (starlark.Value, error) {
	switch v := v.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case []byte:
		return starlark.Bytes(v), nil
	case error:
		return starlark.String(v.Error()), nil
	case fmt.Stringer:
		// ids and other opaque values
		if k := reflect.TypeOf(v).Kind(); k == reflect.Array || k == reflect.Struct && !hasExported(reflect.TypeOf(v)) {
			return starlark.String(v.String()), nil
		}
	}
	return fromReflect(reflect.ValueOf(v))
}

func hasExported(t reflect.Type) bool {
	for i := range t.NumField() {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

func fromReflect(value reflect.Value) (starlark.Value, error) {
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool()), nil

	case reflect.String:
		return starlark.String(value.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return starlark.MakeUint64(value.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float()), nil

	case reflect.Slice, reflect.Array:
		elems := make([]starlark.Value, 0, value.Len())
		for i := range value.Len() {
			elem, err := toStarlarkValue(value.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems = append(elems, elem)
		}
		return starlark.NewList(elems), nil

	case reflect.Map:
		type entry struct {
			key, value starlark.Value
			sortKey    string
		}
		var entries []entry
		iter := value.MapRange()
		for iter.Next() {
			k, err := toStarlarkValue(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			v, err := toStarlarkValue(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("[%v]: %w", k, err)
			}
			entries = append(entries, entry{k, v, k.String()})
		}
		slices.SortFunc(entries, func(a, b entry) int {
			return cmp.Compare(a.sortKey, b.sortKey)
		})
		d := starlark.NewDict(len(entries))
		for _, e := range entries {
			if err := d.SetKey(e.key, e.value); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Struct:
		typ := value.Type()
		d := starlark.NewDict(typ.NumField())
		for i := range typ.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			v, err := toStarlarkValue(value.Field(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field.Name, err)
			}
			if err := d.SetKey(starlark.String(field.Name), v); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return starlark.None, nil
		}
		return toStarlarkValue(value.Elem().Interface())

	case reflect.Func:
		t := value.Type()
		if t.NumOut() > 2 || t.NumOut() == 2 && t.Out(1) != errorType {
			return nil, fmt.Errorf("unsupported function type %v", t)
		}
		return starlarkutil.MakeFunc("", value.Interface()), nil

	case reflect.Invalid:
		return starlark.None, nil

	}
	return nil, fmt.Errorf("unsupported type for starlark: %v", value.Type())
}
