package cmds

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/reusee/lazyphy/vars"
)

var durationType = reflect.TypeFor[time.Duration]()

func supportedArg(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// parseArg converts one command line argument to t.
// A pointer type marks an optional argument that is zero when args is empty.
func parseArg(t reflect.Type, args []string) (reflect.Value, bool, error) {
	if t.Kind() == reflect.Pointer {
		ptr := reflect.New(t.Elem())
		if len(args) == 0 {
			return ptr, false, nil
		}
		v, consumed, err := parseArg(t.Elem(), args)
		if err != nil {
			return reflect.Value{}, false, err
		}
		ptr.Elem().Set(v)
		return ptr, consumed, nil
	}

	if len(args) == 0 {
		return reflect.Value{}, false, fmt.Errorf("expecting %v argument, got nothing", t)
	}
	str := args[0]
	ret := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.Bool:
		ret.SetBool(vars.StrToBool(str))

	case reflect.Int64:
		if t == durationType {
			d, err := time.ParseDuration(str)
			if err != nil {
				return reflect.Value{}, false, fmt.Errorf("convert %s to duration: %w", str, err)
			}
			ret.SetInt(int64(d))
			break
		}
		fallthrough
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		v, err := strconv.ParseInt(str, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("convert %s to %v: %w", str, t, err)
		}
		ret.SetInt(v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(str, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("convert %s to %v: %w", str, t, err)
		}
		ret.SetUint(v)

	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(str, t.Bits())
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("convert %s to %v: %w", str, t, err)
		}
		ret.SetFloat(v)

	case reflect.String:
		ret.SetString(str)

	default:
		return reflect.Value{}, false, fmt.Errorf("unsupported argument type: %v", t)
	}

	return ret, true, nil
}
