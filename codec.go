// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// tagName is the struct tag naming Lua table keys.
const tagName = "lua"

// structMapper decodes tables into structs, keeping Lua keys as written.
var structMapper = gluamapper.NewMapper(gluamapper.Option{
	NameFunc: gluamapper.Id,
	TagName:  tagName,
})

// Encode converts a Go value into a Lua value.
//
// Slices and arrays become array tables, maps and structs become tables,
// pointers and interfaces are followed. Struct fields are keyed by name
// or by their `lua` tag; a tag of "-" skips the field. Functions,
// channels and other values without a Lua counterpart are boxed in
// userdata. Cyclic values are not supported.
func Encode(L *lua.LState, v any) (lua.LValue, error) {
	switch v := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return v, nil
	case bool:
		return lua.LBool(v), nil
	case string:
		return lua.LString(v), nil
	case []byte:
		return lua.LString(v), nil
	case error:
		return lua.LString(v.Error()), nil
	}
	return encodeValue(L, reflect.ValueOf(v))
}

func encodeValue(L *lua.LState, rv reflect.Value) (lua.LValue, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return lua.LNil, nil
	case reflect.Bool:
		return lua.LBool(rv.Bool()), nil
	case reflect.String:
		return lua.LString(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float()), nil
	case reflect.Complex64, reflect.Complex128:
		return nil, fmt.Errorf("%w: %s", ErrEncode, rv.Type())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return lua.LNil, nil
		}
		return Encode(L, rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return lua.LNil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return lua.LString(rv.Bytes()), nil
		}
		return encodeList(L, rv)
	case reflect.Array:
		return encodeList(L, rv)
	case reflect.Map:
		if rv.IsNil() {
			return lua.LNil, nil
		}
		tb := L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := Encode(L, iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			if k == lua.LNil {
				continue
			}
			v, err := Encode(L, iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			tb.RawSet(k, v)
		}
		return tb, nil
	case reflect.Struct:
		rt := rv.Type()
		tb := L.CreateTable(0, rt.NumField())
		for i := range rt.NumField() {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup(tagName); ok {
				tag, _, _ = strings.Cut(tag, ",")
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			v, err := Encode(L, rv.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			tb.RawSetString(name, v)
		}
		return tb, nil
	}
	ud := L.NewUserData()
	ud.Value = rv.Interface()
	return ud, nil
}

func encodeList(L *lua.LState, rv reflect.Value) (lua.LValue, error) {
	tb := L.CreateTable(rv.Len(), 0)
	for i := range rv.Len() {
		v, err := Encode(L, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		tb.RawSetInt(i+1, v)
	}
	return tb, nil
}

// encodeResults converts the result of a host function into call results.
// A []lua.LValue result is returned as several values.
func encodeResults[R any](L *lua.LState, r R) ([]lua.LValue, error) {
	if values, ok := any(r).([]lua.LValue); ok {
		return values, nil
	}
	v, err := Encode(L, r)
	if err != nil {
		return nil, err
	}
	return []lua.LValue{v}, nil
}

// encodeArgs converts Go call arguments into Lua values.
func encodeArgs(L *lua.LState, args []any) ([]lua.LValue, error) {
	values := make([]lua.LValue, len(args))
	for i, a := range args {
		v, err := Encode(L, a)
		if err != nil {
			return nil, fmt.Errorf("argument #%d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

// GoValue converts a Lua value into a plain Go value: nil, bool, string,
// float64, []any for sequences, map[string]any for other tables, the
// boxed value of userdata, or the Lua value itself for functions and
// threads. A table that holds itself through its own keys or values is
// replaced by its Lua string form where it recurs.
func GoValue(lv lua.LValue) any {
	v, _ := goValue(lv, nil, false)
	return v
}

// goValue converts lv, tracking the tables on the path from the root in
// open. A recurring table fails when strict is set.
func goValue(lv lua.LValue, open map[*lua.LTable]struct{}, strict bool) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return float64(v), nil
	case *lua.LTable:
		if _, ok := open[v]; ok {
			if strict {
				return nil, fmt.Errorf("%w: cyclic table", ErrDecode)
			}
			return v.String(), nil
		}
		if open == nil {
			open = make(map[*lua.LTable]struct{})
		}
		open[v] = struct{}{}
		defer delete(open, v)

		if n := v.MaxN(); n > 0 && isSequence(v, n) {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				e, err := goValue(v.RawGetInt(i), open, strict)
				if err != nil {
					return nil, err
				}
				list = append(list, e)
			}
			return list, nil
		}
		m := make(map[string]any)
		var err error
		v.ForEach(func(key, value lua.LValue) {
			if err != nil {
				return
			}
			var e any
			if e, err = goValue(value, open, strict); err == nil {
				m[key.String()] = e
			}
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case *lua.LUserData:
		return v.Value, nil
	}
	return lv, nil
}

// isSequence reports whether every key of tb is an integer in [1, n].
func isSequence(tb *lua.LTable, n int) bool {
	seq := true
	tb.ForEach(func(key, _ lua.LValue) {
		k, ok := key.(lua.LNumber)
		if !ok || k != lua.LNumber(int(k)) || int(k) < 1 || int(k) > n {
			seq = false
		}
	})
	return seq
}

// rejectBoolNumber keeps weak typing from reading booleans as numbers.
func rejectBoolNumber(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Bool {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return nil, fmt.Errorf("cannot decode boolean into %s", to)
	}
	return data, nil
}

// nillable reports whether a missing value decodes into rt as its zero
// value. An empty struct carries nothing and accepts it too.
func nillable(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	case reflect.Struct:
		return rt.NumField() == 0
	}
	return false
}

// Decode converts Lua call results into T.
//
// []lua.LValue and lua.LValue targets receive the values unchanged.
// A struct target decodes the first value as a table. Other targets are
// decoded with weak typing from the first value, or from all values as a
// list when T is a slice or array and there are several values. Booleans
// never decode into numbers, and a missing or nil value decodes only into
// pointers, interfaces, maps, slices and empty structs. Cyclic tables are
// rejected. Failures wrap ErrDecode.
func Decode[T any](values []lua.LValue) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *[]lua.LValue:
		*p = values
		return out, nil
	case *lua.LValue:
		*p = first(values)
		return out, nil
	}

	rt := reflect.TypeFor[T]()
	if first(values) == lua.LNil && !nillable(rt) {
		return out, fmt.Errorf("%w: missing value for %s", ErrDecode, rt)
	}
	list := len(values) > 1 && (rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array)

	var src any
	if list {
		items := make([]any, len(values))
		for i, v := range values {
			item, err := goValue(v, nil, true)
			if err != nil {
				return out, err
			}
			items[i] = item
		}
		src = items
	} else {
		v, err := goValue(first(values), nil, true)
		if err != nil {
			return out, err
		}
		src = v
	}

	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() == reflect.Struct {
		if tb, ok := first(values).(*lua.LTable); ok {
			if err := structMapper.Map(tb, &out); err != nil {
				return out, fmt.Errorf("%w: %w", ErrDecode, err)
			}
			return out, nil
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(rejectBoolNumber),
		WeaklyTypedInput: true,
		TagName:          tagName,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := dec.Decode(src); err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

func first(values []lua.LValue) lua.LValue {
	if len(values) == 0 {
		return lua.LNil
	}
	return values[0]
}
