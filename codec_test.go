// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luasync_test

import (
	"errors"
	"reflect"
	"testing"

	"code.hybscloud.com/luasync"
	lua "github.com/yuin/gopher-lua"
)

type record struct {
	Name   string   `lua:"name"`
	Count  int      `lua:"count"`
	Tags   []string `lua:"tags"`
	Secret string   `lua:"-"`
	Plain  bool
}

func TestEncodeScalars(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	cases := []struct {
		in   any
		want lua.LValue
	}{
		{nil, lua.LNil},
		{true, lua.LTrue},
		{"s", lua.LString("s")},
		{[]byte("raw"), lua.LString("raw")},
		{int8(-3), lua.LNumber(-3)},
		{uint64(7), lua.LNumber(7)},
		{2.5, lua.LNumber(2.5)},
		{errors.New("e"), lua.LString("e")},
		{(*int)(nil), lua.LNil},
		{lua.LNumber(4), lua.LNumber(4)},
	}
	for _, c := range cases {
		got, err := luasync.Encode(L, c.in)
		if err != nil {
			t.Fatalf("Encode(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Encode(%v): got %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEncodeStruct(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	v, err := luasync.Encode(L, &record{Name: "a", Count: 2, Tags: []string{"x", "y"}, Secret: "s", Plain: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tb, ok := v.(*lua.LTable)
	if !ok {
		t.Fatalf("got %T, want table", v)
	}
	if got := tb.RawGetString("name"); got != lua.LString("a") {
		t.Fatalf("name: %v", got)
	}
	if got := tb.RawGetString("count"); got != lua.LNumber(2) {
		t.Fatalf("count: %v", got)
	}
	if got := tb.RawGetString("Secret"); got != lua.LNil {
		t.Fatalf("skipped field encoded: %v", got)
	}
	if got := tb.RawGetString("Plain"); got != lua.LTrue {
		t.Fatalf("Plain: %v", got)
	}
	tags, ok := tb.RawGetString("tags").(*lua.LTable)
	if !ok || tags.Len() != 2 || tags.RawGetInt(2) != lua.LString("y") {
		t.Fatalf("tags: %v", tb.RawGetString("tags"))
	}
}

func TestEncodeMap(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	v, err := luasync.Encode(L, map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tb := v.(*lua.LTable)
	if tb.RawGetString("a") != lua.LNumber(1) || tb.RawGetString("b") != lua.LNumber(2) {
		t.Fatalf("got %v", luasync.GoValue(tb))
	}
}

func TestEncodeUnsupported(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if _, err := luasync.Encode(L, []complex64{1}); !errors.Is(err, luasync.ErrEncode) {
		t.Fatalf("got %v, want ErrEncode", err)
	}
	ch := make(chan int)
	v, err := luasync.Encode(L, ch)
	if err != nil {
		t.Fatalf("Encode(chan): %v", err)
	}
	if ud, ok := v.(*lua.LUserData); !ok || ud.Value != any(ch) {
		t.Fatalf("chan not boxed in userdata: %v", v)
	}
}

func TestGoValue(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(`list = {1, "two", true}; dict = {k = {n = 1}}`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	if got, want := luasync.GoValue(L.GetGlobal("list")), []any{1.0, "two", true}; !reflect.DeepEqual(got, want) {
		t.Fatalf("list: got %v, want %v", got, want)
	}
	want := map[string]any{"k": map[string]any{"n": 1.0}}
	if got := luasync.GoValue(L.GetGlobal("dict")); !reflect.DeepEqual(got, want) {
		t.Fatalf("dict: got %v, want %v", got, want)
	}
	if got := luasync.GoValue(lua.LNil); got != nil {
		t.Fatalf("nil: got %v", got)
	}
}

func TestGoValueMixedTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(`mixed = {1, 2, n = 3}`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	want := map[string]any{"1": 1.0, "2": 2.0, "n": 3.0}
	if got := luasync.GoValue(L.GetGlobal("mixed")); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGoValueCyclicTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(`
cyc = {name = "a"}
cyc.self = cyc
cyc.list = {cyc}
shared = {1}
pair = {a = shared, b = shared}`); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	cyc := L.GetGlobal("cyc")
	got, ok := luasync.GoValue(cyc).(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", luasync.GoValue(cyc))
	}
	if got["name"] != "a" || got["self"] != cyc.String() {
		t.Fatalf("got %v", got)
	}
	if list, ok := got["list"].([]any); !ok || len(list) != 1 || list[0] != cyc.String() {
		t.Fatalf("list: got %v", got["list"])
	}

	want := map[string]any{"a": []any{1.0}, "b": []any{1.0}}
	if got := luasync.GoValue(L.GetGlobal("pair")); !reflect.DeepEqual(got, want) {
		t.Fatalf("shared table: got %v, want %v", got, want)
	}

	if _, err := luasync.Decode[map[string]any]([]lua.LValue{cyc}); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode of cyclic table: got %v, want ErrDecode", err)
	}
	if _, err := luasync.Decode[record]([]lua.LValue{cyc}); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode[record] of cyclic table: got %v, want ErrDecode", err)
	}
}

func TestDecodeMissingAndBool(t *testing.T) {
	if _, err := luasync.Decode[int](nil); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode[int] of nothing: got %v, want ErrDecode", err)
	}
	if _, err := luasync.Decode[string]([]lua.LValue{lua.LNil}); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode[string] of nil: got %v, want ErrDecode", err)
	}
	if _, err := luasync.Decode[float64]([]lua.LValue{lua.LTrue}); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode[float64] of true: got %v, want ErrDecode", err)
	}

	if p, err := luasync.Decode[*int](nil); err != nil || p != nil {
		t.Fatalf("Decode[*int] of nothing: %v, %v", p, err)
	}
	if m, err := luasync.Decode[map[string]any]([]lua.LValue{lua.LNil}); err != nil || m != nil {
		t.Fatalf("Decode[map] of nil: %v, %v", m, err)
	}
	if v, err := luasync.Decode[any](nil); err != nil || v != nil {
		t.Fatalf("Decode[any] of nothing: %v, %v", v, err)
	}
	if _, err := luasync.Decode[struct{}](nil); err != nil {
		t.Fatalf("Decode[struct{}] of nothing: %v", err)
	}
	if b, err := luasync.Decode[bool]([]lua.LValue{lua.LTrue}); err != nil || !b {
		t.Fatalf("Decode[bool] of true: %v, %v", b, err)
	}
}

func TestDecode(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(`rec = {name = "a", count = 3, tags = {"x"}, Plain = true}`); err != nil {
		t.Fatalf("DoString: %v", err)
	}

	r, err := luasync.Decode[record]([]lua.LValue{L.GetGlobal("rec")})
	if err != nil {
		t.Fatalf("Decode[record]: %v", err)
	}
	if r.Name != "a" || r.Count != 3 || len(r.Tags) != 1 || r.Tags[0] != "x" || !r.Plain {
		t.Fatalf("Decode[record]: got %+v", r)
	}

	n, err := luasync.Decode[int]([]lua.LValue{lua.LString("12")})
	if err != nil || n != 12 {
		t.Fatalf("Decode[int] from string: %v, %v", n, err)
	}

	list, err := luasync.Decode[[]string]([]lua.LValue{lua.LString("a"), lua.LString("b")})
	if err != nil || !reflect.DeepEqual(list, []string{"a", "b"}) {
		t.Fatalf("Decode[[]string] from values: %v, %v", list, err)
	}

	raw, err := luasync.Decode[[]lua.LValue]([]lua.LValue{lua.LTrue, lua.LNil})
	if err != nil || len(raw) != 2 {
		t.Fatalf("Decode[[]lua.LValue]: %v, %v", raw, err)
	}

	one, err := luasync.Decode[lua.LValue](nil)
	if err != nil || one != lua.LNil {
		t.Fatalf("Decode[lua.LValue] of nothing: %v, %v", one, err)
	}

	if _, err := luasync.Decode[bool]([]lua.LValue{L.NewTable()}); !errors.Is(err, luasync.ErrDecode) {
		t.Fatalf("Decode[bool] from table: got %v, want ErrDecode", err)
	}
}
