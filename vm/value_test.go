package vm

import "testing"

func TestValueEquality(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NilValue(), NilValue(), true},
		{NumberValue(1), NumberValue(1), true},
		{NumberValue(1), NumberValue(2), false},
		{BoolValue(true), BoolValue(true), true},
		{BoolValue(true), BoolValue(false), false},
		{StringValue("a"), StringValue("a"), true},
		{StringValue("a"), StringValue("b"), false},
		{NumberValue(0), NilValue(), false},
		{NumberValue(0), BoolValue(false), false},
		{StringValue("1"), NumberValue(1), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equals(tt.b); got != tt.want {
			t.Errorf("%v == %v: got %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestReferenceEquality(t *testing.T) {
	a := ArrayValue(NewArray(nil, nil))
	b := ArrayValue(NewArray(nil, nil))
	if a.Equals(b) {
		t.Error("distinct arrays must compare not-equal")
	}
	if !a.Equals(a) {
		t.Error("same referent must compare equal")
	}

	m := MapValue(NewMap(nil))
	n := MapValue(NewMap(nil))
	if m.Equals(n) {
		t.Error("distinct maps must compare not-equal")
	}
}

func TestTruthiness(t *testing.T) {
	truthy := []Value{
		NumberValue(1), NumberValue(-1), BoolValue(true),
		StringValue(""), StringValue("x"),
		ArrayValue(NewArray(nil, nil)), MapValue(NewMap(nil)),
		PointerValue(Pointer{}),
	}
	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Errorf("%v should be truthy", v)
		}
	}
	falsy := []Value{NilValue(), BoolValue(false), NumberValue(0)}
	for _, v := range falsy {
		if v.IsTruthy() {
			t.Errorf("%v should be falsy", v)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NilValue(), "nil"},
		{NumberValue(20), "20"},
		{NumberValue(1.5), "1.5"},
		{NumberValue(-3), "-3"},
		{NumberValue(287454020), "287454020"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{StringValue("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.ToString(); got != tt.want {
			t.Errorf("ToString(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestArrayToString(t *testing.T) {
	arr := NewArray([]Value{NumberValue(1), StringValue("a")}, nil)
	if got := ArrayValue(arr).ToString(); got != "[1, a]" {
		t.Errorf("array ToString = %q", got)
	}
}

func TestRefCounting(t *testing.T) {
	var stats MemStats
	arr := NewArray(nil, &stats)
	v := ArrayValue(arr)

	if arr.Refs() != 1 {
		t.Fatalf("fresh refs = %d", arr.Refs())
	}
	v.Retain()
	if arr.Refs() != 2 {
		t.Fatalf("after retain refs = %d", arr.Refs())
	}
	v.Release(&stats)
	if stats.ArraysDestroyed != 0 {
		t.Fatal("released too early")
	}
	v.Release(&stats)
	if stats.ArraysDestroyed != 1 {
		t.Fatalf("destroyed = %d, want 1", stats.ArraysDestroyed)
	}
	if stats.ArraysCreated != 1 {
		t.Fatalf("created = %d, want 1", stats.ArraysCreated)
	}
}

func TestNestedRelease(t *testing.T) {
	var stats MemStats
	inner := NewArray(nil, &stats)
	outer := NewArray([]Value{ArrayValue(inner)}, &stats)

	ArrayValue(outer).Release(&stats)
	if stats.ArraysDestroyed != 2 {
		t.Errorf("nested release destroyed %d arrays, want 2", stats.ArraysDestroyed)
	}
}

func TestAsNumber(t *testing.T) {
	tests := []struct {
		v    Value
		want float64
	}{
		{NumberValue(3.5), 3.5},
		{BoolValue(true), 1},
		{BoolValue(false), 0},
		{StringValue("42"), 42},
		{StringValue("nope"), 0},
		{NilValue(), 0},
	}
	for _, tt := range tests {
		if got := tt.v.AsNumber(); got != tt.want {
			t.Errorf("AsNumber(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
