package vm

import (
	"sort"
	"strings"
)

// strIndex implements OP_STR_INDEX: a single byte returned as a 1-char
// string; out-of-range and non-integer indices yield nil.
func strIndex(s string, idx Value) Value {
	if !idx.IsNumber() {
		return NilValue()
	}
	i := int(idx.Num)
	if float64(i) != idx.Num || i < 0 || i >= len(s) {
		return NilValue()
	}
	return StringValue(s[i : i+1])
}

// splitString implements OP_SPLIT. An empty separator produces per-byte
// elements.
func splitString(s, sep string, stats *MemStats) Value {
	var parts []string
	if sep == "" {
		parts = make([]string, len(s))
		for i := 0; i < len(s); i++ {
			parts[i] = s[i : i+1]
		}
	} else {
		parts = strings.Split(s, sep)
	}
	elems := make([]Value, len(parts))
	for i, p := range parts {
		elems[i] = StringValue(p)
	}
	return ArrayValue(NewArray(elems, stats))
}

// formatBraces implements OP_FORMAT: each "{}" in order is replaced by the
// string coercion of the next argument. Excess placeholders or values are
// ignored.
func formatBraces(format string, args []Value) string {
	var sb strings.Builder
	next := 0
	for i := 0; i < len(format); {
		if i+1 < len(format) && format[i] == '{' && format[i+1] == '}' {
			if next < len(args) {
				sb.WriteString(args[next].ToString())
				next++
			}
			i += 2
			continue
		}
		sb.WriteByte(format[i])
		i++
	}
	return sb.String()
}

// mapKeys implements OP_MAP_KEYS, returning a sorted key array so runs
// are deterministic.
func mapKeys(m Value, stats *MemStats) Value {
	if !m.IsMap() || m.Map == nil {
		return ArrayValue(NewArray(nil, stats))
	}
	keys := make([]string, 0, len(m.Map.Entries))
	for k := range m.Map.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	elems := make([]Value, len(keys))
	for i, k := range keys {
		elems[i] = StringValue(k)
	}
	return ArrayValue(NewArray(elems, stats))
}
