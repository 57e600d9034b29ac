package luapp

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Serialize renders a runtime value as Lua source text which, when
// evaluated, produces an equal value. In debug mode newlines in string
// literals are written as "\n" instead of an escaped line break.
func Serialize(v lua.LValue, debug bool) (string, error) {
	var b strings.Builder
	if err := serializeValue(&b, v, debug); err != nil {
		return "", err
	}
	return b.String(), nil
}

func serializeValue(b *strings.Builder, v lua.LValue, debug bool) error {
	switch val := v.(type) {
	case *lua.LNilType:
		b.WriteString("nil")

	case lua.LBool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case lua.LNumber:
		serializeNumber(b, val)

	case lua.LString:
		b.WriteString(serializeString(string(val), debug))

	case *lua.LTable:
		return serializeTable(b, val, debug)

	default:
		return fmt.Errorf("Cannot serialize value of type '%s'.", v.Type().String())
	}
	return nil
}

// serializeTable writes the array part first (consecutive integer
// indices from 1), then the remaining entries sorted by tostring(key)
// so that serialization is deterministic.
func serializeTable(b *strings.Builder, tbl *lua.LTable, debug bool) error {
	b.WriteByte('{')

	n := 0
	for {
		item := tbl.RawGetInt(n + 1)
		if item == lua.LNil {
			break
		}
		if n > 0 {
			b.WriteByte(',')
		}
		if err := serializeValue(b, item, debug); err != nil {
			return err
		}
		n++
	}

	type entry struct {
		name string // tostring(key), the sort key
		key  lua.LValue
		val  lua.LValue
	}
	var (
		rest    []entry
		keyErr  error
	)
	tbl.ForEach(func(k, v lua.LValue) {
		if kn, ok := k.(lua.LNumber); ok {
			if i := int(kn); lua.LNumber(i) == kn && i >= 1 && i <= n {
				return
			}
		}
		if k.Type() == lua.LTTable {
			keyErr = fmt.Errorf("Table keys cannot be tables.")
			return
		}
		rest = append(rest, entry{name: k.String(), key: k, val: v})
	})
	if keyErr != nil {
		return keyErr
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].name < rest[j].name })

	for i, e := range rest {
		if n > 0 || i > 0 {
			b.WriteByte(',')
		}
		if ks, ok := e.key.(lua.LString); ok && isBareKey(string(ks)) {
			b.WriteString(string(ks))
		} else {
			b.WriteByte('[')
			if err := serializeValue(b, e.key, debug); err != nil {
				return err
			}
			b.WriteByte(']')
		}
		b.WriteByte('=')
		if err := serializeValue(b, e.val, debug); err != nil {
			return err
		}
	}

	b.WriteByte('}')
	return nil
}

// serializeNumber writes a number so that re-reading it yields the
// same value. Negative numbers get a leading space so the minus can
// never pair with an adjacent '-' into a comment; zero is written
// bare to erase a possible "-0" sign.
func serializeNumber(b *strings.Builder, n lua.LNumber) {
	f := float64(n)
	switch {
	case math.IsInf(f, 1):
		b.WriteString("math.huge")
	case math.IsInf(f, -1):
		b.WriteString(" -math.huge")
	case math.IsNaN(f):
		b.WriteString("0/0")
	case f == 0:
		b.WriteString("0")
	case f < 0:
		b.WriteString(" " + n.String())
	default:
		b.WriteString(n.String())
	}
}

// serializeString writes a quoted Lua string literal. Newlines become
// an escaped line break as with Lua's %q, collapsed to "\n" in debug
// mode for readability.
func serializeString(s string, debug bool) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			if debug {
				b.WriteString(`\n`)
			} else {
				b.WriteString("\\\n")
			}
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// isBareKey reports whether a table key can be written in k=v form:
// identifier-shaped and not a reserved word.
func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	if !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	_, keyword := tokenKeywordsMap[s]
	return !keyword
}
