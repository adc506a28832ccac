// Package schema infers a relational schema from an XML element tree and
// derives the cardinalities between the inferred tables.
package schema

import (
	"errors"
	"math/big"
	"strconv"
	"strings"
)

// ScalarType is a column type on the widening lattice
// BIT < INT < FLOAT < STR < NVARCHAR < NTEXT.
type ScalarType int

const (
	Bit ScalarType = iota + 1
	Int
	Float
	// Str is only produced by Classify and is mapped to NVARCHAR or NTEXT before it is stored.
	Str
	NVarchar
	NText
)

var typeNames = map[ScalarType]string{
	Bit:      "BIT",
	Int:      "INT",
	Float:    "FLOAT",
	Str:      "STR",
	NVarchar: "NVARCHAR",
	NText:    "NTEXT",
}

func (t ScalarType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "ScalarType(" + strconv.Itoa(int(t)) + ")"
}

// ParseScalarType maps a type name (as printed by String) back to its ScalarType.
func ParseScalarType(s string) (ScalarType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Classify returns the narrowest scalar type able to hold raw.
func Classify(raw string) ScalarType {
	switch raw {
	case "0", "1", "true", "false":
		return Bit
	}
	trimmed := strings.TrimSpace(raw)
	if groupedDigits(trimmed) {
		if _, ok := new(big.Int).SetString(strings.ReplaceAll(trimmed, "_", ""), 10); ok {
			return Int
		}
	}
	if !isHex(trimmed) {
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil || errors.Is(err, strconv.ErrRange) {
			return Float
		}
	}
	if trimmed == "" {
		return Bit
	}
	return Str
}

// groupedDigits reports whether s is an optionally signed run of decimal
// digits in which single underscores may separate digits.
func groupedDigits(s string) bool {
	s = trimSign(s)
	prevDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			prevDigit = true
		case r == '_' && prevDigit:
			prevDigit = false
		default:
			return false
		}
	}
	return prevDigit
}

// isHex reports a hexadecimal literal, which only counts as free text.
func isHex(s string) bool {
	s = trimSign(s)
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func trimSign(s string) string {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return s[1:]
	}
	return s
}

// Join returns the wider of the two types.
func Join(a, b ScalarType) ScalarType {
	if b > a {
		return b
	}
	return a
}

// attributeType classifies an attribute value; free text becomes NVARCHAR.
func attributeType(raw string) ScalarType {
	t := Classify(strings.ToLower(raw))
	if t == Str {
		return NVarchar
	}
	return t
}

// textType classifies element text; free text becomes NTEXT.
func textType(raw string) ScalarType {
	t := Classify(strings.ToLower(raw))
	if t == Str {
		return NText
	}
	return t
}
