package common

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// SymbolLen is the length of token symbol in bytes.
const SymbolLen = 32

// Symbol identifies whitelisted token. Text symbols are right-padded with zero
// bytes, the last byte of a text symbol is always zero.
type Symbol [SymbolLen]byte

// symbols which are not plain text are encoded with this prefix.
const base58Prefix = "base58:"

// ErrInvalidSymbol is returned for values that can't be converted to Symbol.
var ErrInvalidSymbol = errors.New("invalid symbol")

// StringToSymbol converts text to Symbol. The text must be at most 31 bytes.
func StringToSymbol(s string) (Symbol, error) {
	var res Symbol
	if len(s) > SymbolLen-1 {
		return res, fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidSymbol, s, SymbolLen-1)
	}
	copy(res[:], s)
	return res, nil
}

// MustSymbol is like StringToSymbol but panics on error.
func MustSymbol(s string) Symbol {
	res, err := StringToSymbol(s)
	if err != nil {
		panic(err)
	}
	return res
}

// SymbolFromBytes converts raw bytes to Symbol, shorter values are padded.
func SymbolFromBytes(b []byte) (Symbol, error) {
	var res Symbol
	if len(b) > SymbolLen {
		return res, fmt.Errorf("%w: %d bytes", ErrInvalidSymbol, len(b))
	}
	copy(res[:], b)
	return res, nil
}

// ParseSymbol is the inverse of Symbol.String.
func ParseSymbol(s string) (Symbol, error) {
	if !strings.HasPrefix(s, base58Prefix) {
		return StringToSymbol(s)
	}

	b, err := base58.Decode(strings.TrimPrefix(s, base58Prefix))
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrInvalidSymbol, err)
	}
	if len(b) != SymbolLen {
		return Symbol{}, fmt.Errorf("%w: decoded %d bytes", ErrInvalidSymbol, len(b))
	}
	return SymbolFromBytes(b)
}

// Bytes returns a copy of symbol bytes.
func (s Symbol) Bytes() []byte {
	return bytes.Clone(s[:])
}

// String returns symbol text without padding. Symbols that are not
// printable text are returned base58-encoded with 'base58:' prefix, so
// different symbols never have the same string form.
func (s Symbol) String() string {
	trimmed := bytes.TrimRight(s[:], "\x00")
	if isText(trimmed) {
		return string(trimmed)
	}
	return base58Prefix + base58.Encode(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(text []byte) error {
	res, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}
	*s = res
	return nil
}

func isText(b []byte) bool {
	if len(b) == 0 || len(b) > SymbolLen-1 || bytes.HasPrefix(b, []byte(base58Prefix)) {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
