// Package did parses and builds Ocean DIDs (did:op:<id>) and computes the
// content checksums they are derived from.
package did

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	Prefix        = "did:op:"
	DefaultMethod = "op"
)

var (
	// ErrInvalidType is returned when an input is neither a string nor raw bytes.
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidDID is returned for values that cannot be read as an ocean did.
	ErrInvalidDID = errors.New("invalid did")
)

var (
	didRegex     = regexp.MustCompile(`^did:([a-z0-9]+):([a-zA-Z0-9\-.]+)(.*)`)
	bareHexRegex = regexp.MustCompile(`^[0x]?[0-9A-Za-z]+$`)
)

type DID struct {
	Method string
	ID     string
}

func (d DID) String() string {
	return "did:" + d.Method + ":" + d.ID
}

// Parse splits a did into its method and id. The id stops at the first
// character outside [a-zA-Z0-9-.], so "did:op:AB*&" parses to id "AB".
func Parse(s string) (DID, error) {
	m := didRegex.FindStringSubmatch(s)
	if m == nil {
		return DID{}, fmt.Errorf("%w: %q does not match did:<method>:<id>", ErrInvalidDID, s)
	}

	return DID{Method: m[1], ID: m[2]}, nil
}

func ToID(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}

	if isZeroHex(d.ID) {
		return "0", nil
	}

	return d.ID, nil
}

// IDToDID accepts a hex string (with or without 0x) or raw bytes.
func IDToDID(id any, method string) (string, error) {
	if method == "" {
		method = DefaultMethod
	}

	var idstr string
	switch v := id.(type) {
	case string:
		idstr = strings.TrimPrefix(v, "0x")
	case []byte:
		idstr = hex.EncodeToString(v)
	default:
		return "", fmt.Errorf("%w: did id must be a hex string or bytes, got %T", ErrInvalidType, id)
	}

	if isZeroHex(idstr) {
		idstr = "0"
	}

	return "did:" + method + ":" + idstr, nil
}

func ToIDBytes(v any) ([]byte, error) {
	switch d := v.(type) {
	case []byte:
		return d, nil
	case string:
		if bareHexRegex.MatchString(d) {
			return nil, fmt.Errorf("%w: %s must be a DID not a hex string", ErrInvalidDID, d)
		}

		parsed, err := Parse(d)
		if err != nil {
			return nil, err
		}

		if parsed.ID == "" {
			return nil, fmt.Errorf("%w: %s is not a valid ocean did", ErrInvalidDID, d)
		}

		if parsed.Method != DefaultMethod {
			return nil, fmt.Errorf("%w: unsupported did method %q", ErrInvalidDID, parsed.Method)
		}

		idhex := strings.TrimPrefix(parsed.ID, "0x")
		if len(idhex)%2 == 1 {
			idhex = "0" + idhex
		}

		b, err := hex.DecodeString(idhex)
		if err != nil {
			return nil, fmt.Errorf("%w: %s id is not hex: %v", ErrInvalidDID, d, err)
		}

		return b, nil
	default:
		return nil, fmt.Errorf("%w: did must be a string or bytes, got %T", ErrInvalidType, v)
	}
}

func isZeroHex(s string) bool {
	return strings.Trim(strings.TrimPrefix(s, "0x"), "0") == ""
}
