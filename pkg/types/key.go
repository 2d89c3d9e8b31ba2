package types

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Key is the persisted numeric identifier of a record. Keys assigned by a
// store are always positive.
type Key int64

// Valid reports whether k could have been assigned by a store.
func (k Key) Valid() bool { return k > 0 }

func (k Key) String() string { return strconv.FormatInt(int64(k), 10) }

// ParseKey parses a decimal key. Returns ErrInvalidKey for anything that is
// not a positive integer.
func ParseKey(s string) (Key, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(n), nil
}

// Keyed pairs a record with the key it was persisted under. Records that
// have not been inserted yet are plain values of T; only the store produces
// Keyed values, and updates require one.
type Keyed[T any] struct {
	Key   Key `json:"key"`
	Value T   `json:"value"`
}

// OptionalKey is a reference that is either absent or points at a key.
// It binds to SQL as NULL when absent.
type OptionalKey struct {
	key   Key
	valid bool
}

// SomeKey returns a present reference to k.
func SomeKey(k Key) OptionalKey { return OptionalKey{key: k, valid: true} }

// NoKey returns an absent reference.
func NoKey() OptionalKey { return OptionalKey{} }

// Get returns the referenced key and whether it is present.
func (o OptionalKey) Get() (Key, bool) { return o.key, o.valid }

// IsSet reports whether the reference is present.
func (o OptionalKey) IsSet() bool { return o.valid }

func (o OptionalKey) String() string {
	if !o.valid {
		return "none"
	}
	return o.key.String()
}

// Value implements driver.Valuer.
func (o OptionalKey) Value() (driver.Value, error) {
	if !o.valid {
		return nil, nil
	}
	return int64(o.key), nil
}

// Scan implements sql.Scanner. Besides native NULL it accepts the text
// "NULL", which older campaign files stored for a missing parent.
func (o *OptionalKey) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = NoKey()
		return nil
	case int64:
		*o = SomeKey(Key(v))
		return nil
	case []byte:
		return o.scanText(string(v))
	case string:
		return o.scanText(v)
	default:
		return fmt.Errorf("scanning optional key: unsupported type %T", src)
	}
}

func (o *OptionalKey) scanText(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NULL") {
		*o = NoKey()
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("scanning optional key %q: %w", s, err)
	}
	*o = SomeKey(Key(n))
	return nil
}

// MarshalJSON encodes an absent reference as null.
func (o OptionalKey) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return []byte(o.key.String()), nil
}

// UnmarshalJSON accepts null or a number.
func (o *OptionalKey) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*o = NoKey()
		return nil
	}
	return o.scanText(strings.Trim(s, `"`))
}
