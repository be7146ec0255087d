package cache

import (
	"fmt"
	"strings"
)

// Key addresses a cache slot. It is an ordered tuple of scalars, e.g.
// Key{"tasks", "byList", 7} or Key{"lists", "search", "milk"}.
type Key []any

// NewKey builds a Key from the given parts.
func NewKey(parts ...any) Key {
	return Key(parts)
}

// HasPrefix reports whether k starts with every element of prefix.
// Elements are compared by their formatted value, so 7 and int64(7) match.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if fmt.Sprint(k[i]) != fmt.Sprint(prefix[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether both keys address the same slot.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// Append returns a new key with parts added after the receiver's elements.
func (k Key) Append(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// String renders the key using the default serializer.
func (k Key) String() string {
	return k.Serialize(defaultSerializer)
}

// Serialize renders the key with s. The first element is used as the namespace.
func (k Key) Serialize(s KeySerializer) string {
	if len(k) == 0 {
		return ""
	}
	return s.SerializeKey(fmt.Sprint(k[0]), k[1:]...)
}

// Prefix renders a string prefix that only matches keys extending k.
func (k Key) Prefix(s KeySerializer) string {
	serialized := k.Serialize(s)
	if serialized == "" || strings.HasSuffix(serialized, KeySeparator) {
		return serialized
	}
	return serialized + KeySeparator
}
