package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// folders pools Unicode case folders; a cases.Caser is stateful and must not
// be shared between goroutines.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// FoldKey returns the case-folded form of s used as the identity of
// case-insensitive keys.
func FoldKey(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToLower(s)
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}

// FoldMap is a string-keyed map whose lookups ignore case. The spelling of
// the first insertion of each key is kept and used when serializing.
//
// The zero value is an empty map ready to use.
type FoldMap[V any] struct {
	m map[string]foldEntry[V]
}

type foldEntry[V any] struct {
	key   string
	value V
}

// Get returns the value stored under key, ignoring case.
func (f FoldMap[V]) Get(key string) (V, bool) {
	e, ok := f.m[FoldKey(key)]
	return e.value, ok
}

// Has reports whether key is present, ignoring case.
func (f FoldMap[V]) Has(key string) bool {
	_, ok := f.m[FoldKey(key)]
	return ok
}

// Set stores v under key. An existing entry keeps its original spelling.
func (f *FoldMap[V]) Set(key string, v V) {
	if f.m == nil {
		f.m = make(map[string]foldEntry[V])
	}
	k := FoldKey(key)
	if e, ok := f.m[k]; ok {
		key = e.key
	}
	f.m[k] = foldEntry[V]{key: key, value: v}
}

// Delete removes key, ignoring case.
func (f *FoldMap[V]) Delete(key string) {
	delete(f.m, FoldKey(key))
	if len(f.m) == 0 {
		f.m = nil
	}
}

// Len returns the number of entries.
func (f FoldMap[V]) Len() int { return len(f.m) }

// IsZero reports whether the map is empty. encoding/json uses it for omitzero.
func (f FoldMap[V]) IsZero() bool { return len(f.m) == 0 }

// Keys returns the original key spellings in sorted order.
func (f FoldMap[V]) Keys() []string {
	keys := make([]string, 0, len(f.m))
	for _, e := range f.m {
		keys = append(keys, e.key)
	}
	slices.Sort(keys)
	return keys
}

// All iterates entries in sorted key order.
func (f FoldMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range f.Keys() {
			if !yield(k, f.m[FoldKey(k)].value) {
				return
			}
		}
	}
}

// Clone returns an independent copy. cloneValue deep-copies each value; a
// nil cloneValue copies values as-is, which is right for value-typed leaves.
func (f FoldMap[V]) Clone(cloneValue func(V) V) FoldMap[V] {
	if f.m == nil {
		return FoldMap[V]{}
	}
	out := make(map[string]foldEntry[V], len(f.m))
	for k, e := range f.m {
		if cloneValue != nil {
			e.value = cloneValue(e.value)
		}
		out[k] = e
	}
	return FoldMap[V]{m: out}
}

// MarshalJSON writes the map as a JSON object with keys in sorted order.
func (f FoldMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.m[FoldKey(k)].value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object. Keys differing only by case collapse
// into one entry; the last value wins.
func (f *FoldMap[V]) UnmarshalJSON(data []byte) error {
	f.m = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		f.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
