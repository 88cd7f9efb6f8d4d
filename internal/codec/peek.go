package codec

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/jward/pscompat/internal/profile"
)

// idField is the top-level property PeekID looks for. Like a full decode,
// the match ignores case.
const idField = "Id"

// PeekID returns the top-level "Id" of the profile document in r without
// decoding the rest of it. Nested values are skipped token by token and
// reading stops as soon as the id is found.
func PeekID(r io.Reader) (string, error) {
	return peekID(r, "")
}

// PeekFileID is PeekID over the file at path, opened through open.
func PeekFileID(open Opener, path string) (string, error) {
	rc, err := open(path)
	if err != nil {
		return "", openError(path, err)
	}
	defer rc.Close()
	return peekID(rc, path)
}

func peekID(r io.Reader, path string) (string, error) {
	fail := func(reason string, err error) (string, error) {
		return "", &profile.ParseError{Path: path, Reason: reason, Err: err}
	}

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fail("invalid profile json", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fail("profile is not a json object", nil)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fail("invalid profile json", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fail("expected property name", nil)
		}
		if strings.EqualFold(key, idField) {
			tok, err := dec.Token()
			if err != nil {
				return fail("invalid profile json", err)
			}
			id, ok := tok.(string)
			if !ok {
				return fail("Id is not a string", nil)
			}
			return id, nil
		}
		if err := skipValue(dec); err != nil {
			return fail("invalid profile json", err)
		}
	}
	return fail("no top-level Id", nil)
}

// skipValue consumes the next value from dec, descending into arrays and
// objects by tracking nesting depth.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}
