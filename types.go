package pscompat

import (
	"github.com/jward/pscompat/internal/profile"
	"github.com/jward/pscompat/internal/query"
)

// Public type aliases for internal types used in the Cache API. These are
// Go type aliases, identical to the internal types at compile time.

type Data = profile.Data
type Command = query.Command
type TypeInfo = query.TypeInfo

type ParseError = profile.ParseError
type NotFoundError = profile.NotFoundError
type ExtractionError = profile.ExtractionError
type ValidationError = profile.ValidationError
type IOError = profile.IOError
