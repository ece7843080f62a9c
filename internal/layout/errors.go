package layout

import "errors"

// ErrSchemaMismatch is returned when the meta row already holds a blob that
// does not match the schema passed to Initialize.
var ErrSchemaMismatch = errors.New("layout: database was initialized with a different schema")

// ErrUnsafeIdentifier is returned when an object typename or primitive field
// name fails sqlident.IsSafe.
var ErrUnsafeIdentifier = errors.New("layout: typename or field name is not a safe SQL identifier")
