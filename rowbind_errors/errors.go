// Provides common rowbind errors definitions.
package rowbind_errors

import "errors"

var (
	ErrForeignGrid     = errors.New("rowbind: event from other grid")
	ErrIndexOutOfRange = errors.New("rowbind: index path out of range")
	ErrNotBound        = errors.New("rowbind: engine is not bound")

	ErrClosed      = errors.New("rowbind: store is closed")
	ErrUnknownList = errors.New("rowbind: unknown list")
	ErrItemUnknown = errors.New("rowbind: unknown item")
	ErrBadRecord   = errors.New("rowbind: bad stored record")
	ErrBadIndex    = errors.New("rowbind: list index out of range")
)

var (
	ErrCellType     = errors.New("rowbind: unexpected cell type")
	ErrInconsistent = errors.New("rowbind: invalid batch update")
)

var ErrNoScheduler = errors.New("rowbind: sectioned engine needs a scheduler")
