package katachi

import "errors"

// Definition protocol errors, returned from the builders' End methods and the
// rename operations. The rejected definition is discarded.
var (
	ErrDefinitionInProgress = errors.New("katachi: another definition is already in progress")
	ErrNoDefinition         = errors.New("katachi: no definition in progress")
	ErrMissingName          = errors.New("katachi: definition has no name")
	ErrZeroSize             = errors.New("katachi: component size must be greater than zero")
	ErrMissingUpdate        = errors.New("katachi: system has no update function")
	ErrDuplicateName        = errors.New("katachi: name already defined")
	ErrUnknownComponent     = errors.New("katachi: unknown component type")
	ErrUnknownEntityType    = errors.New("katachi: unknown entity type")
	ErrTooManyComponents    = errors.New("katachi: too many component types")
)

// Handle validity errors. They are expected in long-running entity graphs
// and never leave storage in a modified state.
var (
	ErrInvalidEntity  = errors.New("katachi: invalid entity")
	ErrWorldMismatch  = errors.New("katachi: entity belongs to another world")
	ErrWorldDestroyed = errors.New("katachi: world destroyed")
)

// Contract violations. These are programmer errors; they are logged at error
// level and the offending call is refused.
var (
	ErrIterating       = errors.New("katachi: immediate structural change while systems are running")
	ErrReentrantRun    = errors.New("katachi: RunSystems called from inside a system")
	ErrWorldStackEmpty = errors.New("katachi: world stack is empty")
	ErrWorldInUse      = errors.New("katachi: world is on the world stack")
)
