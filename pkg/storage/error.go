package storage

// NotFoundError is returned when a user or conversation doesn't exist in
// the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}
	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}

// MissingImplementationError is returned by drivers that do not support an
// operation.
type MissingImplementationError struct {
	Op string
}

func (e *MissingImplementationError) Error() string {
	return "storage: " + e.Op + " is not implemented"
}
