package registry

import "errors"

// Caller-facing errors. These propagate out of registry operations so the
// API layer can translate them into responses.
var (
	// ErrServiceNotFound is returned when an operation references an
	// unregistered service id.
	ErrServiceNotFound = errors.New("service not found")

	// ErrDuplicateService is returned when a caller-supplied id collides
	// with an existing registration.
	ErrDuplicateService = errors.New("service id already registered")

	// ErrInvalidStatus is returned when a heartbeat carries a status
	// outside the closed set.
	ErrInvalidStatus = errors.New("invalid heartbeat status")
)

// Collaborator errors. These are contained within the component that
// produced them and never fail a registry operation.
var (
	// ErrStorageUnavailable marks a storage connect or store failure.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotifier marks a notifier delivery failure.
	ErrNotifier = errors.New("notifier delivery failed")
)
