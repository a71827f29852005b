package database

import "errors"

var (
	// ErrDuplicateID is returned by IdentityStore.Insert when the id is already enrolled.
	ErrDuplicateID = errors.New("identity id already exists")

	// ErrAlreadyRecorded is returned by LedgerStore.Append when the daily view
	// already holds a record for the identity.
	ErrAlreadyRecorded = errors.New("identity already recorded today")

	// ErrUnknownBackend is returned by Open for an unregistered backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
