package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMigration is matched by every error returned for a failed packet deployment.
var ErrMigration = errors.New("schema: migration failed")

// ErrBreakingChange is matched by the errors of upgrades that cannot be
// applied to a populated database.
var ErrBreakingChange = errors.New("schema: breaking change")

// MigrationError is returned when a statement of a packet fails. The packet
// transaction has been rolled back and the packet stays unregistered.
type MigrationError struct {
	Module  string
	Version int
	// Stmt is the failing statement and Index its position in the packet.
	// Index is -1 when registering the packet failed.
	Stmt  string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("schema: register packet %s-%d: %v", e.Module, e.Version, e.Err)
	}
	return fmt.Sprintf("schema: packet %s-%d statement %d: %v", e.Module, e.Version, e.Index+1, e.Err)
}

// Unwrap returns the driver error.
func (e *MigrationError) Unwrap() error { return e.Err }

// Is reports whether the target matches ErrMigration.
func (e *MigrationError) Is(target error) bool { return target == ErrMigration }

// IsMigrationError returns true if the error is a MigrationError.
func IsMigrationError(err error) bool {
	var e *MigrationError
	return errors.As(err, &e)
}

// UpgradeError lists the changes that block an upgrade.
type UpgradeError struct {
	Changes []string
	// Result is the full diff of the two table sets.
	Result *ValidationResult
}

// Error implements the error interface.
func (e *UpgradeError) Error() string {
	return "schema: cannot upgrade: " + strings.Join(e.Changes, "; ")
}

// Is reports whether target is ErrBreakingChange.
func (e *UpgradeError) Is(target error) bool { return target == ErrBreakingChange }
