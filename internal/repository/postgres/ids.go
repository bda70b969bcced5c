package postgres

import "github.com/google/uuid"

// IsUUID reports whether s can be bound to a uuid column.
// pgx rejects malformed ids client-side before Postgres sees them,
// so lookups check first and report such ids as not found.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// AllUUIDs is IsUUID over several ids; nil pointers are skipped
func AllUUIDs(ids ...*string) bool {
	for _, id := range ids {
		if id != nil && !IsUUID(*id) {
			return false
		}
	}
	return true
}
