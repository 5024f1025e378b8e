// Package uuid generates time-ordered identifiers for database keys.
package uuid

import googleuuid "github.com/google/uuid"

// New returns a UUIDv7 string. UUIDv7 embeds a millisecond timestamp in its
// high bits, so primary keys generated here stay roughly insertion-ordered
// in the index.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; v4 keys still work,
		// they just lose the time ordering.
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
