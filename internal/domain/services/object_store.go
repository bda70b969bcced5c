package services

import (
	"context"
	"time"
)

// StorageCapability states which credentials an object store client is built with.
// Callers choose it explicitly at construction; nothing switches on the environment at runtime.
type StorageCapability int

const (
	// CapabilityStandard can list objects and mint signed read/upload URLs
	CapabilityStandard StorageCapability = iota
	// CapabilityElevated can additionally delete objects (needed for saga compensation)
	CapabilityElevated
)

func (c StorageCapability) String() string {
	switch c {
	case CapabilityElevated:
		return "elevated"
	default:
		return "standard"
	}
}

// ObjectEntry is one object directly under a listed prefix
type ObjectEntry struct {
	Name      string // base name, without the prefix
	Size      int64
	UpdatedAt time.Time
}

// SignedUpload is a pre-authorized upload target for a single key
type SignedUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// ObjectStore is the surface of the blob tier used by the upload saga and content resolver.
// There is deliberately no Exists: existence is checked by listing the parent prefix.
type ObjectStore interface {
	// SignedUploadURL presigns a PUT for key. contentType may be empty.
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (*SignedUpload, error)

	// SignedReadURL returns a time-limited GET URL for key.
	// Fails when the object does not exist.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// List returns the objects directly under prefix (non-recursive).
	// prefix is a directory path without a trailing slash.
	List(ctx context.Context, prefix string) ([]ObjectEntry, error)

	// Delete removes key. Requires CapabilityElevated.
	Delete(ctx context.Context, key string) error
}
