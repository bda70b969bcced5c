package config

const (
	// MaxNodeNameLength is the maximum length for file and folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and common
	// filesystem name limits.
	MaxNodeNameLength = 255

	// MaxContentTypeLength bounds the MIME type forwarded to the object store.
	MaxContentTypeLength = 255

	// MaxStorageKeyLength is the maximum object key length accepted by S3.
	MaxStorageKeyLength = 1024
)
