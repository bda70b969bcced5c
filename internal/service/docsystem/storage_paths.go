package docsystem

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// StorageRefPrefix marks a file_contents.text value that points at the object store
	StorageRefPrefix = "storage:"

	canonicalObjectName = "blob"
	uploadsDir          = "uploads"
	legacyHashLen       = 10
)

var (
	extensionPattern = regexp.MustCompile(`^\.[a-z0-9]+$`)
	unsafeRunPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

	// NFD, then drop U+0300..U+036F so "é" becomes "e"
	stripDiacritics = transform.Chain(
		norm.NFD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r >= 0x0300 && r <= 0x036f })),
	)
)

// StoragePrefix is the object-store directory owned by a node
func StoragePrefix(projectID, nodeID string) string {
	return projectID + "/" + nodeID
}

// CanonicalPath is the name-independent key used for every new upload
func CanonicalPath(projectID, nodeID string) string {
	return StoragePrefix(projectID, nodeID) + "/" + canonicalObjectName
}

// UploadStagingPath is reserved for in-flight uploads that have not been confirmed
func UploadStagingPath(projectID, nodeID, uploadID string) string {
	return StoragePrefix(projectID, nodeID) + "/" + uploadsDir + "/" + uploadID
}

// LegacyPath is the older, file-name-derived key. The hash suffix is taken from the
// untouched file name, so names that slug identically still map to different keys.
func LegacyPath(projectID, nodeID, fileName string) string {
	base, ext := splitExt(fileName)
	return StoragePrefix(projectID, nodeID) + "/" + slugify(base) + "_" + nameHash(fileName) + ext
}

// splitExt follows POSIX extname rules: a lone leading dot is part of the base name.
// The returned extension is lowercased, or empty when it is not plain alphanumeric.
func splitExt(fileName string) (base, ext string) {
	ext = path.Ext(fileName)
	base = strings.TrimSuffix(fileName, ext)
	if base == "" || strings.HasSuffix(base, "/") {
		return fileName, ""
	}
	ext = strings.ToLower(ext)
	if !extensionPattern.MatchString(ext) {
		ext = ""
	}
	return base, ext
}

func slugify(base string) string {
	stripped, _, err := transform.String(stripDiacritics, base)
	if err != nil {
		stripped = base
	}
	slug := unsafeRunPattern.ReplaceAllString(stripped, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "file"
	}
	return slug
}

func nameHash(fileName string) string {
	sum := sha256.Sum256([]byte(fileName))
	return hex.EncodeToString(sum[:])[:legacyHashLen]
}

// StorageRef formats a file_contents.text reference to key
func StorageRef(key string) string {
	return StorageRefPrefix + key
}
