package docsystem

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	models "nodestore/internal/domain/models/docsystem"
	"nodestore/internal/domain/services"
	docsysSvc "nodestore/internal/domain/services/docsystem"
)

var storageRefPattern = regexp.MustCompile(`storage:\s*(\S+)`)

type contentResolver struct {
	store  services.ObjectStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewContentResolver creates a resolver that mints read URLs valid for ttl
func NewContentResolver(store services.ObjectStore, ttl time.Duration, logger *slog.Logger) docsysSvc.ContentResolver {
	return &contentResolver{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve returns inline text when the content row holds it, otherwise probes the
// object store: explicit reference, canonical key, legacy key, then a directory listing.
func (r *contentResolver) Resolve(ctx context.Context, node *models.Node, text string) *docsysSvc.ResolvedContent {
	if isInlineText(text) {
		return &docsysSvc.ResolvedContent{Content: &text}
	}

	for _, key := range contentCandidates(node, text) {
		url, err := r.store.SignedReadURL(ctx, key, r.ttl)
		if err != nil {
			r.logger.Debug("content candidate unavailable",
				"node_id", node.ID,
				"key", key,
				"error", err,
			)
			continue
		}
		return &docsysSvc.ResolvedContent{SignedURL: &url}
	}

	if url, ok := r.resolveFromListing(ctx, node); ok {
		return &docsysSvc.ResolvedContent{SignedURL: &url}
	}

	r.logger.Warn("no stored object found for file node",
		"node_id", node.ID,
		"project_id", node.ProjectID,
	)
	return &docsysSvc.ResolvedContent{}
}

func (r *contentResolver) resolveFromListing(ctx context.Context, node *models.Node) (string, bool) {
	prefix := StoragePrefix(node.ProjectID, node.ID)
	entries, err := r.store.List(ctx, prefix)
	if err != nil {
		r.logger.Warn("list node storage prefix failed", "prefix", prefix, "error", err)
		return "", false
	}
	if len(entries) == 0 {
		return "", false
	}

	pick := entries[0].Name
	for _, e := range entries {
		if e.Name == canonicalObjectName {
			pick = e.Name
			break
		}
	}

	key := prefix + "/" + pick
	url, err := r.store.SignedReadURL(ctx, key, r.ttl)
	if err != nil {
		r.logger.Warn("sign listed object failed", "key", key, "error", err)
		return "", false
	}
	return url, true
}

// isInlineText reports whether text is literal content rather than a storage reference
func isInlineText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	trimmed = strings.TrimLeft(trimmed, `"'`)
	return !strings.HasPrefix(trimmed, StorageRefPrefix)
}

// contentCandidates lists keys to try, in order, without duplicates
func contentCandidates(node *models.Node, text string) []string {
	candidates := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	add := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, key)
	}

	add(explicitStorageKey(text))
	add(CanonicalPath(node.ProjectID, node.ID))
	add(LegacyPath(node.ProjectID, node.ID, node.Name))
	return candidates
}

// explicitStorageKey extracts the key from an embedded "storage:<key>" reference
func explicitStorageKey(text string) string {
	m := storageRefPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}
