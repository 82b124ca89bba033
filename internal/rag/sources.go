package rag

import "pdf-rag/internal/models"

// UniqueSources drops repeated (filename, page) pairs, keeping the first
// occurrence and the original order.
func UniqueSources(sources []models.SourceRef) []models.SourceRef {
	seen := make(map[models.SourceRef]struct{}, len(sources))
	out := make([]models.SourceRef, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
