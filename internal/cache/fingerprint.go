package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint hashes the semantically relevant fields of a query into a
// stable cache key. Question text is whitespace-normalized and lowercased;
// filter pairs are sorted so map iteration order cannot change the key.
func Fingerprint(question string, filters map[string]string, topK int, modelID string) string {
	parts := make([]string, 0, len(filters)+3)
	parts = append(parts, normalizeQuestion(question))
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+filters[k])
	}
	parts = append(parts, strconv.Itoa(topK), modelID)
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(hash[:])
}

func normalizeQuestion(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
