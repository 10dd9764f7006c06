package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"postgate/internal/entity"
)

// BuildKey derives the store key for a request, or "" when the request does
// not opt in to idempotency. The key hashes the payload alongside the
// caller-supplied token so that two requests reusing an idempotencyKey with
// different payloads land on different keys: a caller bug shows up as two
// separate publishes instead of a silently deduped mismatch.
func BuildKey(req *entity.PostRequest) string {
	if req.IdempotencyKey == "" {
		return ""
	}

	parts := []string{
		req.IdempotencyKey,
		strings.ToLower(req.Platform),
		identity(req),
		req.Body,
		string(req.Type),
		slotValue(req.Cover),
		slotValue(req.Video),
		slotValue(req.Audio),
		slotValue(req.Document),
	}
	for _, item := range req.Media {
		parts = append(parts, item.URL)
	}

	digest := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(digest[:])
}

// identity captures which credential set the request targets: the account
// name plus any inline auth overrides, key-sorted for determinism.
func identity(req *entity.PostRequest) string {
	parts := []string{"account=" + req.Account}
	keys := make([]string, 0, len(req.Auth))
	for key := range req.Auth {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+req.Auth[key])
	}
	return strings.Join(parts, "&")
}

func slotValue(slot *entity.MediaSlot) string {
	if slot == nil {
		return ""
	}
	return slot.URL
}
