package store

import (
	"fmt"
	"strings"
)

// Redis key pattern helpers
//
// All keys and channels are namespaced so that several quire deployments can
// share one Redis server.
//
// Key pattern: quire:{namespace}:{kind}:{id}
// Channel pattern: quire:{namespace}:{event_type}_events

// EntityKey returns the Redis key of an entity document hash.
// Pattern: quire:{namespace}:entity:{entity_id}
func EntityKey(namespace, id string) string {
	return fmt.Sprintf("quire:%s:entity:%s", namespace, id)
}

// EntityKeyPattern returns the SCAN pattern matching entity keys whose id
// starts with prefix. Glob metacharacters in prefix are escaped.
func EntityKeyPattern(namespace, prefix string) string {
	return EntityKey(namespace, globEscaper.Replace(prefix)) + "*"
}

// EntityIDFromKey strips the namespace and kind from an entity key.
func EntityIDFromKey(namespace, key string) (string, bool) {
	return strings.CutPrefix(key, EntityKey(namespace, ""))
}

// AllocationKey returns the Redis key of a ledger entry.
// Pattern: quire:{namespace}:ident:{entity_type}-{digest}
func AllocationKey(namespace, key string) string {
	return fmt.Sprintf("quire:%s:ident:%s", namespace, key)
}

// DocumentEventsChannel returns the Pub/Sub channel for document events.
// Pattern: quire:{namespace}:document_events
func DocumentEventsChannel(namespace string) string {
	return fmt.Sprintf("quire:%s:document_events", namespace)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
