package redis

import "strings"

const defaultKeyPrefix = "lc"

// Keyspace builds colon separated keys under one prefix so several deployments
// can share a redis database.
type Keyspace struct {
	prefix string
}

func NewKeyspace(prefix string) Keyspace {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

// Key joins parts under the prefix, skipping blank ones.
func (k Keyspace) Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(k.prefixOrDefault())
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (k Keyspace) prefixOrDefault() string {
	if k.prefix == "" {
		return defaultKeyPrefix
	}
	return k.prefix
}

// IdempotencyKey scopes a client supplied key to one method and path.
func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.Key("idempotency", scope, id)
}

// ExchangeRateKey holds the latest snapshot for a reference currency.
func (k Keyspace) ExchangeRateKey(reference string) string {
	return k.Key("exchange_rate", "snapshot", strings.ToLower(reference))
}
