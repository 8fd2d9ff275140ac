package cache

// ScopedKeyer prefixes every key built by an inner Keyer. The client scopes
// response keys to its API token so that callers with different credentials
// never share cached responses, even on a shared Redis cache:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), TokenScope(token))
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TokenScope returns the key prefix for token. The token itself never
// appears in a key.
func TokenScope(token string) string {
	return "token:" + Hash([]byte(token))[:16] + ":"
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) DocumentKey(docHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(docHash, opts)
}
