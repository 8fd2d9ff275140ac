package cache

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a raw API response.
	HTTPKey(namespace, key string) string

	// DocumentKey returns the key for a transform output, derived from the
	// hash of the source document and the options that shape the output.
	DocumentKey(docHash string, opts DocumentKeyOpts) string
}

// DocumentKeyOpts lists the transform options that change the output.
type DocumentKeyOpts struct {
	Format            string   `json:"format"`
	MaxResources      int      `json:"max_resources"`
	RelationshipLinks bool     `json:"relationship_links"`
	ResourceLinks     bool     `json:"resource_links"`
	Rules             []string `json:"rules,omitempty"`
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// DocumentKey returns "doc:<hash of hash and opts>".
func (DefaultKeyer) DocumentKey(docHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", docHash, opts)
}

var _ Keyer = DefaultKeyer{}
