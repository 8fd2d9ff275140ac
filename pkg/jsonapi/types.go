package jsonapi

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	json "github.com/goccy/go-json"
)

// MediaType is the JSON:API content type.
const MediaType = "application/vnd.api+json"

var nullLiteral = []byte("null")

// Identifier addresses one resource within a document.
// Two identifiers are equal iff both Type and ID are equal.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Key flattens the identifier into a string that is unique per (type, id)
// pair. Backslashes and colons in the type are escaped, so "posts:1" keeps
// its plain form while ("a", "b:c") and ("a:b", "c") stay distinct.
func (i Identifier) Key() string { return keyEscaper.Replace(i.Type) + ":" + i.ID }

var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// String implements fmt.Stringer.
func (i Identifier) String() string { return i.Key() }

// Valid reports whether both type and id are set.
func (i Identifier) Valid() bool { return i.Type != "" && i.ID != "" }

// UnmarshalJSON accepts string or numeric ids.
func (i *Identifier) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type string          `json:"type"`
		ID   json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	i.Type, i.ID = raw.Type, id
	return nil
}

func decodeID(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number: %w", err)
	}
	return canonicalNumber(n.String()), nil
}

// canonicalNumber writes integral numbers in plain decimal form, so 1e3,
// 1000.0 and 1000 are the same id. Other numbers keep their literal text.
func canonicalNumber(s string) string {
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return s
	}
	return r.Num().String()
}

// Links maps link names (self, related, first, next, ...) to URLs.
// Link objects of the form {"href": "..."} are reduced to their href.
type Links map[string]string

// Self returns the self link, or "" if absent.
func (l Links) Self() string { return l["self"] }

// Related returns the related link, or "" if absent.
func (l Links) Related() string { return l["related"] }

// UnmarshalJSON decodes both string links and link objects.
func (l *Links) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Links, len(raw))
	for name, v := range raw {
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, nullLiteral) {
			continue
		}
		if v[0] == '"' {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("link %q: %w", name, err)
			}
			out[name] = s
			continue
		}
		var obj struct {
			Href string `json:"href"`
		}
		if err := json.Unmarshal(v, &obj); err != nil {
			return fmt.Errorf("link %q: %w", name, err)
		}
		if obj.Href != "" {
			out[name] = obj.Href
		}
	}
	*l = out
	return nil
}

// Linkage is the data member of a relationship object.
//
// The zero value means the data member was absent: the relationship only
// carries links. When Present is true and Many is false, One is nil for an
// explicit null and non-nil otherwise.
type Linkage struct {
	Present bool
	Many    bool
	One     *Identifier
	Items   []Identifier
}

// IsNull reports whether the server sent an explicit null.
func (l Linkage) IsNull() bool { return l.Present && !l.Many && l.One == nil }

// Identifiers returns every identifier in the linkage, in order.
func (l Linkage) Identifiers() []Identifier {
	switch {
	case l.Many:
		return l.Items
	case l.One != nil:
		return []Identifier{*l.One}
	}
	return nil
}

// MarshalJSON encodes the linkage back to its wire form.
func (l Linkage) MarshalJSON() ([]byte, error) {
	switch {
	case l.Many:
		if l.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Items)
	case l.One != nil:
		return json.Marshal(l.One)
	}
	return nullLiteral, nil
}

func parseLinkage(b json.RawMessage) (Linkage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		return Linkage{Present: true}, nil
	}
	if b[0] == '[' {
		var items []Identifier
		if err := json.Unmarshal(b, &items); err != nil {
			return Linkage{}, err
		}
		if items == nil {
			items = []Identifier{}
		}
		return Linkage{Present: true, Many: true, Items: items}, nil
	}
	var one Identifier
	if err := json.Unmarshal(b, &one); err != nil {
		return Linkage{}, err
	}
	return Linkage{Present: true, One: &one}, nil
}

// Relationship is a relationship object: linkage data, links, or both.
type Relationship struct {
	Data  Linkage
	Links Links
	Meta  map[string]any
}

// UnmarshalJSON keeps an absent data member apart from an explicit null.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Relationship{}
	if data, ok := raw["data"]; ok {
		l, err := parseLinkage(data)
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}
		r.Data = l
	}
	if links, ok := raw["links"]; ok && !bytes.Equal(bytes.TrimSpace(links), nullLiteral) {
		if err := json.Unmarshal(links, &r.Links); err != nil {
			return fmt.Errorf("links: %w", err)
		}
	}
	if meta, ok := raw["meta"]; ok {
		if err := json.Unmarshal(meta, &r.Meta); err != nil {
			return fmt.Errorf("meta: %w", err)
		}
	}
	return nil
}

// MarshalJSON omits the data member for links-only relationships.
func (r Relationship) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if r.Data.Present {
		out["data"] = r.Data
	}
	if len(r.Links) > 0 {
		out["links"] = r.Links
	}
	if len(r.Meta) > 0 {
		out["meta"] = r.Meta
	}
	return json.Marshal(out)
}

// RawResource is a resource object as received over the wire.
type RawResource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         Links                   `json:"links,omitempty"`
	Meta          map[string]any          `json:"meta,omitempty"`
}

// Identifier returns the (type, id) pair addressing r.
func (r *RawResource) Identifier() Identifier { return Identifier{Type: r.Type, ID: r.ID} }

// UnmarshalJSON accepts string or numeric ids.
func (r *RawResource) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type          string                  `json:"type"`
		ID            json.RawMessage         `json:"id"`
		Attributes    map[string]any          `json:"attributes"`
		Relationships map[string]Relationship `json:"relationships"`
		Links         Links                   `json:"links"`
		Meta          map[string]any          `json:"meta"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*r = RawResource{
		Type:          raw.Type,
		ID:            id,
		Attributes:    raw.Attributes,
		Relationships: raw.Relationships,
		Links:         raw.Links,
		Meta:          raw.Meta,
	}
	return nil
}

// PrimaryData is the top-level data member of a document.
// The zero value means the member was absent.
type PrimaryData struct {
	Present bool
	Many    bool
	One     *RawResource
	Items   []RawResource
}

// IsNull reports whether the server sent data: null.
func (d PrimaryData) IsNull() bool { return d.Present && !d.Many && d.One == nil }

// MarshalJSON encodes the primary data back to its wire form.
func (d PrimaryData) MarshalJSON() ([]byte, error) {
	switch {
	case d.Many:
		if d.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.Items)
	case d.One != nil:
		return json.Marshal(d.One)
	}
	return nullLiteral, nil
}

func parsePrimary(b json.RawMessage) (PrimaryData, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, nullLiteral) {
		return PrimaryData{Present: true}, nil
	}
	if b[0] == '[' {
		var items []RawResource
		if err := json.Unmarshal(b, &items); err != nil {
			return PrimaryData{}, err
		}
		if items == nil {
			items = []RawResource{}
		}
		return PrimaryData{Present: true, Many: true, Items: items}, nil
	}
	var one RawResource
	if err := json.Unmarshal(b, &one); err != nil {
		return PrimaryData{}, err
	}
	return PrimaryData{Present: true, One: &one}, nil
}

// Document is a JSON:API top-level document.
type Document struct {
	Data     PrimaryData
	Included []RawResource
	Errors   []ErrorObject
	Links    Links
	Meta     map[string]any
}

// UnmarshalJSON keeps an absent data member apart from data: null.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Document{}
	if data, ok := raw["data"]; ok {
		p, err := parsePrimary(data)
		if err != nil {
			return fmt.Errorf("data: %w", err)
		}
		d.Data = p
	}
	fields := []struct {
		name string
		dst  any
	}{
		{"included", &d.Included},
		{"errors", &d.Errors},
		{"links", &d.Links},
		{"meta", &d.Meta},
	}
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), nullLiteral) {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// MarshalJSON omits the data member when it was absent.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5)
	if d.Data.Present {
		out["data"] = d.Data
	}
	if len(d.Included) > 0 {
		out["included"] = d.Included
	}
	if len(d.Errors) > 0 {
		out["errors"] = d.Errors
	}
	if len(d.Links) > 0 {
		out["links"] = d.Links
	}
	if len(d.Meta) > 0 {
		out["meta"] = d.Meta
	}
	return json.Marshal(out)
}

// Index maps an identifier to the raw resource it addresses.
type Index map[Identifier]*RawResource

// Lookup returns the raw resource for id, if indexed.
func (x Index) Lookup(id Identifier) (*RawResource, bool) {
	r, ok := x[id]
	return r, ok
}

// Result references the primary data of a normalized document.
// A null primary datum is a Result with Many false and One nil.
type Result struct {
	Many  bool
	One   *Identifier
	Items []Identifier
}

// IsNull reports whether the primary data was null.
func (r Result) IsNull() bool { return !r.Many && r.One == nil }

// Identifiers returns every primary identifier, in server order.
func (r Result) Identifiers() []Identifier {
	switch {
	case r.Many:
		return r.Items
	case r.One != nil:
		return []Identifier{*r.One}
	}
	return nil
}
