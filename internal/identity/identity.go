// Package identity resolves the single canonical identity of a product.
//
// Products reach the storefront carrying either the primary identifier
// (`_id`) or the legacy one (`id`), depending on whether they came from the
// backend or from the bundled catalog. Every lookup in the cart and the
// wishlist goes through Of so that both spellings land on the same entry.
package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a canonical product identity. The zero value is unusable.
type ID string

func (id ID) Empty() bool { return id == "" }

func (id ID) String() string { return string(id) }

// Key is one raw identifier field. It decodes from a JSON string or number.
type Key string

func (k *Key) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*k = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*k = Key(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identity: key must be string or number: %w", err)
	}
	// Integer literals are kept verbatim so large ids survive unchanged.
	if !strings.ContainsAny(n.String(), ".eE") {
		*k = Key(n.String())
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("identity: key must be string or number: %w", err)
	}
	*k = Key(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Keyed is anything that carries the two identifier fields.
type Keyed interface {
	IdentityKeys() (primary, alternate Key)
}

// Of returns the primary identifier if present, else the alternate one.
// It returns the empty ID only when both are absent.
func Of(v Keyed) ID {
	primary, alternate := v.IdentityKeys()
	return FromKeys(primary, alternate)
}

func FromKeys(primary, alternate Key) ID {
	if p := strings.TrimSpace(string(primary)); p != "" {
		return ID(p)
	}
	return ID(strings.TrimSpace(string(alternate)))
}

// Parse normalizes an identity that arrives as plain text, e.g. a path param.
func Parse(s string) ID {
	return ID(strings.TrimSpace(s))
}
