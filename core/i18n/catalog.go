package i18n

import (
	"fmt"
	"sort"
	"strings"
)

// Params are substituted into "{name}" placeholders.
type Params map[string]interface{}

// Catalog is an immutable two-layer message table: override entries win over base entries.
type Catalog struct {
	base     map[string]string
	override map[string]string
}

func NewCatalog(base, override map[string]string) *Catalog {
	return &Catalog{base: base, override: override}
}

// Lookup checks override, then base. An override entry hides the base entry even when empty,
// and an empty message counts as missing.
func (c *Catalog) Lookup(key string) (string, bool) {
	msg, ok := c.override[key]
	if !ok {
		msg, ok = c.base[key]
	}
	return msg, ok && msg != ""
}

// T resolves key, falling back to the key itself, then replaces every "{name}" for each param,
// in sorted name order. Placeholders without a param are left as is.
func (c *Catalog) T(key string, params Params) string {
	msg, ok := c.Lookup(key)
	if !ok {
		msg = key
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(params[name]))
	}
	return msg
}

// Overrides reports whether key is served by the override layer.
func (c *Catalog) Overrides(key string) bool {
	_, ok := c.override[key]
	return ok
}

// Len is the number of distinct keys across both layers.
func (c *Catalog) Len() int {
	n := len(c.base)
	for key := range c.override {
		if _, ok := c.base[key]; !ok {
			n++
		}
	}
	return n
}
