// Package naming converts between property names, column names and table
// names, and parses the relation references used in query options.
package naming

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPrefix is prepended to every entity table name.
const DefaultPrefix = "dobee"

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for singular, plural := range map[string]string{
		"person":    "people",
		"child":     "children",
		"criterion": "criteria",
		"datum":     "data",
		"foot":      "feet",
		"goose":     "geese",
		"tooth":     "teeth",
	} {
		rules.AddIrregular(singular, plural)
	}
	return rules
}

// Underscore converts a camel-case name to its underscored form.
// Dots are kept, so qualified names convert part by part:
//
//	createdAt      => created_at
//	this.createdAt => this.created_at
//	HTMLParser     => html_parser
func Underscore(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Camelize converts an underscored name to upper camel case (user_id => UserId).
func Camelize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	// A Caser is stateful and must not be shared between goroutines.
	title := cases.Title(language.Und, cases.NoLower)
	for i, w := range words {
		words[i] = title.String(w)
	}
	return strings.Join(words, "")
}

// LowerCamelize converts an underscored name to lower camel case (created_at => createdAt).
func LowerCamelize(s string) string {
	c := Camelize(s)
	if c == "" {
		return c
	}
	rs := []rune(c)
	rs[0] = unicode.ToLower(rs[0])
	return string(rs)
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToLower(rs[0])
	return string(rs)
}

// Pluralize returns the plural form of a singular noun.
func Pluralize(s string) string { return rules.Pluralize(s) }

// Singularize returns the singular form of a plural noun.
func Singularize(s string) string { return rules.Singularize(s) }

// Table returns the table name of an entity.
func Table(prefix, entity string) string {
	if prefix == "" {
		return Underscore(entity)
	}
	return prefix + "_" + Underscore(entity)
}

// LinkTable returns the many-to-many link table name for an owner entity.
func LinkTable(prefix, owner, owned string) string {
	return Table(prefix, owner) + "_mtm_" + Underscore(owned)
}

// Column returns the underscored column for a property.
func Column(property string) string { return Underscore(property) }

// ForeignKey returns the column holding the key of the related entity.
func ForeignKey(related string) string { return Underscore(related) + "_id" }

// Discriminator returns the column holding the concrete class of the related entity.
func Discriminator(related string) string { return Underscore(related) + "_class" }
