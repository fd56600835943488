package gen

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/inflect"
)

var (
	rulesMu  sync.RWMutex
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"API", "DB", "HTML", "HTTP", "ID", "IP", "JSON", "SQL", "TCP", "UID", "URI", "URL", "UUID", "XML"} {
		acronyms[w] = struct{}{}
		r.AddAcronym(w)
	}
	return r
}

// AddAcronym adds a word that is rendered in upper case inside Go
// identifiers, for example "VAT" in "InvoiceVAT".
func AddAcronym(word string) {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	word = strings.ToUpper(word)
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

// Pascal returns the exported Go identifier of a schema name.
//
//	Pascal("address_city") = "AddressCity"
//	Pascal("id")           = "ID"
//	Pascal("Invoice")      = "Invoice"
func Pascal(s string) string {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	words := strings.FieldsFunc(s, isSeparator)
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
			continue
		}
		words[i] = rules.Capitalize(w)
	}
	return strings.Join(words, "")
}

// Plural returns the plural form of an identifier.
func Plural(s string) string {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return rules.Pluralize(s)
}

// Receiver returns the receiver name of a Go type name.
func Receiver(s string) string {
	for _, r := range s {
		return string(unicode.ToLower(r))
	}
	return "r"
}

// FileName returns the file name rendered for a table.
func FileName(table string) string {
	return strings.ToLower(table) + ".go"
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}
