// Package normalizer turns raw Nubank statement descriptions into clean
// merchant names. Raw descriptions carry transfer boilerplate, CNPJ/CPF
// document numbers and bank routing noise that would pollute the ledger and
// confuse keyword classification.
package normalizer

import (
	"regexp"
	"strings"
)

// Technical prefixes Nubank prepends to statement lines. Accented and plain
// spellings both appear in the wild, so the patterns accept either.
var technicalPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^transfer[êe]ncia (enviada|recebida) pelo pix - `),
	regexp.MustCompile(`(?i)^transfer[êe]ncia (enviada|recebida) - `),
	regexp.MustCompile(`(?i)^compra no (d[ée]bito|cr[ée]dito) - `),
	regexp.MustCompile(`(?i)^pagamento de fatura`),
	regexp.MustCompile(`(?i)^resgate rdb`),
}

var (
	// "NOME - CNPJ - BANCO" lines: everything from the CNPJ onwards is noise.
	cnpjRe = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}`)
	// Masked CPF as Nubank renders it for transfers between individuals.
	maskedCPFRe = regexp.MustCompile(`\*\*\*\.\d{3}\.\d{3}-\*\*`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

// MerchantPattern maps a recognized merchant to its canonical display name.
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// Normalizer cleans raw statement descriptions. The zero value is not
// usable; construct with New.
type Normalizer struct {
	patterns []MerchantPattern
}

// New returns a Normalizer loaded with the default Brazilian merchant
// patterns.
func New() *Normalizer {
	return &Normalizer{patterns: defaultMerchantPatterns()}
}

// AddPattern registers a custom merchant pattern, matched after the built-in
// ones. The pattern is matched against the folded (lowercase, accent-free)
// cleaned description.
func (n *Normalizer) AddPattern(pattern, name string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	n.patterns = append(n.patterns, MerchantPattern{Pattern: re, Name: name})
	return nil
}

// Result pairs a cleaned description with the raw input it came from, so
// callers can show the untouched original when cleaning changed it.
type Result struct {
	Original string `json:"original"`
	Clean    string `json:"clean"`
}

// Modified reports whether cleaning changed the description.
func (r Result) Modified() bool {
	return r.Original != r.Clean
}

// Sanitize cleans a raw description and reports both forms.
func (n *Normalizer) Sanitize(raw string) Result {
	return Result{Original: raw, Clean: n.Normalize(raw)}
}

// Normalize cleans a raw statement description. It strips Nubank transfer
// boilerplate, truncates at the " - " and " •" separators Nubank uses before
// document numbers, removes CNPJ/masked-CPF fragments and collapses
// whitespace. If cleaning leaves nothing, the raw description is returned so
// no transaction ever loses its description. Normalize is idempotent.
func (n *Normalizer) Normalize(raw string) string {
	clean := raw

	for _, prefix := range technicalPrefixes {
		clean = prefix.ReplaceAllString(clean, "")
	}

	// Nubank renders counterparty lines as "NOME - CNPJ - BANCO" and masks
	// CPFs with bullets; keep only the name.
	clean, _, _ = strings.Cut(clean, " - ")
	clean, _, _ = strings.Cut(clean, " •")
	if loc := cnpjRe.FindStringIndex(clean); loc != nil {
		clean = clean[:loc[0]]
	}
	clean = maskedCPFRe.ReplaceAllString(clean, "")

	clean = strings.ReplaceAll(clean, `"`, "")
	clean = strings.TrimSpace(spacesRe.ReplaceAllString(clean, " "))
	if clean == "" {
		return raw
	}

	folded := Fold(clean)
	for _, p := range n.patterns {
		if p.Pattern.MatchString(folded) {
			return p.Name
		}
	}

	return clean
}

// defaultMerchantPatterns returns canonical names for merchants that show up
// with inconsistent spellings in Brazilian statements. Patterns run against
// folded text, so they are written without accents.
func defaultMerchantPatterns() []MerchantPattern {
	return []MerchantPattern{
		{regexp.MustCompile(`^ifood\b|^ifd\*`), "iFood"},
		{regexp.MustCompile(`^uber\s*eats\b`), "Uber Eats"},
		{regexp.MustCompile(`^uber\s*\*`), "Uber"},
		{regexp.MustCompile(`^rappi\b`), "Rappi"},
		{regexp.MustCompile(`^99\s*app\b|^99\*`), "99"},
		{regexp.MustCompile(`^netflix\b`), "Netflix"},
		{regexp.MustCompile(`^spotify\b`), "Spotify"},
		{regexp.MustCompile(`^amazon\s*prime\b|^primevideo\b`), "Amazon Prime"},
		{regexp.MustCompile(`^mercadolivre\b|^mercado\s*livre\b`), "Mercado Livre"},
		{regexp.MustCompile(`^pag\*`), "PagSeguro"},
		{regexp.MustCompile(`^mp\s*\*|^mercadopago\b`), "Mercado Pago"},
		{regexp.MustCompile(`^drogasil\b`), "Drogasil"},
		{regexp.MustCompile(`^raia\b|^drogaraia\b`), "Droga Raia"},
	}
}
