package knowledge

import (
	"sort"
	"strings"
	"unicode"

	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
)

// Retrieval limits.
const (
	// maxDocuments caps the ranked knowledge documents per context.
	maxDocuments = 7

	// smallShopDocCount is the document count at or under which
	// zero-score documents are still included, so small shops never get
	// an empty context.
	smallShopDocCount = 5

	// maxBodyOccurrences caps per-token body occurrences when scoring.
	maxBodyOccurrences = 5

	// maxRelevantProducts caps the detailed product blocks.
	maxRelevantProducts = 3

	// maxDocumentExcerpt bounds the content excerpt per document.
	maxDocumentExcerpt = 600
)

// NoMatchContext is returned when no document, fact or catalog item
// matches the message. It instructs the model instead of grounding it.
const NoMatchContext = "Aucune information spécifique n'a été trouvée pour cette question. " +
	"Réponds à partir de tes connaissances générales du domaine beauté et capillaire, " +
	"sans jamais inventer de produits, de prix ou de promotions."

// Retriever selects the knowledge most relevant to a shopper message.
// It holds only the immutable curated facts; documents and catalog are
// request-scoped inputs. Retrieve is deterministic and side-effect free.
type Retriever struct {
	facts []Entry
}

// NewRetriever creates a Retriever. Passing nil facts uses the built-in set.
func NewRetriever(facts []Entry) *Retriever {
	if facts == nil {
		facts = DefaultEntries()
	}
	return &Retriever{facts: facts}
}

// Retrieve scores documents and catalog items against the message and
// returns the concatenated context: documents, then curated facts, then
// catalog. currency renders product prices. Returns NoMatchContext when
// nothing matches anywhere.
func (r *Retriever) Retrieve(message string, items []catalog.Item, docs []Document, currency string) string {
	tokens := Tokenize(message)
	lowered := strings.ToLower(message)

	var sections []string
	if block := r.documentBlock(tokens, docs); block != "" {
		sections = append(sections, block)
	}
	if block := r.factBlock(lowered); block != "" {
		sections = append(sections, block)
	}
	if block := r.catalogBlock(tokens, items, currency); block != "" {
		sections = append(sections, block)
	}

	if len(sections) == 0 {
		return NoMatchContext
	}
	return strings.Join(sections, "\n\n")
}

// Tokenize splits a message into unique lowercase words longer than two
// runes. Accented letters count as letters.
func Tokenize(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

type scoredDoc struct {
	doc   Document
	score int
}

// documentBlock ranks shop documents: +3 per token found in the title,
// +1 per body occurrence capped per token. Shops with few documents keep
// zero-score entries so the context is never empty for them.
func (r *Retriever) documentBlock(tokens []string, docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	keepZero := len(docs) <= smallShopDocCount
	scored := make([]scoredDoc, 0, len(docs))
	for _, d := range docs {
		title := strings.ToLower(d.Title)
		body := strings.ToLower(d.Content)

		score := 0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				score += 3
			}
			score += min(strings.Count(body, tok), maxBodyOccurrences)
		}
		if score == 0 && !keepZero {
			continue
		}
		scored = append(scored, scoredDoc{doc: d, score: score})
	}
	if len(scored) == 0 {
		return ""
	}

	// Stable sort keeps input order among equal scores, so identical
	// inputs always produce identical output.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxDocuments {
		scored = scored[:maxDocuments]
	}

	var b strings.Builder
	b.WriteString("### Base de connaissances de la boutique")
	for _, sd := range scored {
		b.WriteString("\n— ")
		b.WriteString(sd.doc.Title)
		b.WriteString("\n")
		b.WriteString(excerpt(sd.doc.Content, maxDocumentExcerpt))
	}
	return b.String()
}

// factBlock includes every curated entry whose alias appears in the
// message. Membership is exact substring matching, not scoring.
func (r *Retriever) factBlock(lowered string) string {
	var matched []Entry
	for _, e := range r.facts {
		for _, alias := range e.Aliases {
			if strings.Contains(lowered, alias) {
				matched = append(matched, e)
				break
			}
		}
	}
	if len(matched) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("### Fiches conseil")
	for _, e := range matched {
		b.WriteString("\n")
		b.WriteString(formatEntry(e))
	}
	return b.String()
}

func formatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString("— ")
	b.WriteString(displayName(e))
	b.WriteString(" (")
	b.WriteString(categoryLabel(e.Category))
	b.WriteString(")")
	if len(e.Properties) > 0 {
		b.WriteString("\n  Points clés: ")
		b.WriteString(strings.Join(e.Properties, " ; "))
	}
	if len(e.RecommendedFor) > 0 {
		b.WriteString("\n  Recommandé pour: ")
		b.WriteString(strings.Join(e.RecommendedFor, " ; "))
	}
	if len(e.Contraindications) > 0 {
		b.WriteString("\n  Précautions: ")
		b.WriteString(strings.Join(e.Contraindications, " ; "))
	}
	return b.String()
}

// displayName renders the entry's canonical name from its first alias.
func displayName(e Entry) string {
	if len(e.Aliases) == 0 {
		return e.Key
	}
	name := e.Aliases[0]
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(c Category) string {
	switch c {
	case CategoryIngredient:
		return "ingrédient"
	case CategoryProblem:
		return "problème"
	case CategoryHairType:
		return "type de cheveux"
	default:
		return string(c)
	}
}

type scoredItem struct {
	item  catalog.Item
	score int
}

// catalogBlock scores items by token occurrences in name+description.
// Any hit: top items in detail plus a one-line summary of the rest.
// No hit: compact summary of the whole catalog.
func (r *Retriever) catalogBlock(tokens []string, items []catalog.Item, currency string) string {
	if len(items) == 0 {
		return ""
	}

	scored := make([]scoredItem, 0, len(items))
	anyHit := false
	for _, it := range items {
		haystack := strings.ToLower(it.Name + " " + it.Description)
		score := 0
		for _, tok := range tokens {
			score += strings.Count(haystack, tok)
		}
		if score > 0 {
			anyHit = true
		}
		scored = append(scored, scoredItem{item: it, score: score})
	}

	var b strings.Builder
	b.WriteString("### Catalogue")

	if !anyHit {
		b.WriteString("\n")
		b.WriteString(summaryLine("Produits de la boutique", scored, currency))
		return b.String()
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	n := 0
	b.WriteString("\nProduits les plus pertinents:")
	for _, si := range scored {
		if si.score == 0 || n == maxRelevantProducts {
			break
		}
		b.WriteString("\n- ")
		b.WriteString(si.item.Name)
		b.WriteString(" — ")
		b.WriteString(catalog.FormatPrice(si.item.Price, currency))
		if si.item.Description != "" {
			b.WriteString("\n  ")
			b.WriteString(excerpt(si.item.Description, 200))
		}
		if si.item.PurchaseURL != "" {
			b.WriteString("\n  Lien: ")
			b.WriteString(si.item.PurchaseURL)
		}
		n++
	}

	if rest := scored[n:]; len(rest) > 0 {
		b.WriteString("\n")
		b.WriteString(summaryLine("Autres produits", rest, currency))
	}
	return b.String()
}

// summaryLine renders a compact one-line listing: "label: a (prix), b (prix)".
func summaryLine(label string, scored []scoredItem, currency string) string {
	parts := make([]string, 0, len(scored))
	for _, si := range scored {
		parts = append(parts, si.item.Name+" ("+catalog.FormatPrice(si.item.Price, currency)+")")
	}
	return label + ": " + strings.Join(parts, ", ")
}

// excerpt truncates s at a rune boundary.
func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
