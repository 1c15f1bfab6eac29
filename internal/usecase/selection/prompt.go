package selection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/osool-guide/codifier/internal/domain"
)

const maxDefinitionLen = 300

const systemPrompt = "You are a military logistics classification expert. " +
	"Always respond with valid JSON only."

const strictSystemPrompt = systemPrompt + " The \"position\" field MUST be one of the " +
	"candidate numbers listed in the prompt. Never invent a code outside the candidate list."

const translateSystemPrompt = "You are a professional translator specializing in military " +
	"and technical terminology. Always respond with valid JSON only."

// buildSelectionPrompt renders the candidate list for the model. Candidates
// are numbered from 1; the model answers by number, never by code.
func buildSelectionPrompt(rawQuery string, u domain.Understanding, candidates []domain.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A user describes this asset: %q\n", rawQuery)
	if u.CanonicalQuery != rawQuery {
		fmt.Fprintf(&b, "Normalized description: %q\n", u.CanonicalQuery)
	}
	if len(u.Attributes) > 0 {
		b.WriteString("Extracted attributes:\n")
		for _, k := range sortedKeys(u.Attributes) {
			fmt.Fprintf(&b, "- %s: %s\n", k, u.Attributes[k])
		}
	}

	b.WriteString("\nCandidate catalog items:\n")
	for i, c := range candidates {
		def := c.Item.Definition.EN
		if len(def) > maxDefinitionLen {
			def = def[:maxDefinitionLen] + "..."
		}
		fmt.Fprintf(&b, "%d. INC: %d\n   NAME: %s\n   NSG: %d, NSC: %d\n   SIMILARITY: %.4f\n   DEFINITION: %s\n\n",
			i+1, c.Item.INC, c.Item.Name, c.Item.NSG, c.Item.NSC, c.Score, def)
	}

	fmt.Fprintf(&b, `Pick the single best-matching candidate by its number, considering:
1. Name similarity to the user's description
2. Definition relevance
3. Specific details the user mentioned

Respond ONLY with valid JSON in this exact format:
{
  "position": 1,
  "no_match": false,
  "confidence": 0.95,
  "reasoning_en": "one paragraph explaining why this candidate is the best match",
  "reasoning_ar": "the same reasoning translated to Modern Standard Arabic"
}

"position" must be a number between 1 and %d. If no candidate is acceptable,
set "no_match" to true and explain why in both languages.
Keep acronyms such as NSG, NSC, and INC in English in the Arabic text.
Confidence must be between 0.0 and 1.0.`, len(candidates))

	return b.String()
}

func buildTranslationPrompt(definition string) string {
	return fmt.Sprintf(`Translate this catalog item definition from English to Arabic.
Use formal Modern Standard Arabic with accurate technical terminology.
Keep acronyms such as NSG, NSC, and INC in English. Do not translate item names.

DEFINITION: %s

Respond ONLY with valid JSON in this exact format:
{"definition_ar": "Arabic translation of the definition"}`, definition)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
