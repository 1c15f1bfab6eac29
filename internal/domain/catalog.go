package domain

import "strconv"

// Bilingual pairs an English text with its Arabic counterpart.
type Bilingual struct {
	EN string
	AR string
}

// Item is one entry in the codification catalog. Items are loaded once at
// startup and never mutated; the item at position i in the catalog owns the
// vector at row i of the embedding index.
type Item struct {
	INC        int
	NSG        int
	NSC        int
	Name       string
	Definition Bilingual
}

// Candidate is a catalog item retrieved as a plausible match, with its
// cosine similarity to the query.
type Candidate struct {
	Position int
	Item     Item
	Score    float64
}

// FormatNSC renders the NSC without its NSG prefix.
// NSG=10, NSC=1005 -> "05"; NSG=70, NSC=7010 -> "10".
func FormatNSC(nsg, nsc int) string {
	nscStr := strconv.Itoa(nsc)
	nsgStr := strconv.Itoa(nsg)
	if len(nscStr) > len(nsgStr) && nscStr[:len(nsgStr)] == nsgStr {
		return nscStr[len(nsgStr):]
	}
	return nscStr
}
