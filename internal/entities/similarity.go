package entities

import (
	"strings"
	"unicode"
)

// NameSimilarity scores how likely two entity names denote the same thing.
// Entities of different categories never match.
func NameSimilarity(nameA string, catA Category, nameB string, catB Category) float64 {
	if catA != catB {
		return 0
	}
	a := strings.ToLower(strings.TrimSpace(nameA))
	b := strings.ToLower(strings.TrimSpace(nameB))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	switch catA {
	case CategoryPerson:
		ta, tb := strings.Fields(a), strings.Fields(b)
		if isSubset(ta, tb) || isSubset(tb, ta) {
			return 0.9
		}
	case CategoryOrganization:
		sa, sb := stripPunctuation(a), stripPunctuation(b)
		if sa != "" && sb != "" && (strings.Contains(sa, sb) || strings.Contains(sb, sa)) {
			return 0.85
		}
	}

	return jaccard(strings.Fields(a), strings.Fields(b))
}

func isSubset(small, large []string) bool {
	if len(small) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(large))
	for _, w := range large {
		set[w] = struct{}{}
	}
	for _, w := range small {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func stripPunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

var professionalTerms = []string{
	"dr", "prof", "professor", "ceo", "cfo", "cto", "president", "director",
	"manager", "engineer", "senator", "judge", "officer", "chairman", "founder",
}

var industryTerms = []string{
	"bank", "capital", "university", "college", "hospital", "health", "pharma",
	"technologies", "tech", "software", "labs", "motors", "airlines", "energy",
	"insurance", "media", "foundation", "institute", "group", "holdings",
}

// clusterScore is the weaker relatedness signal used by the clustering pass.
// It returns 0 when no heuristic applies.
func clusterScore(nameA, nameB string, cat Category) float64 {
	a := strings.ToLower(stripPunctuation(nameA))
	b := strings.ToLower(stripPunctuation(nameB))
	if a == "" || b == "" || a == b {
		return 0
	}
	switch cat {
	case CategoryPerson:
		if sharesTerm(a, b, professionalTerms) {
			return 0.5
		}
	case CategoryOrganization:
		if sharesTerm(a, b, industryTerms) {
			return 0.5
		}
	case CategoryLocation:
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return 0.6
		}
	}
	return 0
}

func sharesTerm(a, b string, terms []string) bool {
	wa := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		wa[w] = struct{}{}
	}
	wb := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		wb[w] = struct{}{}
	}
	for _, t := range terms {
		_, inA := wa[t]
		_, inB := wb[t]
		if inA && inB {
			return true
		}
	}
	return false
}
