package domain

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FallbackCustomer is the bucket for files that match neither a customer
// code nor an internal department root.
const FallbackCustomer = "ALLGEMEIN"

// FallbackSubfolder receives files no category keyword matched.
const FallbackSubfolder = "Allgemein"

// QuarantineFolder is the per-customer holding area for losing duplicates.
const QuarantineFolder = "_duplicates"

// customerCodePattern matches "NNNN_name" customer folders, 4 to 6 digits.
var customerCodePattern = regexp.MustCompile(`\d{4,6}_[\w\- ]+`)

// subfolderRules maps categories to filename/path keywords. Order matters:
// the first matching category wins.
var subfolderRules = []struct {
	Name     string
	Keywords []string
}{
	{"Projekte", []string{"projekt", "projects", "proj_"}},
	{"Portale", []string{"portal", "website", "site"}},
	{"Kampagnen", []string{"kampagne", "campaign"}},
	{"Angebote", []string{"angebot", "offer", "quote"}},
	{"Archiv", []string{"archiv", "archive"}},
}

// CustomerRoot determines the customer bucket for a file path. A numeric
// customer code anywhere in the directory component wins, then internal
// department roots by case-insensitive substring, then the fallback bucket.
func CustomerRoot(path string, internalRoots []string) string {
	if m := customerCodePattern.FindString(filepath.Dir(path)); m != "" {
		return m
	}
	lower := strings.ToLower(path)
	for _, root := range internalRoots {
		if root != "" && strings.Contains(lower, strings.ToLower(root)) {
			return root
		}
	}
	return FallbackCustomer
}

// Subfolder picks the category subfolder for a file path based on the
// ordered keyword table.
func Subfolder(path string) string {
	lower := strings.ToLower(path)
	name := strings.ToLower(filepath.Base(path))
	for _, rule := range subfolderRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) || strings.Contains(name, kw) {
				return rule.Name
			}
		}
	}
	return FallbackSubfolder
}

// TargetDir composes the destination directory for a file. A year segment is
// appended only when enabled and the subfolder is in the year-eligible set.
func TargetDir(base, customerRoot, subfolder string, enableYear bool, yearUnder []string, mtime time.Time) string {
	if enableYear {
		for _, s := range yearUnder {
			if s == subfolder {
				return filepath.Join(base, customerRoot, subfolder, strconv.Itoa(mtime.Year()))
			}
		}
	}
	return filepath.Join(base, customerRoot, subfolder)
}

// Category vocabulary shared by the classifier, the review flow, and the
// document pipeline.
const (
	CategoryFinance  = "finanzen"
	CategoryProjects = "projekte"
	CategoryPersonal = "personal"
	CategoryFootage  = "footage"
	CategoryUnsorted = "unsorted"
)

// Categories lists every valid classification category.
func Categories() []string {
	return []string{CategoryFinance, CategoryProjects, CategoryPersonal, CategoryFootage, CategoryUnsorted}
}

// ValidCategory reports whether category is part of the vocabulary.
func ValidCategory(category string) bool {
	for _, c := range Categories() {
		if c == strings.ToLower(category) {
			return true
		}
	}
	return false
}

// CategorySubfolder maps a classification category onto the central tree's
// subfolder layout.
func CategorySubfolder(category string) string {
	switch strings.ToLower(category) {
	case CategoryFinance, CategoryPersonal:
		return "Archiv"
	case CategoryProjects, CategoryFootage:
		return "Projekte"
	default:
		return FallbackSubfolder
	}
}

// contentRules drives the deterministic keyword fallback used when the
// classification model is unavailable or returns nothing usable.
var contentRules = []struct {
	Category string
	Keywords []string
}{
	{CategoryFinance, []string{"invoice", "rechnung", "bill", "payment", "amount", "total"}},
	{CategoryProjects, []string{"projekt", "project", "milestone", "specification"}},
	{CategoryPersonal, []string{"contract", "agreement", "vertrag", "lebenslauf", "terms"}},
	{CategoryFootage, []string{"footage", "video", "schnitt", "render"}},
}

const (
	fallbackMatchConfidence = 0.6
	fallbackMissConfidence  = 0.2
)

// ClassifyContent applies the keyword fallback rules to document content.
// Matches carry a fixed confidence; an unmatched document lands in the
// unsorted category with a confidence low enough to route it to review.
func ClassifyContent(content string) ClassificationResult {
	lower := strings.ToLower(content)
	for _, rule := range contentRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return ClassificationResult{
					Category:   rule.Category,
					Confidence: fallbackMatchConfidence,
					Metadata:   map[string]string{"fallback": "keyword"},
				}
			}
		}
	}
	return ClassificationResult{
		Category:   CategoryUnsorted,
		Confidence: fallbackMissConfidence,
		Metadata:   map[string]string{"fallback": "keyword"},
	}
}

// ExpandPathTemplate substitutes {customer}, {project} and {year} into a
// per-category base path template. Empty placeholders collapse instead of
// leaving blank path segments.
func ExpandPathTemplate(template, customer, project string, year int) string {
	if customer == "" {
		customer = FallbackCustomer
	}
	expanded := strings.NewReplacer(
		"{customer}", customer,
		"{project}", project,
		"{year}", strconv.Itoa(year),
	).Replace(template)

	parts := strings.Split(filepath.ToSlash(expanded), "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	joined := filepath.Join(kept...)
	if strings.HasPrefix(expanded, "/") {
		return string(filepath.Separator) + joined
	}
	return joined
}
