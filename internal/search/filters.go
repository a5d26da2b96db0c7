// Package search implements hybrid retrieval over the text and image vector
// collections: weighted score merging, metadata filtering, and a relevance
// gate that decides whether results are worth showing.
package search

import (
	"regexp"

	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

// CertNumberMinLength is the minimum digit count for a query to be treated
// as a certification number lookup.
const CertNumberMinLength = 6

var (
	certSeparators = regexp.MustCompile(`[\s-]`)
	certDigits     = regexp.MustCompile(`^\d{6,}$`)
)

// CleanCertNumber strips spaces and dashes from a candidate cert number.
func CleanCertNumber(query string) string {
	return certSeparators.ReplaceAllString(query, "")
}

// IsCertNumber reports whether the query looks like a certification number:
// all digits (after separator removal) and at least CertNumberMinLength long.
func IsCertNumber(query string) bool {
	return certDigits.MatchString(CleanCertNumber(query))
}

// BuildFilters translates user-facing search filters, plus cert-number
// auto-detection on the query, into vectorstore conditions.
func BuildFilters(filters types.SearchFilters, query string) *vectorstore.FilterSet {
	fs := &vectorstore.FilterSet{}

	if IsCertNumber(query) {
		fs.MatchKeyword(vectorstore.KeyCertNumber, CleanCertNumber(query))
	}

	fs.Range(vectorstore.KeyGrade, filters.MinGrade, filters.MaxGrade)

	var minYear, maxYear *float64
	if filters.MinYear != nil {
		v := float64(*filters.MinYear)
		minYear = &v
	}
	if filters.MaxYear != nil {
		v := float64(*filters.MaxYear)
		maxYear = &v
	}
	fs.Range(vectorstore.KeyCardYear, minYear, maxYear)

	if filters.Rookie != nil {
		fs.MatchBool(vectorstore.KeyCardRookie, *filters.Rookie)
	}
	if filters.Autographed != nil {
		fs.MatchBool(vectorstore.KeyCardAutograph, *filters.Autographed)
	}

	fs.MatchKeyword(vectorstore.KeyPlayerName, filters.Player)
	fs.MatchKeyword(vectorstore.KeyCardBrand, filters.Brand)

	return fs
}
