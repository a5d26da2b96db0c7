// Package certification checks extracted certification numbers against the
// public grading registry.
package certification

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/card-analyzer/internal/fetch"
	"github.com/jonathan/card-analyzer/internal/types"
)

// DefaultRegistryBaseURL is the public certificate lookup endpoint. The cert
// number is appended as the final path segment.
const DefaultRegistryBaseURL = "https://www.psacard.com/cert/"

// DefaultTimeout bounds a single registry lookup.
const DefaultTimeout = 20 * time.Second

// MissingCertError indicates the card record carries no certification number,
// so registry verification cannot run at all.
type MissingCertError struct{}

func (e *MissingCertError) Error() string {
	return "card has no certification number to verify"
}

var (
	gradePattern  = regexp.MustCompile(`(?i)Grade[:\s]+(\d+(?:\.\d+)?)`)
	playerPattern = regexp.MustCompile(`(?i)Player[:\s]+([^<\n]+)`)
)

// Verifier looks up certification numbers on the grading registry.
type Verifier struct {
	baseURL    string
	timeout    time.Duration
	useBrowser bool
	verbose    bool
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithBaseURL overrides the registry endpoint.
func WithBaseURL(baseURL string) Option {
	return func(v *Verifier) {
		if baseURL != "" {
			v.baseURL = baseURL
		}
	}
}

// WithTimeout overrides the lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithBrowserFallback enables headless browser rendering when the plain
// HTTP fetch returns a thin page.
func WithBrowserFallback(enabled bool) Option {
	return func(v *Verifier) { v.useBrowser = enabled }
}

// WithVerbose enables lookup logging.
func WithVerbose(verbose bool) Option {
	return func(v *Verifier) { v.verbose = verbose }
}

// NewVerifier constructs a Verifier with defaults applied.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		baseURL: DefaultRegistryBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LookupURL returns the registry page URL for a certification number.
func (v *Verifier) LookupURL(certNumber string) string {
	base := v.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + certNumber
}

// Verify checks the certification number of a card against the registry.
//
// Three outcomes are possible:
//   - the registry page mentions the cert number: confirmed, with any grade
//     and player details the page exposes;
//   - the registry is unreachable or the page does not mention the number:
//     inconclusive, reported as valid with a note so the pipeline proceeds;
//   - the card has no cert number at all: *MissingCertError.
func (v *Verifier) Verify(ctx context.Context, card *types.CardRecord) (*types.Verification, error) {
	if card == nil || card.Grading.CertNumber == "" {
		return nil, &MissingCertError{}
	}
	certNumber := card.Grading.CertNumber

	lookupURL := v.LookupURL(certNumber)
	if v.verbose {
		log.Printf("[CERT] Looking up %s at %s", certNumber, lookupURL)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	opts := fetch.DefaultOptions()
	opts.Timeout = v.timeout
	result, err := fetch.URL(fetchCtx, lookupURL, opts)
	if err != nil {
		if v.verbose {
			log.Printf("[CERT] Registry unreachable for %s: %v", certNumber, err)
		}
		return inconclusive(certNumber, "could not verify certification with registry"), nil
	}

	html := result.HTML
	if v.useBrowser {
		if text, textErr := fetch.ExtractMainText(html, fetch.CertPageSelectors()); textErr == nil && fetch.ShouldUseBrowser(text) {
			if rendered, browserErr := fetch.WithBrowser(ctx, lookupURL, v.timeout, v.verbose); browserErr == nil {
				html = rendered
			}
		}
	}

	if !strings.Contains(html, certNumber) {
		if v.verbose {
			log.Printf("[CERT] Registry page does not mention cert %s", certNumber)
		}
		return inconclusive(certNumber, "registry page did not confirm certification"), nil
	}

	verification := &types.Verification{
		IsValid:    true,
		CertNumber: certNumber,
		Details: map[string]any{
			"verified": true,
			"source":   lookupURL,
		},
	}

	if m := gradePattern.FindStringSubmatch(html); len(m) == 2 {
		if grade, parseErr := strconv.ParseFloat(m[1], 64); parseErr == nil {
			verification.Details["registry_grade"] = grade
		}
	}
	if m := playerPattern.FindStringSubmatch(html); len(m) == 2 {
		verification.Details["registry_player"] = strings.TrimSpace(m[1])
	}

	if v.verbose {
		log.Printf("[CERT] Confirmed cert %s (%d detail fields)", certNumber, len(verification.Details))
	}
	return verification, nil
}

func inconclusive(certNumber, note string) *types.Verification {
	return &types.Verification{
		IsValid:    true,
		CertNumber: certNumber,
		Details: map[string]any{
			"verified": false,
			"note":     note,
		},
	}
}

// String implements fmt.Stringer for log output.
func (v *Verifier) String() string {
	return fmt.Sprintf("certification.Verifier{base=%s}", v.baseURL)
}
