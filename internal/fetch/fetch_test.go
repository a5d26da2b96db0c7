package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	var gotUserAgent, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("X-Custom")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>cert 12345678</body></html>")
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Custom": "yes"}

	result, err := URL(context.Background(), srv.URL, opts)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.HTML, "cert 12345678")
	assert.Contains(t, result.ContentType, "text/html")
	assert.Equal(t, DefaultUserAgent, gotUserAgent)
	assert.Equal(t, "yes", gotHeader)
}

func TestURL_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	result, err := URL(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "404")
	// Body is still returned so callers can inspect error pages.
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, bad := range []string{"", "not-a-url", "/relative/path"} {
		_, err := URL(context.Background(), bad, nil)
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, "url=%q", bad)
		assert.Equal(t, "invalid URL", fetchErr.Message)
	}
}

func TestURL_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := URL(context.Background(), srv.URL, nil)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "HTTP request failed", fetchErr.Message)
	assert.Error(t, fetchErr.Unwrap())
}

func TestExtractMainText_UsesContentSelector(t *testing.T) {
	html := `<html><body>
		<nav>Home | About</nav>
		<div class="cert-details">Certification 12345678
Grade: 10</div>
		<footer>Copyright</footer>
	</body></html>`

	text, err := ExtractMainText(html, CertPageSelectors())
	require.NoError(t, err)

	assert.Contains(t, text, "Certification 12345678")
	assert.Contains(t, text, "Grade: 10")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright")
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>plain page</p><script>tracker()</script></body></html>`

	text, err := ExtractMainText(html, []string{".does-not-exist"})
	require.NoError(t, err)

	assert.Equal(t, "plain page", text)
}

func TestExtractMainText_CleansWhitespace(t *testing.T) {
	html := "<html><body><main>  first line  \n\n\n   second line   \n</main></body></html>"

	text, err := ExtractMainText(html, []string{"main"})
	require.NoError(t, err)

	assert.Equal(t, "first line\nsecond line", text)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(""))
	assert.True(t, ShouldUseBrowser("   \n  "))
	assert.True(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength-1)))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}
