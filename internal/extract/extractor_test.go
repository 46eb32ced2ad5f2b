package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsmill/blog-ingest/internal/article"
)

func page(html string) article.RawPage {
	return article.RawPage{
		URL:     "https://example.com/story",
		Section: "business",
		HTML:    []byte(html),
	}
}

func TestExtractStrategyPriority(t *testing.T) {
	t.Parallel()

	// Both the strong element and the h1 are present; the strong wins
	// because it sits higher in the chain.
	fields := New().Extract(page(`
		<html><body>
			<strong>Lede Title</strong>
			<h1>Heading Title</h1>
			<span class="author-name">Jo Writer</span>
			<div class="byline">should not win</div>
		</body></html>`))

	assert.Equal(t, "Lede Title", fields.Title)
	assert.Equal(t, "Jo Writer", fields.Author)
}

func TestExtractSecondStrategyWhenFirstAbsent(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body>
			<h1>Sample Story</h1>
			<div class="byline">By Pat Reporter</div>
		</body></html>`))

	assert.Equal(t, "Sample Story", fields.Title)
	assert.Equal(t, "By Pat Reporter", fields.Author)
}

func TestExtractPlaceholdersOnExhaustion(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`<html><body><div>nothing useful</div></body></html>`))

	assert.Equal(t, UnknownTitle, fields.Title)
	assert.Equal(t, UnknownAuthor, fields.Author)
	assert.Empty(t, fields.Body)
	assert.Empty(t, fields.TopicsRaw)
	assert.Empty(t, fields.PublishedRaw)
}

func TestExtractUnparseableMarkupDoesNotFail(t *testing.T) {
	t.Parallel()

	fields := New().Extract(article.RawPage{URL: "https://example.com/x", HTML: nil})

	assert.Equal(t, UnknownTitle, fields.Title)
	assert.Equal(t, "https://example.com/x", fields.URL)
}

func TestExtractTopicsFromFirstMatchingStrategy(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body>
			<li class="topic-list-item"> Economy </li>
			<li class="topic-list-item">Trade</li>
			<span class="topic">should be ignored</span>
		</body></html>`))

	assert.Equal(t, "Economy|Trade", fields.TopicsRaw)
}

func TestExtractTopicsFallbackSelector(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body><span class="topic-tag">Climate</span></body></html>`))

	assert.Equal(t, "Climate", fields.TopicsRaw)
}

func TestExtractBodyFiltersBoilerplate(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body><article>
			<p>First real paragraph.</p>
			<p>Read more: our partner offer</p>
			<p>Second real paragraph.</p>
		</article></body></html>`))

	require.Equal(t, "First real paragraph.\n\nSecond real paragraph.", fields.Body)
}

func TestExtractBodyBroadFallbackSkipsChrome(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Long enough sentence to clear the broad threshold. ", 3)
	fields := New().Extract(page(`
		<html><body>
			<header><p>` + long + `</p></header>
			<nav><p>` + long + `</p></nav>
			<div><p>short</p><p>` + long + `</p></div>
		</body></html>`))

	require.NotEmpty(t, fields.Body)
	assert.Equal(t, 1, strings.Count(fields.Body, "Long enough")/3, "only the free-standing paragraph survives")
	assert.NotContains(t, fields.Body, "short")
}

func TestExtractPublishedFromTimeElement(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body><time>Published 3 July 2025 Updated</time></body></html>`))

	assert.Equal(t, "Published 3 July 2025 Updated", fields.PublishedRaw)
}

func TestExtractPublishedFromMetadataFallback(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><head>
			<meta property="article:published_time" content="2025-07-03 15:00:00">
		</head><body></body></html>`))

	assert.Equal(t, "2025-07-03 15:00:00", fields.PublishedRaw)
}

func TestExtractEndToEndSampleStory(t *testing.T) {
	t.Parallel()

	fields := New().Extract(page(`
		<html><body>
			<h1>Sample Story</h1>
			<article>
				<p>The first paragraph has five words plus.</p>
				<p>Read more</p>
				<p>And a second one follows.</p>
			</article>
		</body></html>`))

	assert.Equal(t, "Sample Story", fields.Title)
	require.Equal(t, "The first paragraph has five words plus.\n\nAnd a second one follows.", fields.Body)
	assert.Len(t, strings.Fields(fields.Body), 12)
}
