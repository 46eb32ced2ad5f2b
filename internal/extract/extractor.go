// Package extract maps raw page markup to best-effort field values using
// ordered fallback strategy chains. Page structure drift is expected, so
// a missing field degrades to a placeholder instead of failing the page.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsmill/blog-ingest/internal/article"
)

// Placeholders used when every strategy for a field comes up empty.
const (
	UnknownAuthor = "Unknown Author"
	UnknownTitle  = "Unknown Title"
)

// TopicDelimiter joins topic elements into the raw pipe-delimited form
// the normalizer expects.
const TopicDelimiter = "|"

// paragraphSeparator joins surviving body paragraphs with a blank line.
const paragraphSeparator = "\n\n"

// broadMinParagraphLen is the minimum paragraph length (in characters)
// for the broad body strategy, which would otherwise pick up incidental
// short strings from anywhere on the page.
const broadMinParagraphLen = 80

// boilerplatePhrases marks promotional/navigation paragraphs that are
// discarded from body content.
var boilerplatePhrases = []string{"Read more", "Review", "Subscribe", "Donate"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Strategy is one lookup rule over parsed markup. Strategies for a field
// are evaluated in order; the first non-empty result wins.
type Strategy struct {
	Name   string
	Select func(doc *goquery.Document) string
}

// Strategy order per field. Lower index wins even when a later strategy
// would also succeed.
var (
	authorStrategies = []Strategy{
		{Name: "author-name class", Select: textOf(".author-name")},
		{Name: "byline class", Select: textOf("[class*=byline]")},
		{Name: "author class", Select: textOf("[class*=author]")},
	}

	titleStrategies = []Strategy{
		{Name: "lede strong", Select: textOf("strong")},
		{Name: "h1 heading", Select: textOf("h1")},
		{Name: "title class", Select: textOf("[class*=title]")},
	}

	publishedStrategies = []Strategy{
		{Name: "time element", Select: textOf("time")},
		{Name: "article metadata", Select: attrOf(`meta[property="article:published_time"]`, "content")},
	}

	topicSelectors = []string{".topic-list-item", "[class*=topic]"}

	bodyStrategies = []bodyStrategy{
		{name: "article container", selector: "article p, article h2", minLen: 1},
		{name: "content class", selector: "[class*=content] p", minLen: 1},
		{name: "any paragraph", selector: "p", minLen: broadMinParagraphLen, skipLandmarks: true},
	}
)

type bodyStrategy struct {
	name          string
	selector      string
	minLen        int
	skipLandmarks bool
}

// Extractor turns raw pages into field sets. It is a pure function of
// the markup and never fails: absence is a placeholder, not an error.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract produces the best-effort field values for one page.
func (e *Extractor) Extract(page article.RawPage) article.Fields {
	fields := article.Fields{
		Author:     UnknownAuthor,
		Title:      UnknownTitle,
		Section:    page.Section,
		URL:        page.URL,
		SourceFile: page.SourceFile,
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		// Unparseable markup degrades to placeholders like any other miss.
		return fields
	}

	if v := firstMatch(doc, authorStrategies); v != "" {
		fields.Author = v
	}
	if v := firstMatch(doc, titleStrategies); v != "" {
		fields.Title = v
	}
	fields.PublishedRaw = firstMatch(doc, publishedStrategies)
	fields.TopicsRaw = extractTopics(doc)
	fields.Body = extractBody(doc)

	return fields
}

func firstMatch(doc *goquery.Document, strategies []Strategy) string {
	for _, s := range strategies {
		if v := normalizeSpace(s.Select(doc)); v != "" {
			return v
		}
	}
	return ""
}

// extractTopics concatenates every element found under the first selector
// that yields any matches, each stripped of markup and whitespace.
func extractTopics(doc *goquery.Document) string {
	for _, sel := range topicSelectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		var topics []string
		nodes.Each(func(_ int, s *goquery.Selection) {
			if t := normalizeSpace(s.Text()); t != "" {
				topics = append(topics, t)
			}
		})
		return strings.Join(topics, TopicDelimiter)
	}
	return ""
}

// extractBody tries each content-block strategy in order and, within the
// winning strategy, filters out boilerplate and under-length paragraphs.
func extractBody(doc *goquery.Document) string {
	for _, bs := range bodyStrategies {
		var paragraphs []string
		doc.Find(bs.selector).Each(func(_ int, s *goquery.Selection) {
			if bs.skipLandmarks && s.ParentsFiltered("header, footer, nav, aside").Length() > 0 {
				return
			}
			text := normalizeSpace(s.Text())
			if len([]rune(text)) < bs.minLen || isBoilerplate(text) {
				return
			}
			paragraphs = append(paragraphs, text)
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, paragraphSeparator)
		}
	}
	return ""
}

func isBoilerplate(text string) bool {
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func textOf(selector string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		return doc.Find(selector).First().Text()
	}
}

func attrOf(selector, attr string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(selector).First().Attr(attr)
		return v
	}
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
