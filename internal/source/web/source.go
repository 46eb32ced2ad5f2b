// Package web implements a Colly-backed page source that walks section
// listing pages and fetches the articles they link to.
package web

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/article"
)

// Config controls the crawl surface and politeness settings.
type Config struct {
	BaseURL        string
	Sections       []string
	AllowedDomains []string
	UserAgent      string
	MaxPerSection  int
	Parallelism    int
	Delay          time.Duration
}

// Source fetches article pages section by section.
type Source struct {
	cfg    Config
	clock  article.Clock
	logger *zap.Logger
}

// New creates a Source.
func New(cfg Config, clock article.Clock, logger *zap.Logger) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if len(cfg.Sections) == 0 {
		return nil, fmt.Errorf("at least one section is required")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	return &Source{cfg: cfg, clock: clock, logger: logger}, nil
}

const (
	ctxKeySection = "section"
	ctxKeyKind    = "kind"

	kindListing = "listing"
	kindArticle = "article"
)

// Run visits every configured section listing, follows the article links it
// finds and emits each fetched article page. emit may be called from
// multiple goroutines.
func (s *Source) Run(ctx context.Context, emit func(article.RawPage)) error {
	collector := colly.NewCollector(colly.Async(true))
	collector.AllowedDomains = s.cfg.AllowedDomains
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.cfg.Parallelism,
		Delay:       s.cfg.Delay,
	}); err != nil {
		return fmt.Errorf("configure limit rule: %w", err)
	}

	var mu sync.Mutex
	visited := map[string]int{}

	collector.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if e.Request.Ctx.Get(ctxKeyKind) != kindListing {
			return
		}
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if !looksLikeArticleLink(link) {
			return
		}
		section := e.Request.Ctx.Get(ctxKeySection)

		mu.Lock()
		if s.cfg.MaxPerSection > 0 && visited[section] >= s.cfg.MaxPerSection {
			mu.Unlock()
			return
		}
		visited[section]++
		mu.Unlock()

		reqCtx := colly.NewContext()
		reqCtx.Put(ctxKeySection, section)
		reqCtx.Put(ctxKeyKind, kindArticle)
		if err := collector.Request("GET", link, nil, reqCtx, nil); err != nil {
			s.logger.Debug("skip article link",
				zap.String("url", link),
				zap.Error(err))
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		if r.Ctx.Get(ctxKeyKind) != kindArticle {
			return
		}
		body := make([]byte, len(r.Body))
		copy(body, r.Body)
		emit(article.RawPage{
			URL:       r.Request.URL.String(),
			Section:   r.Ctx.Get(ctxKeySection),
			HTML:      body,
			FetchedAt: s.clock.Now(),
		})
	})

	collector.OnError(func(r *colly.Response, err error) {
		s.logger.Warn("fetch failed",
			zap.String("url", r.Request.URL.String()),
			zap.Error(err))
	})

	for _, section := range s.cfg.Sections {
		reqCtx := colly.NewContext()
		reqCtx.Put(ctxKeySection, section)
		reqCtx.Put(ctxKeyKind, kindListing)
		url := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + section
		if err := collector.Request("GET", url, nil, reqCtx, nil); err != nil {
			s.logger.Warn("visit section failed",
				zap.String("section", section),
				zap.Error(err))
		}
	}

	collector.Wait()
	return ctx.Err()
}

// looksLikeArticleLink filters listing links down to article permalinks.
// Article slugs are hyphenated titles, so require at least two hyphens in
// the last path segment.
func looksLikeArticleLink(link string) bool {
	if link == "" {
		return false
	}
	trimmed := strings.TrimRight(link, "/")
	slash := strings.LastIndex(trimmed, "/")
	if slash < 0 {
		return false
	}
	slug := trimmed[slash+1:]
	return strings.Count(slug, "-") >= 2
}
