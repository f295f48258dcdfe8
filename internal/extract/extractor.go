// Package extract fetches product pages and turns them into flat text
// records, consulting and populating the content cache.
package extract

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/DonatoReis/lynx/internal/store"
)

const (
	// DefaultTitleSelector matches product title headings.
	DefaultTitleSelector = "h1.c-dark.title-big.mb-0"
	// DefaultDescSelector matches product description blocks.
	DefaultDescSelector = "article.product-text"
)

// Fingerprint returns the cache key for a URL. Keys are md5 hex digests so
// caches written by earlier releases remain addressable.
func Fingerprint(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Config tunes the extractor.
type Config struct {
	Timeout       time.Duration
	RatePerSec    float64
	TitleSelector string
	DescSelector  string
}

// Extractor fetches URLs and extracts "<title>: <description>" records.
type Extractor struct {
	client   *http.Client
	store    store.Store
	limiter  *rate.Limiter
	titleSel string
	descSel  string
}

// New creates an Extractor writing through to st.
func New(st store.Store, cfg Config) *Extractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	titleSel := cfg.TitleSelector
	if titleSel == "" {
		titleSel = DefaultTitleSelector
	}
	descSel := cfg.DescSelector
	if descSel == "" {
		descSel = DefaultDescSelector
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		store:    st,
		limiter:  rate.NewLimiter(limit, 1),
		titleSel: titleSel,
		descSel:  descSel,
	}
}

// Extract returns the product records for one URL. The pre-loaded cache
// snapshot short-circuits the network entirely on a hit. Fetch and parse
// failures are logged and yield an empty result; they never fail the run.
func (e *Extractor) Extract(ctx context.Context, url string, snapshot map[string]store.Entry) []string {
	key := Fingerprint(url)
	if entry, ok := snapshot[key]; ok {
		zap.L().Info("products loaded from cache",
			zap.String("url", url),
			zap.Int("products", len(entry.Data)),
		)
		return entry.Data
	}

	if err := e.limiter.Wait(ctx); err != nil {
		zap.L().Error("fetch canceled", zap.String("url", url), zap.Error(err))
		return nil
	}

	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		zap.L().Error("failed to fetch page", zap.String("url", url), zap.Error(err))
		return nil
	}

	products := e.pairRecords(doc)

	if err := e.store.Put(ctx, key, products); err != nil {
		zap.L().Warn("failed to cache products", zap.String("url", url), zap.Error(err))
	}
	zap.L().Info("products extracted and cached",
		zap.String("url", url),
		zap.Int("products", len(products)),
	)
	return products
}

// ExtractAll runs Extract for every URL concurrently. The aggregated list
// preserves input order, not completion order.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string, snapshot map[string]store.Entry) []string {
	results := make([][]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			results[i] = e.Extract(gctx, url, snapshot)
			return nil
		})
	}
	// Extract never returns an error; Wait only joins the goroutines.
	_ = g.Wait()

	var all []string
	for _, products := range results {
		all = append(all, products...)
	}
	return all
}

func (e *Extractor) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LynxAssistant/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// pairRecords pairs title and description elements positionally. A count
// mismatch truncates to the shorter collection.
func (e *Extractor) pairRecords(doc *goquery.Document) []string {
	titles := doc.Find(e.titleSel)
	descs := doc.Find(e.descSel)

	n := titles.Length()
	if descs.Length() < n {
		n = descs.Length()
	}

	products := make([]string, 0, n)
	for i := 0; i < n; i++ {
		title := strings.TrimSpace(titles.Eq(i).Text())
		desc := strings.TrimSpace(descs.Eq(i).Text())
		products = append(products, title+": "+desc)
	}
	return products
}
