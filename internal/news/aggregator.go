// Package news aggregates headlines from a fallback chain of providers and
// applies the 70/30 preferred/general category split.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tunetools/tunetools-api/internal/cache"
	"github.com/tunetools/tunetools-api/internal/logger"
	"github.com/tunetools/tunetools-api/internal/models"
	"github.com/tunetools/tunetools-api/internal/provider"
)

// Article aliases the snapshot article type; providers fill Category with the
// query's leading category so the aggregator can tell preferred from general.
type Article = models.NewsArticle

const cacheTTL = time.Hour

// Aggregator fetches preferred-category and general news through one provider
// chain and merges them preferred-first.
type Aggregator struct {
	chain *provider.Chain[Query, []Article]
	cache *cache.TTL[[]Article]
}

// NewAggregator wires the chain from the configured API keys; providers
// without a key are left out of the chain entirely.
func NewAggregator(serpAPIKey, newsAPIKey, worldNewsAPIKey string) *Aggregator {
	var adapters []provider.Adapter[Query, []Article]
	if serpAPIKey != "" {
		adapters = append(adapters, NewSerpAPI(serpAPIKey))
	}
	if newsAPIKey != "" {
		adapters = append(adapters, NewNewsAPI(newsAPIKey))
	}
	if worldNewsAPIKey != "" {
		adapters = append(adapters, NewWorldNewsAPI(worldNewsAPIKey))
	}
	return NewAggregatorWithChain(provider.NewChain("news", adapters...))
}

// NewAggregatorWithChain injects an explicit chain, for tests
func NewAggregatorWithChain(chain *provider.Chain[Query, []Article]) *Aggregator {
	return &Aggregator{
		chain: chain,
		cache: cache.NewTTL[[]Article](cacheTTL),
	}
}

// Cache exposes the underlying cache, for tests
func (a *Aggregator) Cache() *cache.TTL[[]Article] { return a.cache }

// OnFailure forwards the fallback hook to the underlying chain
func (a *Aggregator) OnFailure(fn func(operation, adapter string)) {
	a.chain.OnFailure(fn)
}

// Fetch returns up to maxArticles articles: ceil(0.7·N) from the user's
// preferred categories when available, the remainder general, backfilling the
// preferred shortfall from general results. Preferred articles come first;
// within each group provider recency order is preserved. An exhausted chain
// is reported as an error; callers treat it as soft degradation.
func (a *Aggregator) Fetch(ctx context.Context, categories []string, location string, maxArticles int) ([]Article, error) {
	if maxArticles <= 0 {
		return nil, nil
	}

	key := cacheKey(categories, location, maxArticles)
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	preferredTarget := (maxArticles*7 + 9) / 10 // ceil(0.7 * N)
	generalTarget := maxArticles - preferredTarget

	var preferred []Article
	var failures []error

	if len(categories) > 0 {
		result, providerName, err := a.chain.Do(ctx, Query{
			Categories: categories,
			Location:   location,
			Count:      preferredTarget,
		})
		if err != nil {
			failures = append(failures, err)
		} else {
			preferred = result
			logger.Debug("preferred news fetched", logger.Fields{
				"provider": providerName,
				"count":    len(result),
			})
		}
	}

	// General fills its own 30% share plus any preferred shortfall
	generalCount := generalTarget + (preferredTarget - len(preferred))
	var general []Article
	if generalCount > 0 {
		result, providerName, err := a.chain.Do(ctx, Query{
			Location: location,
			Count:    generalCount,
		})
		if err != nil {
			failures = append(failures, err)
		} else {
			general = result
			logger.Debug("general news fetched", logger.Fields{
				"provider": providerName,
				"count":    len(result),
			})
		}
	}

	if len(preferred) == 0 && len(general) == 0 {
		if len(failures) > 0 {
			return nil, fmt.Errorf("news aggregation failed: %w", failures[0])
		}
		return nil, nil
	}

	combined := dedupe(append(preferred, general...))
	if len(combined) > maxArticles {
		combined = combined[:maxArticles]
	}

	a.cache.Set(key, combined)
	return combined, nil
}

func cacheKey(categories []string, location string, maxArticles int) string {
	sorted := make([]string, len(categories))
	copy(sorted, categories)
	sort.Strings(sorted)
	return fmt.Sprintf("%s:%s:%d", strings.Join(sorted, ","), location, maxArticles)
}

// dedupe removes articles whose normalized titles collide, keeping first
func dedupe(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	unique := make([]Article, 0, len(articles))
	for _, article := range articles {
		title := strings.ToLower(strings.TrimSpace(article.Title))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		unique = append(unique, article)
	}
	return unique
}
