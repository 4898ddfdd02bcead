// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/cache"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/models"
)

// Request asks for one page of recommendations.
type Request struct {
	// Interests are category IDs. Nil or empty skips the personalized tier.
	Interests []string
	// PageSize must be at least 1; larger values are clamped to the
	// configured maximum.
	PageSize int
}

// Response is one page of recommendations.
type Response struct {
	// Tier names the strategy that produced Posts.
	Tier     string
	Posts    []*models.Post
	CacheHit bool
}

// clone copies the response and every post so cached entries never share
// memory with callers.
func (r *Response) clone() *Response {
	c := &Response{Tier: r.Tier, CacheHit: r.CacheHit, Posts: make([]*models.Post, len(r.Posts))}
	for i, p := range r.Posts {
		c.Posts[i] = p.Clone()
	}
	return c
}

// Engine walks the strategy chain. It is safe for concurrent use.
type Engine struct {
	config     *Config
	source     PostSource
	strategies []Strategy
	cache      *cache.LRU[*Response]
	logger     zerolog.Logger
}

// NewEngine creates an engine with the default strategy chain.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(src PostSource, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	return NewEngineWithStrategies(src, cfg, DefaultStrategies(), logger)
}

// NewEngineWithStrategies creates an engine with a custom chain.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngineWithStrategies(src PostSource, cfg *Config, strategies []Strategy, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("post source is required")
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}

	e := &Engine{
		config:     cfg,
		source:     src,
		strategies: strategies,
		logger:     logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[*Response](cfg.Cache.Size, cfg.Cache.TTL)
	}
	return e, nil
}

// DefaultPageSize is the page size for callers that do not choose one.
func (e *Engine) DefaultPageSize() int {
	return e.config.Limits.DefaultPageSize
}

// Recommend returns the first non-empty tier. It fails with Validation when
// PageSize < 1 and NotFound when every tier is empty.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	const op = "recommend.Recommend"
	start := time.Now()

	if req.PageSize < 1 {
		return nil, models.Invalid(op, "page size must be at least 1")
	}
	if req.PageSize > e.config.Limits.MaxPageSize {
		req.PageSize = e.config.Limits.MaxPageSize
	}

	key := cacheKey(req)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			metrics.RecommendCacheHits.Inc()
			metrics.RecordRecommendation(cached.Tier, time.Since(start))
			resp := cached.clone()
			resp.CacheHit = true
			return resp, nil
		}
		metrics.RecommendCacheMisses.Inc()
	}

	log := logging.Ctx(ctx)
	for _, s := range e.strategies {
		posts, err := s.Recommend(ctx, e.source, req)
		if err != nil {
			log.Error().Err(err).Str("tier", s.Name()).Msg("Recommendation strategy failed")
			return nil, models.Wrap(op, err)
		}
		if len(posts) == 0 {
			log.Debug().Str("tier", s.Name()).Msg("Tier empty, falling back")
			continue
		}
		if len(posts) > req.PageSize {
			posts = posts[:req.PageSize]
		}

		resp := &Response{Tier: s.Name(), Posts: posts}
		if e.cache != nil {
			e.cache.Add(key, resp.clone())
		}
		metrics.RecordRecommendation(resp.Tier, time.Since(start))
		log.Debug().Str("tier", resp.Tier).Int("posts", len(posts)).Msg("Recommendations served")
		return resp, nil
	}

	metrics.RecordRecommendation("", time.Since(start))
	return nil, &models.Error{Kind: models.KindNotFound, Op: op, Message: "no content available"}
}

// cacheKey is the sorted, de-duplicated interests plus the clamped page size.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKey(req Request) string {
	var b strings.Builder
	b.WriteString(strings.Join(models.NewIDSet(req.Interests...).Sorted(), ","))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(req.PageSize))
	return b.String()
}
