package services

import (
	"context"
	"sort"
	"time"

	"github.com/Belphemur/AnimeSub/internal/client"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/metadata"
	"github.com/Belphemur/AnimeSub/internal/metrics"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/search"
)

// maxResults caps how many ranked candidates a discovery request returns.
const maxResults = 10

// DiscoveryService resolves a content id to a ranked list of subtitle
// candidates. Discovery is best-effort: any internal failure (metadata miss,
// search timeout, no matches) degrades to an empty list, never an error.
type DiscoveryService struct {
	client          client.Client
	resolver        *metadata.Resolver
	strategyTimeout time.Duration
	deadline        time.Duration
}

// NewDiscoveryService creates a DiscoveryService with the given per-strategy
// timeout and overall request deadline.
func NewDiscoveryService(c client.Client, resolver *metadata.Resolver, strategyTimeout, deadline time.Duration) *DiscoveryService {
	if strategyTimeout <= 0 {
		strategyTimeout = 5 * time.Second
	}
	if deadline <= 0 {
		deadline = 8 * time.Second
	}
	return &DiscoveryService{
		client:          c,
		resolver:        resolver,
		strategyTimeout: strategyTimeout,
		deadline:        deadline,
	}
}

// strategyResult is one strategy's outcome, delivered on a buffered channel
// so abandoned strategies never block their goroutine.
type strategyResult struct {
	candidates []models.SubtitleCandidate
	err        error
}

// Discover returns ranked subtitle candidates for a content id.
//
// All planned strategies are launched concurrently, each bounded by its own
// timeout under the shared discovery deadline. Results are consumed in
// strategy order (most specific first) so aggregation is deterministic:
// candidates are deduped by id, and consumption stops early once an exact
// episode match is seen or the aggregate reaches the cap. Later strategies
// are cancelled and their results discarded.
func (s *DiscoveryService) Discover(ctx context.Context, contentType, contentID string) []models.MatchedCandidate {
	logger := config.GetLogger()

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	info, err := s.resolver.Resolve(ctx, contentType, contentID)
	if err != nil {
		logger.Warn().Err(err).Str("content_id", contentID).Msg("Metadata resolution failed")
		metrics.DiscoveryRequestsTotal.WithLabelValues(metrics.OutcomeMetaMiss).Inc()
		return nil
	}

	strategies := search.PlanStrategies(info.Title, info.Season, info.Episode)
	logger.Info().
		Str("title", info.Title).
		Str("content_id", contentID).
		Int("strategies", len(strategies)).
		Msg("Starting subtitle discovery")

	results := make([]chan strategyResult, len(strategies))
	for i, strat := range strategies {
		results[i] = make(chan strategyResult, 1)
		metrics.SearchStrategiesTotal.Inc()
		go func(strat models.SearchStrategy, out chan<- strategyResult) {
			strategyCtx, strategyCancel := context.WithTimeout(ctx, s.strategyTimeout)
			defer strategyCancel()
			candidates, err := s.client.Search(strategyCtx, strat.Query, strat.Variant)
			out <- strategyResult{candidates: candidates, err: err}
		}(strat, results[i])
	}

	var aggregated []models.MatchedCandidate
	seen := make(map[string]struct{})

consume:
	for i, strat := range strategies {
		var res strategyResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			logger.Warn().Str("content_id", contentID).Msg("Discovery deadline reached")
			break consume
		}

		if res.err != nil {
			// A failed or timed-out strategy is empty, not fatal.
			logger.Debug().Err(res.err).Str("query", strat.Query).Msg("Search strategy failed")
			continue
		}

		matched := search.Match(res.candidates, info.Season, info.Episode)
		exact := false
		for _, c := range matched {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			aggregated = append(aggregated, models.MatchedCandidate{
				SubtitleCandidate: c,
				Query:             strat.Query,
				Variant:           strat.Variant,
			})
			if search.IsExactMatch(c, info.Season, info.Episode) {
				exact = true
			}
		}

		if exact {
			logger.Debug().Str("query", strat.Query).Msg("Exact episode match, stopping strategy consumption")
			break
		}
		if len(aggregated) >= search.AggregateCap {
			break
		}
	}
	cancel()

	sort.SliceStable(aggregated, func(i, j int) bool {
		return aggregated[i].DownloadCount > aggregated[j].DownloadCount
	})
	if len(aggregated) > maxResults {
		aggregated = aggregated[:maxResults]
	}

	if len(aggregated) == 0 {
		metrics.DiscoveryRequestsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
	} else {
		metrics.DiscoveryRequestsTotal.WithLabelValues(metrics.OutcomeFound).Inc()
	}

	logger.Info().
		Str("content_id", contentID).
		Int("candidates", len(aggregated)).
		Msg("Discovery completed")
	return aggregated
}
