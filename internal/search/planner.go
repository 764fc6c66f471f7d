package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Belphemur/AnimeSub/internal/models"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// PlanStrategies turns a resolved title and optional season/episode into an
// ordered list of search queries, most specific first. Duplicates by
// (variant, query) are suppressed.
//
// Season-and-episode-qualified queries go first because they produce fewer,
// more relevant results; the bare title in both variants is always emitted
// last as the maximum-recall fallback.
func PlanStrategies(title string, season, episode *int) []models.SearchStrategy {
	cleanTitle := normalizeTitle(title)

	var strategies []models.SearchStrategy
	seen := make(map[string]struct{})
	add := func(variant models.TitleVariant, query string) {
		key := string(variant) + ":" + query
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		strategies = append(strategies, models.SearchStrategy{Query: query, Variant: variant})
	}

	multiSeason := season != nil && *season > 1

	if episode != nil {
		epTag := fmt.Sprintf("ep%02d", *episode)

		if multiSeason {
			add(models.VariantEnglish, fmt.Sprintf("%s Season %d %s", cleanTitle, *season, epTag))
		}
		add(models.VariantOriginal, cleanTitle+" "+epTag)
		add(models.VariantEnglish, cleanTitle+" "+epTag)
		if multiSeason {
			add(models.VariantEnglish, fmt.Sprintf("%s Season %d", cleanTitle, *season))
		}
	}

	add(models.VariantOriginal, cleanTitle)
	add(models.VariantEnglish, cleanTitle)

	return strategies
}

// normalizeTitle collapses hyphens and whitespace runs into single spaces.
// The site's search treats hyphenated and spaced titles differently; spaced
// queries match both.
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "-", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(title, " "))
}
