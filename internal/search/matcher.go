package search

import (
	"regexp"
	"strconv"

	"github.com/Belphemur/AnimeSub/internal/models"
)

// AggregateCap is the number of aggregated candidates after which no further
// strategies are issued.
const AggregateCap = 5

// Ordered season/episode recovery rules. First match wins; once both values
// are resolved scanning stops.
var (
	episodeRe = regexp.MustCompile(`(?i)(?:ep|episode)\s*(\d+)`)
	seasonRe  = regexp.MustCompile(`(?i)(?:season|s)\s*(\d+)|(\d+)(?:nd|rd|th)\s+season`)
	// implicitSeasonRe recovers the season from "Title 2 ep05"-style names
	// where the bare digit before the episode tag is the season marker.
	implicitSeasonRe = regexp.MustCompile(`(?i)\s(\d)\s+ep\d+`)
)

// Match filters candidates against the requested season and episode using
// the strict policy: a declared episode or season that differs from the
// target rejects the candidate. A candidate with no declared season is
// accepted when the target season is 1 ("no season marker" means season 1).
// When both targets are nil (movie lookup) the input is returned unfiltered.
func Match(candidates []models.SubtitleCandidate, season, episode *int) []models.SubtitleCandidate {
	if season == nil && episode == nil {
		return candidates
	}

	matched := make([]models.SubtitleCandidate, 0, len(candidates))
	for _, c := range candidates {
		if episode != nil && c.Episode != nil && *c.Episode != *episode {
			continue
		}
		if season != nil && c.Season != nil && *c.Season != *season {
			continue
		}
		matched = append(matched, c)
	}
	return matched
}

// IsExactMatch reports whether a candidate pins down the requested episode:
// its declared episode equals the target and the season either matches or is
// irrelevant (no target season, or target season 1 with the common unmarked
// first season).
func IsExactMatch(c models.SubtitleCandidate, season, episode *int) bool {
	if episode == nil || c.Episode == nil || *c.Episode != *episode {
		return false
	}
	if season == nil || *season == 1 {
		return true
	}
	return c.Season != nil && *c.Season == *season
}

// ParseEpisodeInfo recovers season and episode numbers from the free-text
// title variants of a search result. The variants are scanned in order
// (original, English, alternate); within each, the explicit episode rule,
// the explicit season rule, then the implicit "title N epNN" season rule are
// tried. Scanning stops as soon as both values are known.
func ParseEpisodeInfo(titleOrg, titleEng, titleAlt string) (season, episode *int) {
	for _, title := range []string{titleOrg, titleEng, titleAlt} {
		if title == "" {
			continue
		}

		if episode == nil {
			if m := episodeRe.FindStringSubmatch(title); m != nil {
				episode = atoiPtr(m[1])
			}
		}

		if season == nil {
			if m := seasonRe.FindStringSubmatch(title); m != nil {
				if m[1] != "" {
					season = atoiPtr(m[1])
				} else {
					season = atoiPtr(m[2])
				}
			}
		}

		if season == nil && episode != nil {
			if m := implicitSeasonRe.FindStringSubmatch(title); m != nil {
				season = atoiPtr(m[1])
			}
		}

		if season != nil && episode != nil {
			break
		}
	}
	return season, episode
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
