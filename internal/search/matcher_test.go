package search

import (
	"testing"

	"github.com/Belphemur/AnimeSub/internal/models"
)

func candidate(id string, season, episode *int, downloads int) models.SubtitleCandidate {
	return models.SubtitleCandidate{
		ID:            id,
		Season:        season,
		Episode:       episode,
		DownloadCount: downloads,
	}
}

func TestMatch_MovieLookupPassesThrough(t *testing.T) {
	t.Parallel()

	candidates := []models.SubtitleCandidate{
		candidate("1", nil, nil, 10),
		candidate("2", intPtr(3), intPtr(7), 20),
	}

	matched := Match(candidates, nil, nil)
	if len(matched) != 2 {
		t.Fatalf("Expected all candidates to pass through, got %d", len(matched))
	}
}

func TestMatch_StrictFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cand    models.SubtitleCandidate
		season  *int
		episode *int
		want    bool
	}{
		{"episode matches", candidate("a", nil, intPtr(5), 0), intPtr(1), intPtr(5), true},
		{"episode differs", candidate("a", nil, intPtr(6), 0), intPtr(1), intPtr(5), false},
		{"season differs", candidate("a", intPtr(3), intPtr(5), 0), intPtr(2), intPtr(5), false},
		{"season matches", candidate("a", intPtr(2), intPtr(5), 0), intPtr(2), intPtr(5), true},
		{"no declared markers accepted", candidate("a", nil, nil, 0), intPtr(1), intPtr(5), true},
		{"undeclared season accepted for season 1", candidate("a", nil, intPtr(5), 0), intPtr(1), intPtr(5), true},
		{"undeclared season accepted for later seasons too", candidate("a", nil, intPtr(5), 0), intPtr(3), intPtr(5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			matched := Match([]models.SubtitleCandidate{tt.cand}, tt.season, tt.episode)
			got := len(matched) == 1
			if got != tt.want {
				t.Errorf("Expected kept=%v, got kept=%v", tt.want, got)
			}
		})
	}
}

func TestIsExactMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cand    models.SubtitleCandidate
		season  *int
		episode *int
		want    bool
	}{
		{"episode equal season 1", candidate("a", nil, intPtr(5), 0), intPtr(1), intPtr(5), true},
		{"episode equal no target season", candidate("a", nil, intPtr(5), 0), nil, intPtr(5), true},
		{"episode equal declared season equal", candidate("a", intPtr(2), intPtr(5), 0), intPtr(2), intPtr(5), true},
		{"episode equal but season undeclared for season 2", candidate("a", nil, intPtr(5), 0), intPtr(2), intPtr(5), false},
		{"episode differs", candidate("a", nil, intPtr(6), 0), intPtr(1), intPtr(5), false},
		{"candidate has no episode", candidate("a", nil, nil, 0), intPtr(1), intPtr(5), false},
		{"no target episode", candidate("a", nil, intPtr(5), 0), intPtr(1), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsExactMatch(tt.cand, tt.season, tt.episode); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseEpisodeInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		org         string
		eng         string
		alt         string
		wantSeason  *int
		wantEpisode *int
	}{
		{
			name: "nothing recoverable",
			org:  "Akira", eng: "Akira",
		},
		{
			name: "explicit ep tag",
			org:  "Frieren ep05",
			wantEpisode: intPtr(5),
		},
		{
			name: "episode keyword",
			org:  "Frieren Episode 12",
			wantEpisode: intPtr(12),
		},
		{
			name: "explicit season",
			org:  "Mushoku Tensei Season 2 ep07",
			wantSeason:  intPtr(2),
			wantEpisode: intPtr(7),
		},
		{
			name: "ordinal season",
			org:  "Yahari Ore no Seishun 2nd Season ep03",
			wantSeason:  intPtr(2),
			wantEpisode: intPtr(3),
		},
		{
			name: "implicit season digit before ep tag",
			org:  "Overlord 3 ep09",
			wantSeason:  intPtr(3),
			wantEpisode: intPtr(9),
		},
		{
			name: "falls through to english title",
			org:  "Kaguya-sama wa Kokurasetai",
			eng:  "Kaguya-sama: Love is War Season 3 ep01",
			wantSeason:  intPtr(3),
			wantEpisode: intPtr(1),
		},
		{
			name: "falls through to alternate title",
			org:  "SNK", eng: "AoT",
			alt:  "Attack on Titan ep22",
			wantEpisode: intPtr(22),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			season, episode := ParseEpisodeInfo(tt.org, tt.eng, tt.alt)
			assertIntPtr(t, "season", season, tt.wantSeason)
			assertIntPtr(t, "episode", episode, tt.wantEpisode)
		})
	}
}

func assertIntPtr(t *testing.T, field string, got, want *int) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("Expected %s nil, got %d", field, *got)
	case want != nil && got == nil:
		t.Errorf("Expected %s %d, got nil", field, *want)
	case want != nil && got != nil && *want != *got:
		t.Errorf("Expected %s %d, got %d", field, *want, *got)
	}
}
