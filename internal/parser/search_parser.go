package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/search"
)

// SearchParser implements the Parser interface for search result listings.
//
// Each result is a centered table.Napisy with three tr.KNap rows (original,
// English and alternate title plus metadata columns) followed by a tr.KKom
// row carrying the description and the POST download form with the subtitle
// id and session hash.
type SearchParser struct{}

// NewSearchParser creates a new search result parser instance
func NewSearchParser() *SearchParser {
	return &SearchParser{}
}

// ParseHtml implements the Parser[models.SubtitleCandidate] interface
func (p *SearchParser) ParseHtml(body io.Reader) ([]models.SubtitleCandidate, error) {
	logger := config.GetLogger()

	utf8Body, err := NewSiteReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to build charset reader: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse HTML document")
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var candidates []models.SubtitleCandidate

	doc.Find(`table.Napisy[style*="text-align:center"]`).Each(func(i int, table *goquery.Selection) {
		candidate := p.extractCandidateFromTable(table)
		if candidate != nil {
			candidates = append(candidates, *candidate)
			logger.Debug().
				Str("id", candidate.ID).
				Str("title", candidate.TitleOrg).
				Int("downloads", candidate.DownloadCount).
				Msg("Extracted subtitle candidate")
		}
	})

	logger.Debug().Int("total_candidates", len(candidates)).Msg("Completed search result parsing")
	return candidates, nil
}

// extractCandidateFromTable extracts one candidate from a result table.
// Tables without the full three-row layout or without a complete download
// form are skipped.
func (p *SearchParser) extractCandidateFromTable(table *goquery.Selection) *models.SubtitleCandidate {
	rows := table.Find("tr.KNap")
	if rows.Length() < 3 {
		return nil
	}

	// Row 1: original title | - | - | subtitle format
	row1Cells := rows.Eq(0).Find("td")
	titleOrg := strings.TrimSpace(row1Cells.Eq(0).Text())
	formatHint := strings.TrimSpace(row1Cells.Eq(3).Text())

	// Row 2: English title | author
	row2Cells := rows.Eq(1).Find("td")
	titleEng := strings.TrimSpace(row2Cells.Eq(0).Text())
	author := strings.TrimSpace(row2Cells.Eq(1).Find("a").Text())
	if author == "" {
		author = strings.TrimPrefix(strings.TrimSpace(row2Cells.Eq(1).Text()), "~")
	}

	// Row 3: alternate title | - | - | download count ("1234 razy")
	row3Cells := rows.Eq(2).Find("td")
	titleAlt := strings.TrimSpace(row3Cells.Eq(0).Text())
	downloadCount := 0
	if row3Cells.Length() > 3 {
		countText := strings.TrimSpace(row3Cells.Eq(3).Text())
		if fields := strings.Fields(countText); len(fields) > 0 {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				downloadCount = n
			}
		}
	}

	downloadRow := table.Find("tr.KKom")
	form := downloadRow.Find(`form[method="POST"]`)
	subtitleID, _ := form.Find(`input[name="id"]`).Attr("value")
	downloadHash, _ := form.Find(`input[name="sh"]`).Attr("value")
	description := strings.TrimSpace(downloadRow.Find(`td.KNap[align="left"]`).Text())

	if subtitleID == "" || downloadHash == "" {
		return nil
	}

	season, episode := search.ParseEpisodeInfo(titleOrg, titleEng, titleAlt)

	return &models.SubtitleCandidate{
		ID:            subtitleID,
		Hash:          downloadHash,
		TitleOrg:      titleOrg,
		TitleEng:      titleEng,
		TitleAlt:      titleAlt,
		Author:        author,
		FormatHint:    formatHint,
		DownloadCount: downloadCount,
		Description:   description,
		Season:        season,
		Episode:       episode,
	}
}
