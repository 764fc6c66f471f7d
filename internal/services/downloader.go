package services

import (
	"context"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/AnimeSub/internal/archive"
	"github.com/Belphemur/AnimeSub/internal/client"
	"github.com/Belphemur/AnimeSub/internal/config"
	"github.com/Belphemur/AnimeSub/internal/metrics"
	"github.com/Belphemur/AnimeSub/internal/models"
	"github.com/Belphemur/AnimeSub/internal/subtitle"
	"github.com/Belphemur/AnimeSub/internal/textenc"
)

// knownExtensions are the format hints accepted from download URLs.
var knownExtensions = map[string]bool{
	"srt": true, "ass": true, "ssa": true, "txt": true, "sub": true, "vtt": true,
}

// DownloadService runs the download pipeline: fetch raw payload, unwrap
// archives, decode legacy encodings, normalize the document and optionally
// transcode to WebVTT. The steps are strictly sequential; the access-hash
// refresh inside the client must complete before the fetch that consumes it.
type DownloadService struct {
	client    client.Client
	extractor *archive.Extractor
}

// NewDownloadService creates a DownloadService.
func NewDownloadService(c client.Client, extractor *archive.Extractor) *DownloadService {
	return &DownloadService{client: c, extractor: extractor}
}

// Download produces the final player-safe subtitle buffer for a request.
// Unlike discovery, failures here are terminal and surfaced to the caller.
func (s *DownloadService) Download(ctx context.Context, req *models.DownloadRequest) (*models.OutputSubtitle, error) {
	logger := config.GetLogger()

	out, err := s.download(ctx, req)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		sentry.CaptureException(err)
		logger.Error().Err(err).Str("id", req.ID).Msg("Subtitle download failed")
		return nil, err
	}
	metrics.SubtitleDownloadsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return out, nil
}

func (s *DownloadService) download(ctx context.Context, req *models.DownloadRequest) (*models.OutputSubtitle, error) {
	logger := config.GetLogger()

	payload, err := s.client.DownloadRaw(ctx, req)
	if err != nil {
		return nil, err
	}

	extension := ".srt"
	if knownExtensions[req.FormatHint] {
		extension = "." + req.FormatHint
	}

	extracted, err := s.extractor.Extract(ctx, payload)
	if err != nil {
		return nil, err
	}
	content := extracted.Content
	if extracted.Extracted && extracted.Extension != "" {
		// The archive entry name is a better signal than the URL hint.
		extension = extracted.Extension
	}

	decoded := textenc.Detect(content)
	logger.Debug().
		Str("id", req.ID).
		Str("encoding", decoded.Encoding).
		Str("extension", extension).
		Msg("Subtitle payload decoded")

	text := decoded.Text
	switch extension {
	case ".ass", ".ssa":
		text = subtitle.Normalize(text)
	case ".srt":
		text = subtitle.NormalizeSRT(text)
	}

	if req.ConvertVTT && (extension == ".ass" || extension == ".ssa") {
		vtt, err := subtitle.Transcode(text)
		if err != nil {
			return nil, err
		}
		text = vtt
		extension = ".vtt"
	}

	// SRT and plain-text output carry a BOM so players stop guessing the
	// encoding; ASS/SSA must stay bare for libass, and WebVTT is always bare.
	withBOM := extension == ".srt" || extension == ".txt" || extension == ".sub"

	return &models.OutputSubtitle{
		Bytes:     subtitle.ToUTF8(text, withBOM),
		MimeType:  subtitle.MimeType(extension),
		Extension: extension,
	}, nil
}
