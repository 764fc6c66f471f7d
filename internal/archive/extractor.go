package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/Belphemur/AnimeSub/internal/apperrors"
	"github.com/Belphemur/AnimeSub/internal/config"
)

// subtitleEntryRe matches archive entry names that look like subtitle files.
var subtitleEntryRe = regexp.MustCompile(`(?i)\.(txt|srt|ass|ssa|sub)$`)

// Result is the outcome of running a payload through the extractor.
type Result struct {
	Content   []byte
	Extension string // entry extension with leading dot; empty when not an archive
	Extracted bool   // false when the payload was passed through unchanged
}

// Extractor unwraps zip-packaged subtitle payloads. The primary path is the
// in-process zip reader; payloads it cannot decompress are handed to the
// external tool fallback, when one is configured.
type Extractor struct {
	fallback *SevenZip
}

// NewExtractor creates an Extractor. fallback may be nil, in which case
// unsupported compression methods are a hard failure.
func NewExtractor(fallback *SevenZip) *Extractor {
	return &Extractor{fallback: fallback}
}

// Extract returns the inner subtitle file of a zip payload, or the payload
// unchanged when it is not a zip archive. When neither the zip reader nor the
// fallback yields a subtitle-like entry the operation fails with
// ErrArchiveExtraction.
func (e *Extractor) Extract(ctx context.Context, payload []byte) (*Result, error) {
	if len(payload) < 2 || payload[0] != 'P' || payload[1] != 'K' {
		return &Result{Content: payload}, nil
	}

	logger := config.GetLogger()
	logger.Debug().Int("size", len(payload)).Msg("Payload is a zip archive, extracting")

	if res, err := e.extractWithZipReader(payload); err == nil {
		return res, nil
	} else {
		logger.Debug().Err(err).Msg("In-process zip extraction failed, trying external tool")
	}

	if e.fallback == nil {
		return nil, &apperrors.ErrArchiveExtraction{Reason: "zip reader failed and no external tool configured"}
	}

	res, err := e.extractWithTool(ctx, payload)
	if err != nil {
		logger.Warn().Err(err).Msg("External tool extraction failed")
		return nil, &apperrors.ErrArchiveExtraction{Reason: err.Error()}
	}
	return res, nil
}

// extractWithZipReader decompresses the first subtitle-like entry in memory.
// klauspost's flate is registered in place of the standard inflater.
func (e *Extractor) extractWithZipReader(payload []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, err
	}
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !subtitleEntryRe.MatchString(file.Name) {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if len(content) == 0 {
			continue
		}

		return &Result{
			Content:   content,
			Extension: strings.ToLower(filepath.Ext(file.Name)),
			Extracted: true,
		}, nil
	}

	return nil, &apperrors.ErrArchiveExtraction{Reason: "no subtitle entry in zip archive"}
}

// extractWithTool persists the archive to a scoped temporary file and uses
// the external tool to locate and extract the first subtitle-like entry.
// The temporary file is removed on every exit path.
func (e *Extractor) extractWithTool(ctx context.Context, payload []byte) (*Result, error) {
	tmp, err := os.CreateTemp("", "subtitle-*.zip")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	entries, err := e.fallback.ListEntries(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	var entry string
	for _, name := range entries {
		if subtitleEntryRe.MatchString(name) {
			entry = name
			break
		}
	}
	if entry == "" {
		return nil, &apperrors.ErrArchiveExtraction{Reason: "no subtitle entry in archive listing"}
	}

	content, err := e.fallback.ExtractEntry(ctx, tmpPath, entry)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, &apperrors.ErrArchiveExtraction{Reason: "external tool produced empty output"}
	}

	return &Result{
		Content:   content,
		Extension: strings.ToLower(filepath.Ext(entry)),
		Extracted: true,
	}, nil
}
