package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// maxToolOutput caps how much data is read back from the external tool.
// Subtitle files are tiny; anything near this size is not one.
const maxToolOutput = 10 << 20

// SevenZip invokes the system 7z binary for archives the in-process zip
// reader cannot decompress (e.g. LZMA-compressed zip entries). Every call is
// bounded by the configured timeout and an output-size cap so a wedged
// subprocess cannot stall the download pipeline.
type SevenZip struct {
	binary  string
	timeout time.Duration
}

// NewSevenZip returns a SevenZip runner for the given binary path.
func NewSevenZip(binary string, timeout time.Duration) *SevenZip {
	if binary == "" {
		binary = "7z"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SevenZip{binary: binary, timeout: timeout}
}

// ListEntries returns the entry names of the archive at path.
func (s *SevenZip) ListEntries(ctx context.Context, path string) ([]string, error) {
	out, err := s.run(ctx, "l", "-slt", path)
	if err != nil {
		return nil, fmt.Errorf("list archive entries: %w", err)
	}

	var entries []string
	for _, line := range strings.Split(string(out), "\n") {
		if name, ok := strings.CutPrefix(line, "Path = "); ok {
			name = strings.TrimSpace(name)
			// The first Path block of -slt output is the archive itself.
			if name != "" && name != path {
				entries = append(entries, name)
			}
		}
	}
	return entries, nil
}

// ExtractEntry extracts a single named entry to memory via stdout.
func (s *SevenZip) ExtractEntry(ctx context.Context, path, entry string) ([]byte, error) {
	out, err := s.run(ctx, "e", "-so", path, entry)
	if err != nil {
		return nil, fmt.Errorf("extract entry %q: %w", entry, err)
	}
	return out, nil
}

// run executes the binary with the given arguments under the configured
// timeout, returning captured stdout capped at maxToolOutput.
func (s *SevenZip) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", s.binary, err)
	}

	out, readErr := io.ReadAll(io.LimitReader(stdout, maxToolOutput+1))
	waitErr := cmd.Wait()

	if readErr != nil {
		return nil, fmt.Errorf("read %s output: %w", s.binary, readErr)
	}
	if len(out) > maxToolOutput {
		return nil, fmt.Errorf("%s output exceeded %d bytes", s.binary, maxToolOutput)
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", s.binary, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w (stderr: %s)", s.binary, waitErr, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
