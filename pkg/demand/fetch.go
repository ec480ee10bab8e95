package demand

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxDocumentBytes bounds a single feed download. Real feeds are a few KB.
const maxDocumentBytes = 4 << 20

var replacementChar = []byte("\uFFFD")

// Fetcher retrieves a text document and returns its decoded lines.
type Fetcher interface {
	FetchLines(ctx context.Context, url, encoding string) ([]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url, encoding string) ([]string, error)

func (f FetcherFunc) FetchLines(ctx context.Context, url, encoding string) ([]string, error) {
	return f(ctx, url, encoding)
}

// HTTPFetcher downloads feeds with a plain GET.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPFetcher returns a fetcher using client. A nil client gets a 30s
// timeout; a nil logger discards output.
func NewHTTPFetcher(client *http.Client, userAgent string, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPFetcher{client: client, userAgent: userAgent, logger: logger}
}

// FetchLines implements Fetcher.
func (f *HTTPFetcher) FetchLines(ctx context.Context, url, charset string) ([]string, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, maxDocumentBytes)
	}
	body, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", charset, err)
	}
	// Decoders substitute U+FFFD for bytes they cannot map.
	if bytes.Contains(body, replacementChar) && !bytes.Contains(raw, replacementChar) {
		return nil, fmt.Errorf("%w: body is not valid %s", ErrInvalidEncoding, charset)
	}

	lines := SplitLines(string(body))
	f.logger.Debug("fetched feed",
		"url", url,
		"encoding", charset,
		"lines", len(lines),
		"duration", time.Since(start),
	)
	return lines, nil
}

// SplitLines splits text on newlines, dropping carriage returns, a leading
// byte order mark and the empty element after a final newline.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "shift_jis", "shift-jis", "sjis", "windows-31j", "ms932":
		return japanese.ShiftJIS, nil
	case "euc-jp", "eucjp":
		return japanese.EUCJP, nil
	case "iso-2022-jp":
		return japanese.ISO2022JP, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
	return enc, nil
}
