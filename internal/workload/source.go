package workload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	maxSourceBytes     int64 = 5 << 20
	sourceFetchTimeout       = 30 * time.Second
)

// Source holds roster or compose content together with its content digest,
// so logs can record exactly which revision the supervisor is running.
type Source struct {
	Body   []byte
	Digest string
}

// LoadSource reads roster content from a local path or an http(s) URL.
func LoadSource(ctx context.Context, ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, errors.New("source reference is empty")
	}

	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		body, err = fetchHTTP(ctx, ref)
	} else {
		body, err = os.ReadFile(ref)
	}
	if err != nil {
		return Source{}, err
	}
	if len(body) == 0 {
		return Source{}, fmt.Errorf("source %s is empty", ref)
	}
	if int64(len(body)) > maxSourceBytes {
		return Source{}, fmt.Errorf("source %s exceeds %d bytes", ref, maxSourceBytes)
	}

	sum := sha256.Sum256(body)
	return Source{Body: body, Digest: hex.EncodeToString(sum[:])}, nil
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, sourceFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	limited := io.LimitReader(resp.Body, maxSourceBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return body, nil
}
