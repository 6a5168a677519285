// Copyright 2026 orbanplatform contributors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrChecksumMismatch indicates a downloaded (or cached) file does not
// match its expected SHA-256 checksum.
var ErrChecksumMismatch = errors.New("checksum verification failed")

// RetryPolicy defines retry behavior for failed downloads.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy matches the "retried up to 3 times" download failure
// policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// Downloader fetches task resources (models, inputs) into a content-
// addressed cache directory, verifying SHA-256 checksums on both cache
// hits and fresh downloads.
type Downloader struct {
	client      *http.Client
	retryPolicy RetryPolicy
	cacheDir    string
	log         *logrus.Entry
}

// NewDownloader creates a downloader rooted at cacheDir.
func NewDownloader(cacheDir string, log *logrus.Entry) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: 300 * time.Second, // large model downloads
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retryPolicy: DefaultRetryPolicy(),
		cacheDir:    cacheDir,
		log:         log,
	}
}

// Fetch returns the local path to filename, downloading from url if the
// file is missing from the cache or fails checksum verification. Download
// failures are retried per RetryPolicy; a checksum mismatch after download
// is non-retriable and returned as ErrChecksumMismatch.
func (d *Downloader) Fetch(
	ctx context.Context,
	url, filename, expectedChecksum string,
) (string, error) {
	path := filepath.Join(d.cacheDir, filename)

	if ok, err := verifyChecksum(path, expectedChecksum); err == nil && ok {
		d.log.WithField("file", filename).Debug("cache hit")
		return path, nil
	} else if err == nil {
		// Present but stale/corrupt: remove and re-fetch.
		_ = os.Remove(path)
	}

	if err := d.downloadWithRetry(ctx, url, path); err != nil {
		return "", err
	}

	ok, err := verifyChecksum(path, expectedChecksum)
	if err != nil {
		return "", fmt.Errorf("checksum verification: %w", err)
	}
	if !ok {
		_ = os.Remove(path)
		return "", ErrChecksumMismatch
	}

	return path, nil
}

// downloadWithRetry performs the HTTP GET, retrying transient failures.
func (d *Downloader) downloadWithRetry(ctx context.Context, url, destPath string) error {
	var lastErr error
	for attempt := 0; attempt <= d.retryPolicy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := d.calculateBackoff(attempt)
			d.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
				"url":     url,
			}).Debug("retrying download")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := d.doDownload(ctx, url, destPath)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("download failed after %d attempts: %w",
		d.retryPolicy.MaxRetries+1, lastErr)
}

// doDownload performs a single HTTP GET into destPath.
func (d *Downloader) doDownload(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp := destPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}

	return os.Rename(tmp, destPath)
}

// calculateBackoff returns the delay for a retry attempt using exponential
// backoff. Delays are capped at MaxDelay.
func (d *Downloader) calculateBackoff(attempt int) time.Duration {
	delay := d.retryPolicy.BaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > d.retryPolicy.MaxDelay {
		delay = d.retryPolicy.MaxDelay
	}
	return delay
}

// verifyChecksum reports whether path exists and its SHA-256 hex digest
// equals expected. A missing file is not an error: (false, nil). An
// empty expected checksum means the caller has no expected digest
// (e.g. task inputs, which unlike models carry no SHA-256 in the
// payload) and verification is skipped: presence alone is sufficient.
func verifyChecksum(path, expected string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if expected == "" {
		return true, nil
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}

	got := hex.EncodeToString(h.Sum(nil))
	return bytes.Equal([]byte(got), []byte(expected)), nil
}
