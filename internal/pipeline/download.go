package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/smallnest/ringbuffer"

	apperrors "github.com/speechcore/whispersrv/internal/errors"
)

const downloadRingBufferSize = 256 * 1024

// byteLimitWriter aborts the copy with a PayloadTooLarge error the
// moment more than limit bytes have been written, instead of silently
// truncating (spec §6's upload size cap).
type byteLimitWriter struct {
	w     io.Writer
	n     int64
	limit int64
}

func (b *byteLimitWriter) Write(p []byte) (int, error) {
	b.n += int64(len(p))
	if b.n > b.limit {
		return 0, apperrors.New(fmt.Errorf("downloaded payload exceeds %d bytes", b.limit)).
			Category(apperrors.CategoryPayloadTooLarge).Build()
	}
	return b.w.Write(p)
}

// download streams srcURL to dstPath through a bounded ring buffer, so
// a slow disk never lets an unbounded amount of in-flight network data
// accumulate in memory, and enforces maxBytes as a hard cap (spec §5,
// §6). connectTimeout bounds only the request's header round-trip;
// overallCtx governs the whole streamed body.
func download(overallCtx context.Context, client *http.Client, srcURL, dstPath string, maxBytes int64, connectTimeout time.Duration) (int64, error) {
	reqCtx, cancel := context.WithCancel(overallCtx)
	defer cancel()
	connectTimer := time.AfterFunc(connectTimeout, cancel)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srcURL, nil)
	if err != nil {
		connectTimer.Stop()
		return 0, apperrors.New(fmt.Errorf("building download request: %w", err)).
			Category(apperrors.CategoryDownloadError).Build()
	}

	resp, err := client.Do(req)
	connectTimer.Stop()
	if err != nil {
		return 0, apperrors.New(fmt.Errorf("downloading %s: %w", srcURL, err)).
			Category(apperrors.CategoryDownloadError).Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, apperrors.New(fmt.Errorf("source returned status %d", resp.StatusCode)).
			Category(apperrors.CategoryDownloadError).
			Context("status_code", resp.StatusCode).Build()
	}

	file, err := os.Create(dstPath)
	if err != nil {
		return 0, apperrors.New(fmt.Errorf("creating download destination: %w", err)).
			Category(apperrors.CategoryTransientStorage).Build()
	}
	defer file.Close()

	rb := ringbuffer.New(downloadRingBufferSize).SetBlocking(true)
	counted := &byteLimitWriter{w: file, limit: maxBytes}

	readErrCh := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(rb, resp.Body)
		_ = rb.CloseWriter()
		readErrCh <- copyErr
	}()

	written, writeErr := io.Copy(counted, rb)
	if writeErr != nil {
		// Unblock the reader goroutine: stop the body and drain what it
		// has already queued so it can reach CloseWriter.
		_ = resp.Body.Close()
		_, _ = io.Copy(io.Discard, rb)
	}
	readErr := <-readErrCh

	if writeErr != nil {
		return written, writeErr
	}
	if readErr != nil && readErr != io.EOF {
		return written, apperrors.New(fmt.Errorf("reading download body: %w", readErr)).
			Category(apperrors.CategoryDownloadError).Build()
	}

	return written, nil
}
