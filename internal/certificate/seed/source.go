package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/sentinel"
)

// Source delivers the raw seed document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Location names the source in diagnostics.
	Location() string
}

// HTTPSource fetches the document with a GET request.
type HTTPSource struct {
	client *resty.Client
	url    string
}

// NewHTTPSource builds a source for url. A zero timeout leaves the request bounded
// only by the caller's context.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &HTTPSource{client: client, url: url}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err), dErrors.CodeUnavailable, "seed document unreachable")
	}
	if resp.IsError() {
		return nil, dErrors.Wrap(fmt.Errorf("%w: status %d", sentinel.ErrUnavailable, resp.StatusCode()), dErrors.CodeUnavailable, "seed document unreachable")
	}
	return resp.Body(), nil
}

func (s *HTTPSource) Location() string { return s.url }

// FileSource reads the document from the local filesystem.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err), dErrors.CodeUnavailable, "seed document unreadable")
	}
	return data, nil
}

func (s *FileSource) Location() string { return s.path }
