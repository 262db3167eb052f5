package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// httpStream is an io.ReadSeekCloser over an HTTP resource. Seeks are
// lazy: the next Read issues a ranged request from the new offset.
type httpStream struct {
	ctx         context.Context
	client      *http.Client
	url         string
	size        int64 // -1 when unknown
	offset      int64
	body        io.ReadCloser
	contentType string
}

// openHTTPStream issues the first request and reads the resource size and
// content type from the response.
func openHTTPStream(ctx context.Context, client *http.Client, url string) (*httpStream, error) {
	s := &httpStream{ctx: ctx, client: client, url: url, size: -1}
	if err := s.request(0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *httpStream) request(offset int64) error {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch stream: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if total := parseContentRangeTotal(resp.Header.Get("Content-Range")); total >= 0 {
			s.size = total
		}
	case http.StatusOK:
		// Server ignored the range; skip forward to the offset.
		if resp.ContentLength >= 0 {
			s.size = resp.ContentLength
		}
		if offset > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
				resp.Body.Close()
				return fmt.Errorf("skip to offset: %w", err)
			}
		}
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		s.body = http.NoBody
		s.offset = offset
		return nil
	default:
		resp.Body.Close()
		return fmt.Errorf("fetch stream: status %d", resp.StatusCode)
	}

	if s.contentType == "" {
		s.contentType = resp.Header.Get("Content-Type")
	}
	s.body = resp.Body
	s.offset = offset
	return nil
}

func (s *httpStream) Read(p []byte) (int, error) {
	if s.body == nil {
		if s.size >= 0 && s.offset >= s.size {
			return 0, io.EOF
		}
		if err := s.request(s.offset); err != nil {
			return 0, err
		}
	}
	n, err := s.body.Read(p)
	s.offset += int64(n)
	return n, err
}

func (s *httpStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.offset + offset
	case io.SeekEnd:
		if s.size < 0 {
			return 0, errors.New("seek from end: unknown size")
		}
		target = s.size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, errors.New("seek: negative position")
	}
	if target == s.offset && s.body != nil {
		return target, nil
	}

	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
	s.offset = target
	return target, nil
}

func (s *httpStream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

// ContentType returns the Content-Type of the first response.
func (s *httpStream) ContentType() string {
	return s.contentType
}

// parseContentRangeTotal extracts the complete length from a header of the
// form "bytes 0-99/1234". It returns -1 when absent or "*".
func parseContentRangeTotal(header string) int64 {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
