package toolchain

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const userAgent = "decompdesk/1.0"

// Download is a fetched archive with the server's content type.
type Download struct {
	URL         string
	Bytes       []byte
	ContentType string
}

// Fetcher downloads toolchain archives. The registry never touches the
// network; callers fetch and hand the bytes to Install.
type Fetcher struct {
	Client *http.Client
	// Progress, when set, is called as bytes arrive. total is -1 when the
	// server did not send a length.
	Progress func(read, total int64)
}

// Fetch GETs url and returns its body.
func (f Fetcher) Fetch(ctx context.Context, url string) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Download{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Download{}, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Download{}, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	var body io.Reader = resp.Body
	if f.Progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, report: f.Progress}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Download{}, fmt.Errorf("read %s: %w", url, err)
	}
	return Download{URL: url, Bytes: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	report func(read, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(p.read, p.total)
	}
	return n, err
}
