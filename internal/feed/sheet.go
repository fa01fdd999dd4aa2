package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// placeholderSheetID is the value shipped in example configuration.
const placeholderSheetID = "YOUR_SHEET_ID_HERE"

// maxSheetBytes bounds the CSV body read from the sheet export.
const maxSheetBytes = 1 << 20

// SheetConfigured reports whether id looks like a real sheet id.
func SheetConfigured(id string) bool {
	return id != placeholderSheetID && len(id) > 10
}

// SheetURL returns the CSV export URL of a public spreadsheet.
func SheetURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", id)
}

// SheetSource fetches progress from a published spreadsheet CSV export.
type SheetSource struct {
	URL    string
	Client *http.Client
	Now    func() time.Time
}

func NewSheetSource(url string, timeout time.Duration) *SheetSource {
	return &SheetSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Now:    time.Now,
	}
}

func (s *SheetSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch sheet: unexpected status %d", resp.StatusCode)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return ParseCSV(io.LimitReader(resp.Body, maxSheetBytes), now)
}
