// Package paper reads release metadata from the PaperMC downloads API.
package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type projectResponse struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Versions    []string `json:"versions"`
}

type Client struct {
	URL       string
	UserAgent string
	HTTP      *http.Client

	log *logrus.Entry
}

func NewClient(url, userAgent string) *Client {
	return &Client{
		URL:       url,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		log:       logrus.WithField("component", "paper"),
	}
}

// Versions returns the project's versions in API order (oldest first).
func (c *Client) Versions(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	c.log.Debugf("fetching versions from %s", c.URL)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	var parsed projectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w. First 100 chars: %s", err, body[:min(100, len(body))])
	}

	c.log.Debugf("found %d versions", len(parsed.Versions))
	return parsed.Versions, nil
}
