package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultGitHubAPI is the base URL of the GitHub REST API.
const DefaultGitHubAPI = "https://api.github.com"

var errNoMatchingAsset = errors.New("no matching release asset")

type githubReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string               `json:"tag_name"`
	Assets  []githubReleaseAsset `json:"assets"`
}

// GitHubClient queries the releases API.
type GitHubClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// GitHubOption configures a GitHubClient.
type GitHubOption func(*GitHubClient)

// WithAPIBaseURL points the client at a different API root.
func WithAPIBaseURL(base string) GitHubOption {
	return func(c *GitHubClient) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithGitHubHTTPClient overrides the HTTP client.
func WithGitHubHTTPClient(hc *http.Client) GitHubOption {
	return func(c *GitHubClient) { c.client = hc }
}

// WithGitHubUserAgent sets the User-Agent header.
func WithGitHubUserAgent(ua string) GitHubOption {
	return func(c *GitHubClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewGitHubClient returns a client for the public API.
func NewGitHubClient(opts ...GitHubOption) *GitHubClient {
	c := &GitHubClient{
		baseURL:   DefaultGitHubAPI,
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestAssetURL returns the download URL of the first asset of repo's latest
// release accepted by match.
func (c *GitHubClient) LatestAssetURL(ctx context.Context, repo string, match func(name string) bool) (string, error) {
	release, err := c.latestRelease(ctx, repo)
	if err != nil {
		return "", err
	}
	url, err := selectAsset(release.Assets, match)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", repo, release.TagName, err)
	}
	return url, nil
}

func (c *GitHubClient) latestRelease(ctx context.Context, repo string) (githubRelease, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return githubRelease{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return githubRelease{}, &NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return githubRelease{}, &NetworkError{URL: endpoint, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return githubRelease{}, fmt.Errorf("decode %s release: %w", repo, err)
	}
	return release, nil
}

func selectAsset(assets []githubReleaseAsset, match func(name string) bool) (string, error) {
	for _, asset := range assets {
		if match(asset.Name) && asset.BrowserDownloadURL != "" {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", errNoMatchingAsset
}
