package tools

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Release describes where a tool build is downloaded from.
type Release struct {
	URL     string
	Archive ArchiveFormat
	// UsedFallback is set when a dynamic lookup failed and a hardcoded URL was used.
	UsedFallback bool
}

// ReleaseSource selects the download for a tool, channel and variant.
type ReleaseSource interface {
	Resolve(ctx context.Context, tool ToolID, channel Channel, variant string) (Release, error)
}

const (
	ytDlpStableBase  = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"
	ytDlpNightlyBase = "https://github.com/yt-dlp/yt-dlp-nightly-builds/releases/latest/download/"
	gyanBuildsBase   = "https://www.gyan.dev/ffmpeg/builds/"
	denoLatestBase   = "https://github.com/denoland/deno/releases/latest/download/"

	aria2Repo        = "aria2/aria2"
	aria2FallbackURL = "https://github.com/aria2/aria2/releases/download/release-1.37.0/aria2-1.37.0-win-64bit-build1.zip"
)

// ytDlpAssets maps platform keys to the single-file yt-dlp asset name.
var ytDlpAssets = map[string]string{
	"windows-amd64": "yt-dlp.exe",
	"windows-arm64": "yt-dlp.exe",
	"linux-amd64":   "yt-dlp_linux",
	"linux-arm64":   "yt-dlp_linux_aarch64",
	"darwin-amd64":  "yt-dlp_macos",
	"darwin-arm64":  "yt-dlp_macos",
}

var denoAssets = map[string]string{
	"windows-amd64": "deno-x86_64-pc-windows-msvc.zip",
	"linux-amd64":   "deno-x86_64-unknown-linux-gnu.zip",
	"linux-arm64":   "deno-aarch64-unknown-linux-gnu.zip",
	"darwin-amd64":  "deno-x86_64-apple-darwin.zip",
	"darwin-arm64":  "deno-aarch64-apple-darwin.zip",
}

// aria2AssetMarkers maps platform keys to the substring identifying the
// matching aria2 release asset.
var aria2AssetMarkers = map[string]string{
	"windows-amd64": "win-64bit",
}

// ffmpegBuilds lists gyan.dev 7z builds per channel and variant.
var ffmpegBuilds = map[Channel]map[string]string{
	ChannelStable: {
		"full":       "ffmpeg-release-full.7z",
		"essentials": "ffmpeg-release-essentials.7z",
		"shared":     "ffmpeg-release-full-shared.7z",
	},
	ChannelNightly: {
		"full":       "ffmpeg-git-full.7z",
		"essentials": "ffmpeg-git-essentials.7z",
	},
}

// ReleaseResolver resolves downloads from the built-in index, querying the
// GitHub releases API for tools published without a stable "latest" URL.
type ReleaseResolver struct {
	platform string
	github   *GitHubClient
	cache    *ReleaseCache
}

// ResolverOption configures a ReleaseResolver.
type ResolverOption func(*ReleaseResolver)

// WithPlatform overrides the GOOS-GOARCH key used for asset selection.
func WithPlatform(key string) ResolverOption {
	return func(r *ReleaseResolver) { r.platform = key }
}

// WithGitHubClient overrides the client used for dynamic lookups.
func WithGitHubClient(c *GitHubClient) ResolverOption {
	return func(r *ReleaseResolver) { r.github = c }
}

// WithReleaseCache memoises dynamic lookups.
func WithReleaseCache(c *ReleaseCache) ResolverOption {
	return func(r *ReleaseResolver) { r.cache = c }
}

// NewReleaseResolver returns a resolver for the running platform.
func NewReleaseResolver(opts ...ResolverOption) *ReleaseResolver {
	r := &ReleaseResolver{platform: currentPlatformKey()}
	for _, opt := range opts {
		opt(r)
	}
	if r.github == nil {
		r.github = NewGitHubClient()
	}
	return r
}

func currentPlatformKey() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

// Resolve implements ReleaseSource. Nightly applies to yt-dlp and ffmpeg only;
// variants apply to ffmpeg only.
func (r *ReleaseResolver) Resolve(ctx context.Context, tool ToolID, channel Channel, variant string) (Release, error) {
	switch tool {
	case ToolYtDlp:
		asset, ok := ytDlpAssets[r.platform]
		if !ok {
			return Release{}, r.unsupported(tool)
		}
		base := ytDlpStableBase
		if channel == ChannelNightly {
			base = ytDlpNightlyBase
		}
		return Release{URL: base + asset, Archive: ArchiveNone}, nil

	case ToolFFmpeg:
		if !strings.HasPrefix(r.platform, "windows-") {
			return Release{}, r.unsupported(tool)
		}
		return Release{URL: gyanBuildsBase + ffmpegBuild(channel, variant), Archive: ArchiveSevenZip}, nil

	case ToolAria2:
		marker, ok := aria2AssetMarkers[r.platform]
		if !ok {
			return Release{}, r.unsupported(tool)
		}
		res := r.aria2Strategy(marker).resolve(ctx)
		if res.URL == "" {
			return Release{}, fmt.Errorf("resolve aria2 download: %w", res.PrimaryErr)
		}
		return Release{URL: res.URL, Archive: ArchiveZip, UsedFallback: res.UsedFallback}, nil

	case ToolDeno:
		asset, ok := denoAssets[r.platform]
		if !ok {
			return Release{}, r.unsupported(tool)
		}
		return Release{URL: denoLatestBase + asset, Archive: ArchiveZip}, nil

	default:
		return Release{}, unknownTool(tool)
	}
}

func (r *ReleaseResolver) unsupported(tool ToolID) error {
	return &ConfigError{Field: "platform", Reason: fmt.Sprintf("no %s download available for %s", tool, r.platform)}
}

// ffmpegBuild picks the archive name; unknown variants get the full build.
func ffmpegBuild(channel Channel, variant string) string {
	builds, ok := ffmpegBuilds[channel]
	if !ok {
		builds = ffmpegBuilds[ChannelStable]
	}
	v := strings.ToLower(variant)
	switch {
	case strings.Contains(v, "shared"):
		if name, ok := builds["shared"]; ok {
			return name
		}
	case strings.Contains(v, "essentials"):
		return builds["essentials"]
	}
	return builds["full"]
}

func (r *ReleaseResolver) aria2Strategy(marker string) urlStrategy {
	return urlStrategy{
		primary: func(ctx context.Context) (string, error) {
			key := string(ToolAria2) + "@" + r.platform
			if r.cache != nil {
				if url, ok := r.cache.Get(key); ok {
					return url, nil
				}
			}
			url, err := r.github.LatestAssetURL(ctx, aria2Repo, func(name string) bool {
				return matchAria2Asset(name, marker)
			})
			if err != nil {
				return "", err
			}
			if r.cache != nil {
				r.cache.Put(ctx, key, url)
			}
			return url, nil
		},
		fallback: aria2FallbackURL,
	}
}

func matchAria2Asset(name, marker string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".zip") && strings.Contains(lower, strings.ToLower(marker))
}

// urlStrategy is a primary lookup with a static fallback value.
type urlStrategy struct {
	primary  func(ctx context.Context) (string, error)
	fallback string
}

// Resolution is the outcome of a urlStrategy. URL is empty only when the
// primary failed and there is no fallback.
type Resolution struct {
	URL          string
	UsedFallback bool
	PrimaryErr   error
}

func (s urlStrategy) resolve(ctx context.Context) Resolution {
	url, err := s.primary(ctx)
	if err == nil && url != "" {
		return Resolution{URL: url}
	}
	if err == nil {
		err = fmt.Errorf("primary lookup returned no url")
	}
	if s.fallback == "" {
		return Resolution{PrimaryErr: err}
	}
	return Resolution{URL: s.fallback, UsedFallback: true, PrimaryErr: err}
}
