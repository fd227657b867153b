package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Version is the build version, set with -ldflags "-X ...cli.Version=1.2.3".
var Version = "0.1.0"

const updateRepo = "Fepozopo/skinsmooth"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// releaseFinder looks up the newest published release of a GitHub repository.
// It tolerates tag names that only contain a version somewhere inside them.
type releaseFinder struct {
	apiBase string
	client  *http.Client
}

func newReleaseFinder() *releaseFinder {
	return &releaseFinder{apiBase: "https://api.github.com", client: &http.Client{Timeout: 10 * time.Second}}
}

// latest returns the highest non-draft, non-prerelease version of repo, or
// (nil, false, nil) when there is none.
func (f *releaseFinder) latest(ctx context.Context, repo string) (*selfupdate.Release, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/repos/%s/releases", f.apiBase, repo), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	var candidates []*selfupdate.Release
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			match = semverRe.FindString(r.Name)
		}
		v, err := semver.Parse(strings.TrimPrefix(match, "v"))
		if err != nil {
			continue
		}
		rel := &selfupdate.Release{Version: v}
		for _, a := range r.Assets {
			if rel.AssetURL == "" {
				rel.AssetURL = a.BrowserDownloadURL
			}
			if assetMatchesPlatform(a.Name) {
				rel.AssetURL = a.BrowserDownloadURL
				break
			}
		}
		candidates = append(candidates, rel)
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version.GT(candidates[j].Version)
	})
	return candidates[0], true, nil
}

func assetMatchesPlatform(name string) bool {
	n := strings.ToLower(name)
	for _, hint := range []string{"darwin", "linux", "windows", "amd64", "arm64"} {
		if strings.Contains(n, hint) {
			return true
		}
	}
	return false
}

// checkForUpdates reports the latest release. With apply set it asks on stdin
// for confirmation and replaces the running executable.
func (a *app) checkForUpdates(ctx context.Context, finder *releaseFinder, apply bool) error {
	fmt.Fprintf(a.stdout, "Current version: %s\n", Version)
	latest, found, err := finder.latest(ctx, updateRepo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found {
		fmt.Fprintf(a.stdout, "No releases found for %s.\n", updateRepo)
		return nil
	}
	fmt.Fprintf(a.stdout, "Latest version: %s\n", latest.Version)

	current, perr := semver.Parse(strings.TrimPrefix(Version, "v"))
	if perr != nil {
		a.log.Warn("could not parse current version", "version", Version, "err", perr)
	} else if latest.Version.LTE(current) {
		fmt.Fprintf(a.stdout, "You are already running the latest version: %s.\n", current)
		return nil
	}
	if !apply {
		fmt.Fprintf(a.stdout, "A new version (%s) is available; run with --self-update to install it.\n", latest.Version)
		return nil
	}
	if latest.AssetURL == "" {
		fmt.Fprintf(a.stdout, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		return nil
	}

	fmt.Fprintf(a.stdout, "Update to %s now? (y/N): ", latest.Version)
	answer, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed reading input: %w", err)
	}
	if answer = strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
		fmt.Fprintln(a.stdout, "Update cancelled.")
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Updated to %s. Restart skinsmooth to use it.\n", latest.Version)
	return nil
}
