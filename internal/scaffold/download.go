package scaffold

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultAPIBaseURL is the GitHub REST endpoint used to fetch tarballs.
	DefaultAPIBaseURL = "https://api.github.com"
	// UserAgent is sent with every download; GitHub rejects requests without one.
	UserAgent = "unc-cli"
	// EnvGitHubToken authenticates downloads of private template repositories.
	EnvGitHubToken = "GITHUB_TOKEN"

	defaultDownloadTimeout = 2 * time.Minute
	maxArchiveBytes        = 512 << 20
)

// ErrUnsafeArchive is returned when a tarball entry would be written outside
// the extraction root.
var ErrUnsafeArchive = errors.New("archive entry escapes destination")

// Downloader fetches repository tarballs from the GitHub API.
type Downloader struct {
	client  *http.Client
	baseURL string
	token   string
}

// DownloadOption customises a Downloader.
type DownloadOption func(*Downloader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) DownloadOption {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithBaseURL points the downloader at a different API host.
func WithBaseURL(base string) DownloadOption {
	return func(d *Downloader) {
		if base != "" {
			d.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) DownloadOption {
	return func(d *Downloader) {
		d.token = token
	}
}

// NewDownloader constructs a downloader. The token defaults to GITHUB_TOKEN.
func NewDownloader(opts ...DownloadOption) *Downloader {
	d := &Downloader{
		client:  &http.Client{Timeout: defaultDownloadTimeout},
		baseURL: DefaultAPIBaseURL,
		token:   os.Getenv(EnvGitHubToken),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TarballURL returns the API URL of the branch tarball.
func (d *Downloader) TarballURL(owner, repo, branch string) string {
	return fmt.Sprintf("%s/repos/%s/%s/tarball/%s", d.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch))
}

// Fetch downloads the tarball of owner/repo at branch and extracts it into
// dest.
func (d *Downloader) Fetch(ctx context.Context, owner, repo, branch, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.TarballURL(owner, repo, branch), nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to download template: HTTP %s. Make sure the repository %s/%s and branch %s exist", resp.Status, owner, repo, branch)
	}

	if err := Extract(io.LimitReader(resp.Body, maxArchiveBytes), dest); err != nil {
		return fmt.Errorf("failed to extract tarball: %w", err)
	}
	return nil
}

// Extract unpacks a gzipped tarball into dest. Entries that would land outside
// dest are rejected.
func Extract(r io.Reader, dest string) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := entryPath(root, hdr.Name)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		if hdr.Typeflag == tar.TypeDir || hdr.Typeflag == tar.TypeReg || hdr.Typeflag == tar.TypeSymlink {
			// Entries never pass through a link extracted earlier, so a link
			// cannot redirect a later write outside root.
			if err := checkNoLinks(root, target, hdr.Typeflag != tar.TypeSymlink); err != nil {
				return err
			}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := linkEntry(root, target, hdr.Linkname); err != nil {
				return err
			}
		default:
			// pax global headers and other metadata entries carry no files.
		}
	}
}

func entryPath(root, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if clean == "/" {
		return "", nil
	}
	if strings.HasPrefix(name, "/") || hasDotDot(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchive, name)
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func hasDotDot(name string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func linkEntry(root, target, linkname string) error {
	if filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafeArchive, target, linkname)
	}
	// Walk the link's path as the kernel would: every step must stay inside
	// root and must not go through another link.
	cur := filepath.Dir(target)
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
		default:
			cur = filepath.Join(cur, part)
		}
		if !within(root, cur) {
			return fmt.Errorf("%w: link %s -> %s", ErrUnsafeArchive, target, linkname)
		}
		if isSymlink(cur) {
			return fmt.Errorf("%w: link %s -> %s goes through a link", ErrUnsafeArchive, target, linkname)
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

// checkNoLinks fails when a directory between root and target is a symlink.
// With self set, target itself must not be a symlink either.
func checkNoLinks(root, target string, self bool) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsafeArchive, target)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if !self {
		parts = parts[:len(parts)-1]
	}
	cur := root
	for _, part := range parts {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s goes through link %s", ErrUnsafeArchive, target, cur)
		}
	}
	return nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isSymlink(p string) bool {
	info, err := os.Lstat(p)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}
