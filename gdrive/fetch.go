package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// MaxLayoutSize is the largest layout document that will be downloaded.
const MaxLayoutSize = 256 * 1024 * 1024

// Failure records a file that could not be downloaded for a subject.
type Failure struct {
	Subject string
	File    string
	Error   string
}

// Photos downloads the images behind a Drive link into dir and returns the number of images
// downloaded. A file link is downloaded only if it is an image. For a folder link the images
// in the folder are downloaded and, if depth > 0, the images in sub-folders down to that
// depth, named <sub-folder>_<file>.
func (c *Client) Photos(ctx context.Context, subject, link, dir string, depth int) (int, []Failure) {
	l, err := ParseLink(link)
	if err != nil {
		return 0, []Failure{{Subject: subject, File: "Invalid Google Drive link", Error: link}}
	}

	switch l.Kind {
	case FileLink:
		f, err := c.Metadata(ctx, l.ID)
		if err != nil {
			return 0, []Failure{{Subject: subject, File: "Error checking file", Error: err.Error()}}
		}

		if !IsImage(f.Name, f.MimeType) {
			infof("%v: 0 images found (%v is not an image)", subject, f.Name)
			return 0, nil
		}

		if err := c.Download(ctx, f.ID, filepath.Join(dir, filename(f.Name))); err != nil {
			return 0, []Failure{{Subject: subject, File: f.Name, Error: err.Error()}}
		}

		return 1, nil

	default:
		return c.walk(ctx, subject, l.ID, dir, nil, depth)
	}
}

func (c *Client) walk(ctx context.Context, subject, folder, dir string, prefix []string, depth int) (int, []Failure) {
	files, err := c.List(ctx, folder)
	if err != nil {
		return 0, []Failure{{Subject: subject, File: "Folder access failed", Error: err.Error()}}
	}

	if len(prefix) == 0 {
		infof("%v: %v items found", subject, len(files))
	}

	downloaded := 0
	failures := []Failure{}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return downloaded, append(failures, Failure{Subject: subject, File: f.Name, Error: err.Error()})
		}

		switch {
		case f.IsFolder() && depth > 0:
			n, errs := c.walk(ctx, subject, f.ID, dir, append(prefix, f.Name), depth-1)
			downloaded += n
			failures = append(failures, errs...)

		case f.IsFolder():
			if c.debug {
				debugf("%v: skipping sub-folder %v", subject, f.Name)
			}

		case IsImage(f.Name, f.MimeType):
			name := filename(strings.Join(append(prefix, f.Name), "_"))
			if err := c.Download(ctx, f.ID, filepath.Join(dir, name)); err != nil {
				failures = append(failures, Failure{Subject: subject, File: f.Name, Error: err.Error()})
			} else {
				downloaded++
			}

		default:
			if c.debug {
				debugf("%v: skipping non-image file %v (%v)", subject, f.Name, f.MimeType)
			}
		}
	}

	return downloaded, failures
}

// IsLayoutLink returns true for URLs whose path ends in .pdf.
func IsLayoutLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// Layout downloads a layout document into dir and returns the path of the saved file. If the
// server returns an HTML page instead of a PDF (e.g. a download interstitial), the first link
// to a .pdf on that page is followed once.
func (c *Client) Layout(ctx context.Context, link, dir string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", err
	}

	content, base, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}

	if !isPDF(content) {
		next, err := pdfLink(content, base)
		if err != nil {
			return "", fmt.Errorf("%v: response is not a PDF (%v)", link, err)
		}

		if c.debug {
			debugf("following layout link %v", next)
		}

		if content, _, err = c.get(ctx, next); err != nil {
			return "", err
		} else if !isPDF(content) {
			return "", fmt.Errorf("%v: response is not a PDF", next)
		}
	}

	file := filepath.Join(dir, layoutName(u))
	if err := save(bytes.NewReader(content), file); err != nil {
		return "", err
	}

	return file, nil
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, *url.URL, error) {
	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}

	response, err := c.http.Do(rq)
	if err != nil {
		return nil, nil, err
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%v: %v", u, response.Status)
	}

	content, err := io.ReadAll(io.LimitReader(response.Body, MaxLayoutSize+1))
	if err != nil {
		return nil, nil, err
	} else if len(content) > MaxLayoutSize {
		return nil, nil, fmt.Errorf("%v: layout exceeds %v bytes", u, MaxLayoutSize)
	}

	return content, response.Request.URL, nil
}

func isPDF(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte("%PDF-"))
}

// pdfLink returns the first <a href> in an HTML page whose path ends in .pdf, resolved against
// the page URL.
func pdfLink(content []byte, base *url.URL) (*url.URL, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var find func(*html.Node) *url.URL
	find = func(n *html.Node) *url.URL {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}

				if u, err := base.Parse(strings.TrimSpace(attr.Val)); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
					return u
				}
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if u := find(child); u != nil {
				return u
			}
		}

		return nil
	}

	if u := find(doc); u != nil {
		return u, nil
	}

	return nil, fmt.Errorf("no PDF link found")
}

func layoutName(u *url.URL) string {
	name := path.Base(u.Path)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return "Layout.pdf"
	}

	return filename(name)
}

// filename makes a Drive or URL file name safe to use as a local file name.
func filename(name string) string {
	s := strings.NewReplacer("/", "_", "\\", "_", "\x00", "_").Replace(strings.TrimSpace(name))
	if s == "" || s == "." || s == ".." {
		return "_"
	}

	return s
}
