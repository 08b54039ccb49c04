// Package gdrive downloads subject photos from Google Drive and layout documents from
// their published URLs.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const FolderMimeType = "application/vnd.google-apps.folder"

// LinkKind distinguishes Drive file links from folder links.
type LinkKind int

const (
	FileLink LinkKind = iota + 1
	FolderLink
)

func (k LinkKind) String() string {
	switch k {
	case FileLink:
		return "file"
	case FolderLink:
		return "folder"
	default:
		return "unknown"
	}
}

type Link struct {
	ID   string
	Kind LinkKind
}

// File is the Drive metadata used to decide what to download.
type File struct {
	ID       string
	Name     string
	MimeType string
}

func (f File) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

var (
	fileLink   = regexp.MustCompile(`^https://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)
	folderLink = regexp.MustCompile(`^https://drive\.google\.com/drive/folders/([a-zA-Z0-9_-]+)`)
)

// ParseLink extracts the file or folder ID from a Drive sharing link.
func ParseLink(link string) (Link, error) {
	s := strings.TrimSpace(link)

	if match := fileLink.FindStringSubmatch(s); len(match) > 1 {
		return Link{ID: match[1], Kind: FileLink}, nil
	}

	if match := folderLink.FindStringSubmatch(s); len(match) > 1 {
		return Link{ID: match[1], Kind: FolderLink}, nil
	}

	return Link{}, fmt.Errorf("invalid Google Drive link '%v'", link)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
	".heic": true,
	".heif": true,
	".raw":  true,
	".cr2":  true,
	".nef":  true,
	".orf":  true,
	".sr2":  true,
	".dng":  true,
}

// IsImage returns true if the file name has a known image extension or the MIME type is image/*.
func IsImage(name, mimeType string) bool {
	if imageExtensions[strings.ToLower(filepath.Ext(name))] {
		return true
	}

	return strings.HasPrefix(mimeType, "image/")
}

// Client wraps a Drive service and the HTTP client used for layout downloads. It is created
// once per command and passed to everything that needs Drive access.
type Client struct {
	drive *drive.Service
	http  *http.Client
	debug bool
}

// NewClient creates a Drive client. The options are passed through to the Drive service, e.g.
// option.WithHTTPClient with an authorised client.
func NewClient(ctx context.Context, debug bool, opts ...option.ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	return &Client{
		drive: service,
		http:  &http.Client{Timeout: 5 * time.Minute},
		debug: debug,
	}, nil
}

// Metadata retrieves the name and MIME type of a file.
func (c *Client) Metadata(ctx context.Context, id string) (*File, error) {
	f, err := c.drive.Files.Get(id).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	return &File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}, nil
}

// List returns the children of a folder, following every page of results. Items in shared
// drives are included.
func (c *Client) List(ctx context.Context, folder string) ([]File, error) {
	files := []File{}
	page := ""

	for {
		call := c.drive.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", folder)).
			Fields("nextPageToken, files(id, name, mimeType)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)

		if page != "" {
			call.PageToken(page)
		}

		list, err := call.Do()
		if err != nil {
			return nil, err
		}

		for _, f := range list.Files {
			files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}

		if page = list.NextPageToken; page == "" {
			break
		}
	}

	return files, nil
}

// Download writes the content of a Drive file to the given path. The file is written to a
// temporary file in the same directory and renamed into place.
func (c *Client) Download(ctx context.Context, id string, file string) error {
	response, err := c.drive.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return err
	}

	defer response.Body.Close()

	if c.debug {
		debugf("downloading %v to %v", id, file)
	}

	return save(response.Body, file)
}

func save(r io.Reader, file string) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}
