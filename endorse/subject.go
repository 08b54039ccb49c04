package endorse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EndorsedSuffix is appended to the layout document's base name to name the output.
const EndorsedSuffix = " - Endorsed.pdf"

// Subject is one folder of a batch: a layout document plus the photos appended after it.
type Subject struct {
	Name   string
	Dir    string
	Layout string
	Photos []string
}

// Discover scans a subject folder. The layout is the first PDF whose name contains the layout
// marker or, failing that, the only PDF in the folder. Photos are every file with a photo
// extension, in lexicographic order of file name. Previously endorsed documents are ignored.
func Discover(dir string, config Config) (*Subject, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	subject := Subject{
		Name: filepath.Base(dir),
		Dir:  dir,
	}

	pdfs := []string{}
	marked := []string{}
	marker := strings.ToLower(config.LayoutMarker)

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}

		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, strings.ToLower(EndorsedSuffix)):
			continue

		case strings.HasSuffix(lower, ".pdf"):
			pdfs = append(pdfs, name)
			if marker != "" && strings.Contains(lower, marker) {
				marked = append(marked, name)
			}

		case config.IsPhoto(name):
			subject.Photos = append(subject.Photos, name)
		}
	}

	sort.Strings(pdfs)
	sort.Strings(marked)
	sort.Strings(subject.Photos)

	for i, photo := range subject.Photos {
		subject.Photos[i] = filepath.Join(dir, photo)
	}

	switch {
	case len(marked) > 0:
		subject.Layout = filepath.Join(dir, marked[0])

	case len(pdfs) == 1:
		subject.Layout = filepath.Join(dir, pdfs[0])
	}

	return &subject, nil
}

// Output returns the endorsed document's path in the output directory.
func (s *Subject) Output(dir string) string {
	base := strings.TrimSuffix(filepath.Base(s.Layout), filepath.Ext(s.Layout))

	return filepath.Join(dir, base+EndorsedSuffix)
}

// Check returns ErrNoLayout or ErrNoPhotos if the subject should produce no output.
func (s *Subject) Check(requirePhotos bool) error {
	if s.Layout == "" {
		return fmt.Errorf("%w in %v", ErrNoLayout, s.Dir)
	}

	if requirePhotos && len(s.Photos) == 0 {
		return fmt.Errorf("%w in %v", ErrNoPhotos, s.Dir)
	}

	return nil
}
