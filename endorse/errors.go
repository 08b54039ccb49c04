package endorse

import (
	"errors"
)

var (
	// ErrAssetUnreadable is returned when the layout document or the stamp image cannot be read
	// or decoded. It is fatal to the subject being processed.
	ErrAssetUnreadable = errors.New("asset unreadable")

	// ErrNoPages is returned when assembly would produce an empty document.
	ErrNoPages = errors.New("no pages to write")

	// ErrImplausible is returned by the converter chain for output that is empty or too small to
	// be a real rendering of the photo.
	ErrImplausible = errors.New("implausible conversion output")

	// ErrNoConverter is returned when a chain has no converters to try.
	ErrNoConverter = errors.New("no converters configured")

	ErrNoLayout = errors.New("no layout document")
	ErrNoPhotos = errors.New("no photos")
)
