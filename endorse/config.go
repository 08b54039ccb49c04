package endorse

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Size is a page size in points.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// DPI is the horizontal and vertical resolution used to convert stamp pixels to points.
type DPI struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Inset is the stamp offset from the top-right corner of a page, in points.
type Inset struct {
	Right float64 `yaml:"right"`
	Top   float64 `yaml:"top"`
}

type StampConfig struct {
	File  string `yaml:"file"`
	DPI   DPI    `yaml:"dpi"`
	Inset Inset  `yaml:"inset"`
}

type RasterizerConfig struct {
	Command   string        `yaml:"command"`
	Density   int           `yaml:"density"`
	MinOutput int64         `yaml:"min-output"`
	Timeout   time.Duration `yaml:"timeout"`
	Disabled  bool          `yaml:"disabled"`
}

type Config struct {
	Stamp           StampConfig      `yaml:"stamp"`
	Page            Size             `yaml:"page"`
	LayoutMarker    string           `yaml:"layout-marker"`
	PhotoExtensions []string         `yaml:"photo-extensions"`
	RequirePhotos   bool             `yaml:"require-photos"`
	Batch           string           `yaml:"batch"`
	Output          string           `yaml:"output"`
	Workdir         string           `yaml:"workdir"`
	Rasterizer      RasterizerConfig `yaml:"rasterizer"`
}

// A4Landscape is the fixed target page size.
var A4Landscape = Size{Width: 841.89, Height: 595.28}

// DefaultConfig returns the configuration used when no file is given. The stamp DPI is that of
// the reference stamp asset and is deliberately not read from the image file.
func DefaultConfig() Config {
	return Config{
		Stamp: StampConfig{
			File:  "stamp.png",
			DPI:   DPI{X: 295, Y: 301},
			Inset: Inset{Right: 12, Top: 47},
		},
		Page:            A4Landscape,
		LayoutMarker:    "Layout",
		PhotoExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"},
		RequirePhotos:   true,
		Workdir:         os.TempDir(),
		Rasterizer: RasterizerConfig{
			Command:   "magick",
			Density:   300,
			MinOutput: 1024,
		},
	}
}

// LoadConfig reads a YAML configuration file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	bytes, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return config, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}

	return config, nil
}

// Validate checks the values that would otherwise fail part way through a batch. The stamp
// file itself is not checked here; an unreadable stamp is reported against each subject.
func (c Config) Validate() error {
	if c.Stamp.DPI.X <= 0 || c.Stamp.DPI.Y <= 0 {
		return fmt.Errorf("invalid stamp DPI %vx%v", c.Stamp.DPI.X, c.Stamp.DPI.Y)
	}

	if c.Page.Width <= 0 || c.Page.Height <= 0 {
		return fmt.Errorf("invalid page size %vx%v", c.Page.Width, c.Page.Height)
	}

	if len(c.PhotoExtensions) == 0 {
		return fmt.Errorf("no photo extensions configured")
	}

	if !c.Rasterizer.Disabled && c.Rasterizer.Density <= 0 {
		return fmt.Errorf("invalid rasterizer density %v", c.Rasterizer.Density)
	}

	return nil
}

// IsPhoto returns true if the file name has one of the configured photo extensions.
func (c Config) IsPhoto(file string) bool {
	name := strings.ToLower(file)
	for _, ext := range c.PhotoExtensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}

	return false
}
