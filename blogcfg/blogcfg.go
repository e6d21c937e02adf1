// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package blogcfg loads the engine's YAML configuration: transport
// settings shared by all blogs and the per-blog download policies.
package blogcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mirrorkeep/blogdl"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that marshals to and from the string
// form accepted by time.ParseDuration, e.g. "45s" or "2m30s".
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dd, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Settings is the top-level configuration document.
type Settings struct {
	// Database is the path of the aggregate database.
	Database string `yaml:"database"`
	// DownloadRoot is the default parent directory for per-blog
	// download locations.
	DownloadRoot string `yaml:"download_root"`

	UserAgent string   `yaml:"user_agent"`
	Proxy     string   `yaml:"proxy"`
	Timeout   Duration `yaml:"timeout"`

	// Connections/VideoConnections are the system-wide caps, divided
	// across concurrently active blogs.
	Connections      int `yaml:"connections"`
	VideoConnections int `yaml:"video_connections"`
	Retries          int `yaml:"retries"`

	// RequestsPerMinute and BytesPerSecond bound the request rate and
	// bandwidth; zero disables the respective limit.
	RequestsPerMinute int   `yaml:"requests_per_minute"`
	BytesPerSecond    int64 `yaml:"bytes_per_second"`

	Blogs []Blog `yaml:"blogs"`
}

// Blog is one blog's entry in the configuration document.
type Blog struct {
	Name             string   `yaml:"name"`
	URL              string   `yaml:"url"`
	DownloadLocation string   `yaml:"download_location"`
	APIKeys          []string `yaml:"api_keys"`

	Kinds []string `yaml:"kinds"`
	Tags  []string `yaml:"tags"`
	// From/To are inclusive date bounds, formatted 2006-01-02.
	From           string `yaml:"from"`
	To             string `yaml:"to"`
	IncludeReblogs bool   `yaml:"include_reblogs"`
	Pages          []int  `yaml:"pages"`
	ForceRescan    bool   `yaml:"force_rescan"`

	PreferredSize   string `yaml:"preferred_size"`
	SkipGIF         bool   `yaml:"skip_gif"`
	URLList         bool   `yaml:"url_list"`
	CheckDirectory  bool   `yaml:"check_directory"`
	ConcurrentScans int    `yaml:"concurrent_scans"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Settings, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// Parse unmarshals and validates a configuration document.
func Parse(buf []byte) (*Settings, error) {
	s := &Settings{}
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate applies defaults and rejects inconsistent documents.
func (s *Settings) Validate() error {
	if s.Database == "" {
		s.Database = "blogdl.db"
	}
	if s.Timeout <= 0 {
		s.Timeout = Duration(30 * time.Second)
	}
	if s.Connections <= 0 {
		s.Connections = 16
	}
	if s.VideoConnections <= 0 {
		s.VideoConnections = 4
	}
	if s.Retries <= 0 {
		s.Retries = 3
	}
	seen := map[string]bool{}
	for i := range s.Blogs {
		b := &s.Blogs[i]
		if b.Name == "" {
			return fmt.Errorf("blog %v: missing name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("blog %v: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true
		if b.URL == "" {
			return fmt.Errorf("blog %q: missing url", b.Name)
		}
		if b.DownloadLocation == "" {
			b.DownloadLocation = filepath.Join(s.DownloadRoot, b.Name)
		}
		if len(b.Kinds) == 0 {
			b.Kinds = []string{"photo", "video"}
		}
		if b.ConcurrentScans <= 0 {
			b.ConcurrentScans = 2
		}
	}
	return nil
}

// BlogConfig converts the entry into the engine's runtime
// configuration.
func (b Blog) BlogConfig() (*blogdl.BlogConfig, error) {
	kinds := make([]blogdl.Kind, 0, len(b.Kinds))
	for _, name := range b.Kinds {
		k, err := blogdl.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("blog %q: %w", b.Name, err)
		}
		kinds = append(kinds, k)
	}
	cfg := &blogdl.BlogConfig{
		Name:             b.Name,
		URL:              b.URL,
		DownloadLocation: b.DownloadLocation,
		APIKeys:          b.APIKeys,
		Kinds:            blogdl.NewKindSet(kinds...),
		TagFilter:        b.Tags,
		IncludeReblogs:   b.IncludeReblogs,
		Pages:            b.Pages,
		ForceRescan:      b.ForceRescan,
		PreferredSize:    b.PreferredSize,
		SkipGIF:          b.SkipGIF,
		URLListOnly:      b.URLList,
		CheckDirectory:   b.CheckDirectory,
		ConcurrentScans:  b.ConcurrentScans,
	}
	var err error
	if cfg.From, err = parseDate(b.Name, b.From, false); err != nil {
		return nil, err
	}
	if cfg.To, err = parseDate(b.Name, b.To, true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDate parses an inclusive date bound. The upper bound covers the
// whole named day.
func parseDate(blog, value string, upper bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("blog %q: bad date %q: %w", blog, value, err)
	}
	if upper {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return ts, nil
}
