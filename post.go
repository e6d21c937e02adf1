// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package blogdl

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a crawled post.
type Kind int

const (
	Photo Kind = iota
	Video
	Audio
	Text
	Quote
	Link
	Conversation
	Answer
	PhotoMeta
	VideoMeta
	AudioMeta
	numKinds
)

var kindNames = [numKinds]string{
	"photo", "video", "audio", "text", "quote", "link",
	"conversation", "answer", "photo-meta", "video-meta", "audio-meta",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Binary returns true for kinds whose URL refers to downloadable media
// rather than a serialized body to be appended to a manifest.
func (k Kind) Binary() bool {
	return k == Photo || k == Video || k == Audio
}

// Kinds returns all defined kinds.
func Kinds() []Kind {
	all := make([]Kind, numKinds)
	for i := range all {
		all[i] = Kind(i)
	}
	return all
}

// ParseKind maps a kind name as used in configuration files back to a Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(name, n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown post kind: %q", name)
}

// KindSet is a set of enabled post kinds.
type KindSet uint

// NewKindSet returns a set containing the supplied kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var ks KindSet
	for _, k := range kinds {
		ks |= 1 << uint(k)
	}
	return ks
}

func (ks KindSet) Has(k Kind) bool {
	return ks&(1<<uint(k)) != 0
}

// Post is a single unit of work handed from the crawler to the downloader.
// It is immutable once constructed.
type Post struct {
	Kind Kind
	// URL holds the downloadable resource for binary kinds and the
	// serialized body for text/meta kinds.
	URL string
	// ID is the source post identifier, or a generated opaque identifier
	// for inline/legacy items that do not expose one.
	ID string
	// Timestamp is the post's publication time, zero when unknown.
	Timestamp time.Time
	// Tags are the post's tags as found on the page, original casing.
	Tags []string
	// RebloggedFrom is non-empty when the post is a reblog.
	RebloggedFrom string
}

// Validate checks the construction invariants.
func (p Post) Validate() error {
	if p.Kind.Binary() && p.URL == "" {
		return fmt.Errorf("%v post %v: empty url", p.Kind, p.ID)
	}
	return nil
}

// DedupKey returns the identifier used by the dedup index: the URL's last
// path segment for binary kinds, the post ID otherwise.
func (p Post) DedupKey() string {
	if p.Kind.Binary() {
		return Filename(p.URL)
	}
	return p.ID
}

// NumericID parses the post ID as an unsigned integer for watermark
// comparisons. Non-numeric (opaque) IDs report 0.
func (p Post) NumericID() uint64 {
	n, err := strconv.ParseUint(p.ID, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Filename returns the last path segment of rawurl, with any query or
// fragment stripped. It is the on-disk name for downloaded media.
func Filename(rawurl string) string {
	if u, err := url.Parse(rawurl); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	if i := strings.IndexAny(rawurl, "?#"); i >= 0 {
		rawurl = rawurl[:i]
	}
	return path.Base(rawurl)
}
