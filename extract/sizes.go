// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package extract

import "strings"

// sizeTokens are the size variants embedded in media filenames. The
// tokens are mutually exclusive literal substrings of a URL, so
// replacement is order independent.
var sizeTokens = []string{
	"_raw", "_1280", "_640", "_540", "_500", "_400", "_250", "_100", "_75sq",
}

// ResizeURL substitutes the preferred size token for whichever known
// token the URL carries. URLs without a size token and an empty
// preference are returned unchanged. This is a best-effort heuristic:
// no alternate hostnames are probed.
func ResizeURL(u, preferred string) string {
	if preferred == "" {
		return u
	}
	want := "_" + strings.TrimPrefix(preferred, "_")
	for _, tok := range sizeTokens {
		if tok == want {
			continue
		}
		if strings.Contains(u, tok) {
			return strings.Replace(u, tok, want, 1)
		}
	}
	return u
}

// excludedURL reports whether the URL belongs to a permanently excluded
// category: avatars and preview thumbnails are never downloaded.
func excludedURL(u string) bool {
	lower := strings.ToLower(u)
	for _, marker := range []string{"avatar", "_icon", "_thumb", "/previews/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
