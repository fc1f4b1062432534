// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package security

import (
	"regexp"
	"strings"
)

// Patterns for executable markup in plaintext messages. Encrypted message
// bodies are never sanitized; they are opaque ciphertext.
var (
	reScriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	reDanglingTag  = regexp.MustCompile(`(?i)</?(script|iframe|object|embed|form)\b[^>]*>`)
	reEventHandler = regexp.MustCompile(`(?i)\son\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	reJSURL        = regexp.MustCompile(`(?i)javascript\s*:`)
)

// Sanitize strips executable markup from a plaintext message. changed
// reports whether anything was removed; callers record an xss_attempt
// security event when it is true.
func Sanitize(text string) (clean string, changed bool) {
	clean = text
	clean = reScriptBlock.ReplaceAllString(clean, "")
	clean = reDanglingTag.ReplaceAllString(clean, "")
	clean = reEventHandler.ReplaceAllString(clean, "")
	clean = reJSURL.ReplaceAllString(clean, "")

	if clean != text {
		return strings.TrimSpace(clean), true
	}
	return clean, false
}
