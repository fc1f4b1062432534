package security

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScriptTags(t *testing.T) {
	clean, changed := Sanitize(`<script>alert(1)</script>`)
	if !changed {
		t.Fatalf("script payload reported unchanged")
	}
	if strings.Contains(strings.ToLower(clean), "<script") || strings.Contains(clean, "alert(1)") {
		t.Fatalf("executable content survived: %q", clean)
	}
}

func TestSanitizeStripsMixedPayloads(t *testing.T) {
	cases := []string{
		`hello <SCRIPT SRC="http://evil/x.js"></SCRIPT> world`,
		`<iframe src="http://evil"></iframe>`,
		`<img src=x onerror=alert(1)>`,
		`<a href="javascript:alert(1)">click</a>`,
	}
	for _, in := range cases {
		clean, changed := Sanitize(in)
		if !changed {
			t.Fatalf("payload %q reported unchanged", in)
		}
		lower := strings.ToLower(clean)
		if strings.Contains(lower, "<script") || strings.Contains(lower, "<iframe") ||
			strings.Contains(lower, "onerror") || strings.Contains(lower, "javascript:") {
			t.Fatalf("payload %q left executable content: %q", in, clean)
		}
	}
}

func TestSanitizeLeavesPlainTextAlone(t *testing.T) {
	cases := []string{
		"hello world",
		"math: 1 < 2 && 3 > 2",
		"look at <b>this</b>",
		"code sample: for (;;) {}",
	}
	for _, in := range cases {
		clean, changed := Sanitize(in)
		if changed || clean != in {
			t.Fatalf("benign text %q altered to %q", in, clean)
		}
	}
}
