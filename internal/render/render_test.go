package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAsciidoc_Render(t *testing.T) {
	out, err := NewAsciidoc().Render("hello *world*\n", nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Errorf("expected bold text in output, got %q", out)
	}
	if strings.Contains(out, "<html") {
		t.Errorf("expected body-only output, got %q", out)
	}
}

func TestAsciidoc_Deterministic(t *testing.T) {
	r := NewAsciidoc()
	src := "== Section\n\nA paragraph.\n"
	a, err := r.Render(src, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b, err := r.Render(src, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if Digest(a) != Digest(b) {
		t.Error("expected identical digests for identical input")
	}
}

func TestAppendSource(t *testing.T) {
	if got := AppendSource("<p>x</p>", "", "raw"); got != "<p>x</p>" {
		t.Errorf("expected no block when attrs are empty, got %q", got)
	}

	got := AppendSource("<p>x</p>", `class="asciidoc" style="display: none"`, "a <b> & c")
	want := `<p>x</p><div class="asciidoc" style="display: none">a &lt;b&gt; &amp; c</div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDigest(t *testing.T) {
	// sha256("")
	if got := Digest(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected digest of empty string: %s", got)
	}
	if Digest("a") == Digest("b") {
		t.Error("expected different digests for different content")
	}
}

func TestLoadAttributes(t *testing.T) {
	dir := t.TempDir()
	globals := map[string]interface{}{"icons": "font", "toc": "left"}

	attrs, err := LoadAttributes(globals, dir)
	if err != nil {
		t.Fatalf("LoadAttributes without file failed: %v", err)
	}
	if attrs["icons"] != "font" || attrs["toc"] != "left" {
		t.Errorf("unexpected attributes: %v", attrs)
	}

	content := "toc = \"right\"\nsource-highlighter = \"rouge\"\n"
	if err := os.WriteFile(filepath.Join(dir, AttributesFile), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write attributes file: %v", err)
	}

	attrs, err = LoadAttributes(globals, dir)
	if err != nil {
		t.Fatalf("LoadAttributes failed: %v", err)
	}
	if attrs["toc"] != "right" {
		t.Errorf("expected per-blog value to win, got %v", attrs["toc"])
	}
	if attrs["source-highlighter"] != "rouge" {
		t.Errorf("expected per-blog attribute, got %v", attrs["source-highlighter"])
	}
	if globals["toc"] != "left" {
		t.Error("LoadAttributes must not modify globals")
	}

	if err := os.WriteFile(filepath.Join(dir, AttributesFile), []byte("not = [valid"), 0644); err != nil {
		t.Fatalf("failed to write attributes file: %v", err)
	}
	if _, err := LoadAttributes(globals, dir); err == nil {
		t.Error("expected error for malformed attributes file")
	}
}
