package render

import (
	"strings"
	"sync"
	"testing"
)

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Ring Final\n\nUse **2.5mm²** cable.", DefaultOptions().WithStyle("notty"))
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(out, "Ring Final") {
		t.Errorf("output missing heading: %q", out)
	}
	if !strings.Contains(out, "2.5mm²") {
		t.Errorf("output missing body text: %q", out)
	}
}

func TestMarkdownConcurrent(t *testing.T) {
	ClearCache()
	opts := DefaultOptions().WithStyle("notty")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Markdown("- socket circuit\n- lighting circuit", opts); err != nil {
				t.Errorf("Markdown() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1 pool for one option set", CacheSize())
	}
}

func TestMarkdownWithWidth(t *testing.T) {
	out, err := MarkdownWithWidth("plain text", 40)
	if err != nil {
		t.Fatalf("MarkdownWithWidth() error = %v", err)
	}
	if out == "" {
		t.Error("empty output")
	}
}

func TestIsBuiltinStyle(t *testing.T) {
	for _, style := range []string{"dark", "light", "notty", "auto"} {
		if !IsBuiltinStyle(style) {
			t.Errorf("IsBuiltinStyle(%q) = false", style)
		}
	}
	if IsBuiltinStyle("/tmp/custom.json") {
		t.Error("IsBuiltinStyle(path) = true")
	}
}

func TestTUIThemes(t *testing.T) {
	if !SetTUITheme("nord") {
		t.Fatal("SetTUITheme(nord) = false")
	}
	if got := GetTUITheme().Name; got != "nord" {
		t.Errorf("active theme = %q, want nord", got)
	}
	if SetTUITheme("does-not-exist") {
		t.Error("SetTUITheme(unknown) = true")
	}
	// Unknown theme leaves the active one unchanged
	if got := GetTUITheme().Name; got != "nord" {
		t.Errorf("active theme = %q after failed switch, want nord", got)
	}
	SetTUITheme("tokyonight")

	theme := TokyoNightTheme
	if theme.AgentColor(0) != theme.AgentColor(len(theme.AgentColors)) {
		t.Error("AgentColor does not cycle")
	}
}
