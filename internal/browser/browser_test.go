package browser

import "testing"

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		input   string
		want    SupportedBrowser
		wantErr bool
	}{
		{input: "auto", want: BrowserAuto},
		{input: "", want: BrowserAuto},
		{input: "chrome", want: BrowserChrome},
		{input: "google-chrome", want: BrowserChrome},
		{input: "Firefox", want: BrowserFirefox},
		{input: "mozilla-firefox", want: BrowserFirefox},
		{input: "msedge", want: BrowserEdge},
		{input: "chromium", want: BrowserChromium},
		{input: "opera", want: BrowserOpera},
		{input: "netscape", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseBrowser(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBrowser(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBrowser(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBrowser(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMatchesBrowser(t *testing.T) {
	tests := []struct {
		name   string
		target SupportedBrowser
		want   bool
	}{
		{name: "Google Chrome", target: BrowserChrome, want: true},
		{name: "chromium", target: BrowserChrome, want: false},
		{name: "chromium", target: BrowserChromium, want: true},
		{name: "Mozilla Firefox", target: BrowserFirefox, want: true},
		{name: "Microsoft Edge", target: BrowserEdge, want: true},
		{name: "opera-gx", target: BrowserOpera, want: true},
		{name: "safari", target: BrowserChrome, want: false},
		{name: "anything", target: BrowserAuto, want: false},
	}

	for _, tt := range tests {
		if got := matchesBrowser(tt.name, tt.target); got != tt.want {
			t.Errorf("matchesBrowser(%q, %q) = %t, want %t", tt.name, tt.target, got, tt.want)
		}
	}
}
