// Package browser extracts the Elec-Mate web session from installed browsers.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"

	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/models"
)

// appDomain is the domain the web app sets its auth cookie on.
const appDomain = "elec-mate.app"

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserChromium,
		BrowserFirefox,
		BrowserEdge,
		BrowserOpera,
	}
}

// String returns the string representation of the browser
func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of session extraction
type ExtractResult struct {
	Session     *config.Session
	BrowserName string
}

// ExtractSession extracts the Elec-Mate web session from browsers
func ExtractSession(ctx context.Context, browser SupportedBrowser) (*ExtractResult, error) {
	if browser == BrowserAuto {
		return extractFromAllBrowsers(ctx)
	}
	return extractFromBrowser(ctx, browser)
}

// extractFromAllBrowsers tries each supported browser in turn
func extractFromAllBrowsers(ctx context.Context) (*ExtractResult, error) {
	browsers := []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}

	var lastErr error
	for _, browser := range browsers {
		result, err := extractFromBrowser(ctx, browser)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("could not find an Elec-Mate session in any browser: %w", lastErr)
	}
	return nil, fmt.Errorf("could not find an Elec-Mate session in any supported browser")
}

// extractFromBrowser tries all profiles of one browser until it finds the
// session cookie.
func extractFromBrowser(ctx context.Context, browser SupportedBrowser) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matchingStores []kooky.CookieStore
	var browserName string

	for _, store := range stores {
		name := store.Browser()
		if matchesBrowser(strings.ToLower(name), browser) {
			matchingStores = append(matchingStores, store)
			if browserName == "" {
				browserName = name
			}
		} else {
			store.Close()
		}
	}

	if len(matchingStores) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matchingStores {
		result, err := extractSessionFromStore(ctx, store, browserName, store.Profile())
		store.Close()
		if err == nil {
			for _, s := range matchingStores {
				s.Close()
			}
			return result, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

// extractSessionFromStore pulls the auth cookie out of one cookie store
func extractSessionFromStore(ctx context.Context, store kooky.CookieStore, browserName, profile string) (*ExtractResult, error) {
	cookies := store.TraverseCookies(
		kooky.Valid,
		kooky.DomainContains(appDomain),
	).OnlyCookies()

	var accessToken string

	for cookie := range cookies {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if cookie.Name == models.SessionCookieName && accessToken == "" {
			accessToken = cookie.Value
		}
	}

	displayName := browserName
	if profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", browserName, profile)
	}

	if accessToken == "" {
		return nil, fmt.Errorf("cookie %s not found in %s. Please ensure you are logged into %s", models.SessionCookieName, displayName, models.EndpointApp)
	}

	return &ExtractResult{
		Session:     &config.Session{AccessToken: accessToken},
		BrowserName: displayName,
	}, nil
}

// ListAvailableBrowsers returns a list of browsers that have cookie stores
func ListAvailableBrowsers() []string {
	ctx := context.Background()
	stores := kooky.FindAllCookieStores(ctx)
	var browsers []string

	seen := make(map[string]bool)
	for _, store := range stores {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		store.Close()
	}

	return browsers
}
