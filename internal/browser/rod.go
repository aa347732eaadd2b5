package browser

import (
	"context"
	"fmt"
	"time"

	"r6-tracker/internal/constants"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// Chromium owns one headless Chrome process shared by all sessions. Each
// session gets its own stealth page, so sessions stay isolated while the
// process is shared.
type Chromium struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  zerolog.Logger
}

// StartChromium launches a local Chrome, or connects to remoteURL when it
// is non-empty.
func StartChromium(remoteURL string, logger zerolog.Logger) (*Chromium, error) {
	var (
		wsURL string
		lnch  *launcher.Launcher
	)

	if remoteURL != "" {
		wsURL = remoteURL
		logger.Info().Str("url", wsURL).Msg("connecting to remote chrome")
	} else {
		lnch = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled").
			Set("lang", "en-US")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		logger.Info().Str("url", wsURL).Msg("launched local chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &Chromium{browser: b, lnch: lnch, logger: logger}, nil
}

// NewSession opens a fresh stealth page.
func (c *Chromium) NewSession(ctx context.Context) (Session, error) {
	page, err := stealth.Page(c.browser)
	if err != nil {
		return nil, fmt.Errorf("browser: create stealth page: %w", err)
	}
	return &pageSession{page: page}, nil
}

func (c *Chromium) Close() error {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.lnch != nil {
		c.lnch.Cleanup()
	}
	return nil
}

type pageSession struct {
	page *rod.Page
}

// Fetch navigates to the URL, lets the page render, scrolls to the bottom
// so lazy sections (match rows, operator tables) load, and returns the
// serialized DOM.
func (s *pageSession) Fetch(ctx context.Context, url string) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, constants.NavigateTimeout)
	defer cancel()

	page := s.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err == nil {
		select {
		case <-time.After(constants.PageSettleDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	res, err := page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: read DOM: %w", err)
	}
	return res.Value.Str(), nil
}

func (s *pageSession) Close() error {
	return s.page.Close()
}
