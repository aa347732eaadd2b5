package fetch

import (
	"context"
	"fmt"
	"net/http/cookiejar"

	"r6-tracker/internal/constants"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// HTTPSource fetches pages over plain HTTP with a Cloudflare bypass
// transport. It is the fallback when no browser is available; the tracker
// renders most stats client-side, so this path only sees server-rendered
// markup.
type HTTPSource struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func NewHTTPSource() (*HTTPSource, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetTimeout(constants.HTTPFetchTimeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browser.Chrome())
	client.SetHeader("accept-language", "en-US,en;q=0.9")

	return &HTTPSource{
		client:  client,
		limiter: rate.NewLimiter(constants.HTTPRatePerSecond, constants.HTTPRateBurst),
	}, nil
}

func (s *HTTPSource) FetchPage(ctx context.Context, url string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}

	switch resp.StatusCode() {
	case 200:
		return string(resp.Body()), nil
	case 403, 429, 503:
		// Challenge responses come back with these statuses. Hand the
		// body to the controller when it carries a challenge signature.
		if body := string(resp.Body()); IsChallenge(body) {
			return body, nil
		}
		return "", &Error{Class: ClassTransient, URL: url, Err: fmt.Errorf("status %d", resp.StatusCode())}
	case 404:
		return "", &Error{Class: ClassNotFound, URL: url, Err: fmt.Errorf("status 404")}
	default:
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
}
