package fetch

import (
	"fmt"
	"time"

	"r6-tracker/internal/constants"

	"github.com/valyala/fasthttp"
)

const probeURL = "https://r6.tracker.network/"

// Probe checks the tracker site before a cycle spends browser sessions on
// it. A sitewide challenge lets the orchestrator start the cycle already
// degraded instead of burning the first wave of tasks.
type Probe struct {
	client *fasthttp.Client
	url    string
}

func NewProbe() *Probe {
	return &Probe{
		client: &fasthttp.Client{
			ReadTimeout:         constants.ProbeTimeout,
			WriteTimeout:        constants.ProbeTimeout,
			MaxIdleConnDuration: time.Minute,
		},
		url: probeURL,
	}
}

// Check returns (blocked, err): blocked means the site is up but serving
// challenges; err means the site is unreachable.
func (p *Probe) Check() (bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	if err := p.client.DoDeadline(req, resp, time.Now().Add(constants.ProbeTimeout)); err != nil {
		return false, fmt.Errorf("probe: %w", err)
	}

	if IsChallenge(string(resp.Body())) {
		return true, nil
	}
	if code := resp.StatusCode(); code == fasthttp.StatusForbidden || code == fasthttp.StatusServiceUnavailable {
		return true, nil
	}
	return false, nil
}
