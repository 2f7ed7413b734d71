package kaggle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "kernelwatch/pkg/logx"
)

// ErrFetch wraps every listing failure (network, auth, API). The poll loop
// treats it as recoverable: skip the cycle, retry next interval.
var ErrFetch = errors.New("kernel listing fetch failed")

const defaultBaseURL = "https://www.kaggle.com/api/v1"

// Lister is the listing capability the poll loop consumes.
type Lister interface {
	ListKernels(ctx context.Context, competition string) ([]Kernel, error)
}

type Config struct {
	// Username/Key are the Kaggle API credentials (basic auth).
	Username string
	Key      string

	// BaseURL overrides the API endpoint (tests). Empty means kaggle.com.
	BaseURL string

	// Language filters the listing ("python", "r", "all"). Empty means all.
	Language string

	// PageSize caps the number of kernels per listing call. 0 means 100.
	PageSize int

	// Timeout bounds one listing request. 0 means 30s.
	Timeout time.Duration

	// RatePerMin limits outgoing API calls. 0 means 20/min.
	RatePerMin int
}

// Client lists public kernels for one competition via the Kaggle v1 API.
type Client struct {
	cfg     Config
	log     logx.Logger
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config, log logx.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	rpm := cfg.RatePerMin
	if rpm <= 0 {
		rpm = 20
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		log:     log,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

// listedKernel is the subset of the Kaggle kernels/list response we read.
type listedKernel struct {
	Ref    string `json:"ref"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// ListKernels fetches the competition's public kernels sorted by the API's
// own score ordering. Every failure is wrapped in ErrFetch.
func (c *Client) ListKernels(ctx context.Context, competition string) ([]Kernel, error) {
	if strings.TrimSpace(competition) == "" {
		return nil, fmt.Errorf("%w: competition is empty", ErrFetch)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	q := url.Values{}
	q.Set("competition", competition)
	q.Set("sortBy", "scoreDescending")
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" && lang != "all" {
		q.Set("language", lang)
	}

	u := base + "/kernels/list?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		// Read a little of the body for the log; Kaggle errors are JSON.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("kernel listing rejected",
			logx.Int("status", resp.StatusCode),
			logx.String("body", strings.TrimSpace(string(b))))
		return nil, fmt.Errorf("%w: http %d", ErrFetch, resp.StatusCode)
	}

	var listed []listedKernel
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}

	out := make([]Kernel, 0, len(listed))
	for _, k := range listed {
		if strings.TrimSpace(k.Ref) == "" {
			continue
		}
		out = append(out, Kernel{
			Ref:    k.Ref,
			Title:  k.Title,
			Author: k.Author,
			URL:    "https://www.kaggle.com/code/" + k.Ref,
		})
	}

	c.log.Debug("kernel listing fetched",
		logx.String("competition", competition),
		logx.Int("kernels", len(out)),
		logx.Duration("took", time.Since(start)))
	return out, nil
}
