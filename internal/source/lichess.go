package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/chessdaily/puzzlefeed/internal/puzzle"
)

// DefaultBaseURL is the public Lichess API.
const DefaultBaseURL = "https://lichess.org"

// Client fetches puzzles from the Lichess API. Transient failures are
// retried a bounded number of times with a constant delay; validation
// failures are never retried.
type Client struct {
	http     *resty.Client
	log      zerolog.Logger
	attempts uint64
	backoff  time.Duration
}

// NewClient builds a Lichess client. An empty baseURL selects the public
// API; timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{
		http:     httpClient,
		log:      log,
		attempts: 2,
		backoff:  2 * time.Second,
	}
}

// payload mirrors the fields of the Lichess puzzle response we consume.
type payload struct {
	Game struct {
		ID  string `json:"id"`
		PGN string `json:"pgn"`
		FEN string `json:"fen"`
	} `json:"game"`
	Puzzle struct {
		ID         string   `json:"id"`
		InitialPly int      `json:"initialPly"`
		Solution   []string `json:"solution"`
		Rating     int      `json:"rating"`
	} `json:"puzzle"`
}

// Rated fetches a random puzzle whose rating falls inside [lower, upper].
func (c *Client) Rated(ctx context.Context, lower, upper int) (*puzzle.Raw, error) {
	return c.fetch(ctx, "/api/puzzle/rated", map[string]string{
		"lowerBound": strconv.Itoa(lower),
		"upperBound": strconv.Itoa(upper),
	})
}

// Themed fetches a random puzzle for a Lichess theme such as "mateIn2".
func (c *Client) Themed(ctx context.Context, theme string) (*puzzle.Raw, error) {
	return c.fetch(ctx, "/api/puzzle/theme", map[string]string{
		"theme": theme,
		"count": "1",
	})
}

func (c *Client) fetch(ctx context.Context, path string, params map[string]string) (*puzzle.Raw, error) {
	var out payload
	backoff := retry.WithMaxRetries(c.attempts, retry.NewConstant(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&out).
			Get(path)
		if err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("puzzle fetch failed, may retry")
			return retry.RetryableError(err)
		}
		if resp.StatusCode() >= 500 {
			c.log.Warn().Int("status", resp.StatusCode()).Str("path", path).Msg("puzzle fetch failed, may retry")
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode()))
		}
		if resp.IsError() {
			return fmt.Errorf("status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	if out.Puzzle.ID == "" || len(out.Puzzle.Solution) == 0 {
		return nil, fmt.Errorf("%w: response missing puzzle fields", ErrSourceUnavailable)
	}
	if out.Game.PGN == "" && out.Game.FEN == "" {
		return nil, fmt.Errorf("%w: response missing game record", ErrSourceUnavailable)
	}

	return &puzzle.Raw{
		ID:         out.Puzzle.ID,
		InitialPly: out.Puzzle.InitialPly,
		Solution:   out.Puzzle.Solution,
		Rating:     out.Puzzle.Rating,
		GamePGN:    out.Game.PGN,
		GameFEN:    out.Game.FEN,
		Source:     "Lichess",
	}, nil
}

// RatedSource adapts Client.Rated to the Source interface.
type RatedSource struct {
	Client *Client
	Lower  int
	Upper  int
}

func (s *RatedSource) Next(ctx context.Context) (*puzzle.Raw, error) {
	return s.Client.Rated(ctx, s.Lower, s.Upper)
}

// ThemedSource fetches by a fixed theme, chosen once per run by the
// caller (normally via the theme rotation cursor).
type ThemedSource struct {
	Client *Client
	Theme  string
}

func (s *ThemedSource) Next(ctx context.Context) (*puzzle.Raw, error) {
	raw, err := s.Client.Themed(ctx, s.Theme)
	if err != nil {
		return nil, err
	}
	raw.Theme = s.Theme
	return raw, nil
}
