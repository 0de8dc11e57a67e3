package sports

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// PlayerStats summarizes a player's recent games.
type PlayerStats struct {
	Games       int
	AvgPoints   float64
	AvgRebounds float64
	AvgAssists  float64
	AvgThrees   float64
	Points      []float64
	Rebounds    []float64
	Assists     []float64
	Threes      []float64
}

// Avg returns the average for a stat type.
func (s *PlayerStats) Avg(statType string) float64 {
	switch statType {
	case "points":
		return s.AvgPoints
	case "rebounds":
		return s.AvgRebounds
	case "assists":
		return s.AvgAssists
	case "threes":
		return s.AvgThrees
	}
	return 0
}

func (s *PlayerStats) values(statType string) []float64 {
	switch statType {
	case "points":
		return s.Points
	case "rebounds":
		return s.Rebounds
	case "assists":
		return s.Assists
	case "threes":
		return s.Threes
	}
	return nil
}

// StatsSource provides recent-form stats for a player.
type StatsSource interface {
	PlayerStats(ctx context.Context, name string) (*PlayerStats, error)
}

const recentGamesWindow = 10

// BallDontLieClient fetches NBA game logs from the balldontlie API.
type BallDontLieClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	season  string

	mu    sync.Mutex
	cache map[string]*PlayerStats
}

// NewBallDontLieClient builds a stats client. Season is e.g. "2025".
func NewBallDontLieClient(apiKey, season string) *BallDontLieClient {
	return &BallDontLieClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.balldontlie.io/v1",
		apiKey:  apiKey,
		season:  season,
		cache:   make(map[string]*PlayerStats),
	}
}

func (c *BallDontLieClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("balldontlie: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("balldontlie: %s returned %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// PlayerStats returns recent-form averages for a player by full name.
func (c *BallDontLieClient) PlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	c.mu.Lock()
	if cached, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	// Search by full name, retry with last name only.
	playerID, err := c.findPlayer(ctx, name)
	if err != nil {
		parts := strings.Fields(name)
		if len(parts) < 2 {
			return nil, err
		}
		playerID, err = c.findPlayer(ctx, parts[len(parts)-1])
		if err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("player_ids[]", playerID)
	q.Set("per_page", "25")
	if c.season != "" {
		q.Set("seasons[]", c.season)
	}
	raw, err := c.get(ctx, "/stats", q)
	if err != nil {
		return nil, err
	}

	stats := &PlayerStats{}
	gjson.GetBytes(raw, "data").ForEach(func(_, g gjson.Result) bool {
		if stats.Games >= recentGamesWindow {
			return false
		}
		stats.Games++
		stats.Points = append(stats.Points, g.Get("pts").Float())
		stats.Rebounds = append(stats.Rebounds, g.Get("reb").Float())
		stats.Assists = append(stats.Assists, g.Get("ast").Float())
		stats.Threes = append(stats.Threes, g.Get("fg3m").Float())
		return true
	})
	if stats.Games == 0 {
		return nil, fmt.Errorf("balldontlie: no games for %s", name)
	}
	stats.AvgPoints = mean(stats.Points)
	stats.AvgRebounds = mean(stats.Rebounds)
	stats.AvgAssists = mean(stats.Assists)
	stats.AvgThrees = mean(stats.Threes)

	c.mu.Lock()
	c.cache[name] = stats
	c.mu.Unlock()
	return stats, nil
}

func (c *BallDontLieClient) findPlayer(ctx context.Context, search string) (string, error) {
	q := url.Values{}
	q.Set("search", search)
	raw, err := c.get(ctx, "/players", q)
	if err != nil {
		return "", err
	}
	first := gjson.GetBytes(raw, "data.0.id")
	if !first.Exists() {
		return "", fmt.Errorf("balldontlie: player %q not found", search)
	}
	return first.String(), nil
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// OverProbability estimates the chance a player clears a stat threshold,
// blending the recent hit rate (60%) with a delta-bucketed model (40%).
// Returns false when the stat type is unknown or there is no game data.
func OverProbability(stats *PlayerStats, statType string, threshold float64) (float64, bool) {
	if stats == nil {
		return 0, false
	}
	values := stats.values(statType)
	if len(values) == 0 {
		return 0, false
	}

	overCount := 0
	for _, v := range values {
		if v >= threshold {
			overCount++
		}
	}
	hitRate := float64(overCount) / float64(len(values)) * 100

	delta := stats.Avg(statType) - threshold
	var modelProb float64
	switch {
	case delta > 10:
		modelProb = 90
	case delta > 5:
		modelProb = 75
	case delta > 2:
		modelProb = 60
	case delta > 0:
		modelProb = 55
	case delta > -2:
		modelProb = 45
	case delta > -5:
		modelProb = 35
	case delta > -10:
		modelProb = 20
	default:
		modelProb = 10
	}

	blended := hitRate*0.6 + modelProb*0.4
	return math.Round(blended*10) / 10, true
}
