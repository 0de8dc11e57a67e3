package sports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Injury is one entry from a league injury report.
type Injury struct {
	Player  string
	Team    string
	Status  string
	Details string
	Date    string
}

// InjurySource is what the evaluator needs from an injury provider.
type InjurySource interface {
	PlayerInjury(ctx context.Context, player, sport string) (*Injury, bool)
}

var espnSportPaths = map[string]string{
	"NBA": "basketball/nba",
	"NFL": "football/nfl",
	"MLB": "baseball/mlb",
	"NHL": "hockey/nhl",
}

// ESPNClient fetches league injury reports from ESPN's public site API.
// Reports are cached per sport for the run.
type ESPNClient struct {
	http    *http.Client
	baseURL string

	mu    sync.Mutex
	cache map[string][]Injury
}

func NewESPNClient() *ESPNClient {
	return &ESPNClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://site.api.espn.com/apis/site/v2/sports",
		cache:   make(map[string][]Injury),
	}
}

// Injuries returns the current injury report for a sport. Sports ESPN does
// not cover come back empty.
func (c *ESPNClient) Injuries(ctx context.Context, sport string) ([]Injury, error) {
	path, ok := espnSportPaths[sport]
	if !ok {
		return nil, nil
	}

	c.mu.Lock()
	cached, hit := c.cache[sport]
	c.mu.Unlock()
	if hit {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path+"/injuries", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("espn injuries: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("espn injuries: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var injuries []Injury
	gjson.GetBytes(raw, "injuries").ForEach(func(_, team gjson.Result) bool {
		teamName := team.Get("team.name").String()
		team.Get("injuries").ForEach(func(_, inj gjson.Result) bool {
			injuries = append(injuries, Injury{
				Player:  inj.Get("athlete.displayName").String(),
				Team:    teamName,
				Status:  inj.Get("status").String(),
				Details: inj.Get("details").String(),
				Date:    inj.Get("date").String(),
			})
			return true
		})
		return true
	})

	log.Debug().Str("sport", sport).Int("entries", len(injuries)).Msg("ESPN injury report fetched")
	c.mu.Lock()
	c.cache[sport] = injuries
	c.mu.Unlock()
	return injuries, nil
}

// PlayerInjury looks a player up in the sport's injury report by substring
// match on the display name.
func (c *ESPNClient) PlayerInjury(ctx context.Context, player, sport string) (*Injury, bool) {
	injuries, err := c.Injuries(ctx, sport)
	if err != nil {
		log.Warn().Err(err).Str("sport", sport).Msg("Injury report unavailable")
		return nil, false
	}
	lower := strings.ToLower(player)
	for i := range injuries {
		if strings.Contains(strings.ToLower(injuries[i].Player), lower) {
			return &injuries[i], true
		}
	}
	return nil, false
}
