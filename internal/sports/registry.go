package sports

import "strings"

// SeriesInfo describes one Kalshi sports series.
type SeriesInfo struct {
	Sport  string
	Market string
}

// SeriesMap lists every sports series the trader scans.
var SeriesMap = map[string]SeriesInfo{
	// NBA
	"KXNBA":      {"NBA", "game_outcomes"},
	"KXNBAPTS":   {"NBA", "player_points"},
	"KXNBAREB":   {"NBA", "player_rebounds"},
	"KXNBAAST":   {"NBA", "player_assists"},
	"KXNBATHREE": {"NBA", "player_threes"},
	"KXNBAMVP":   {"NBA", "awards"},

	// NFL
	"KXNFL":     {"NFL", "game_outcomes"},
	"KXNFLPASS": {"NFL", "player_pass_yards"},
	"KXNFLRUSH": {"NFL", "player_rush_yards"},
	"KXNFLRECV": {"NFL", "player_rec_yards"},
	"KXNFLTD":   {"NFL", "player_tds"},

	// MLB
	"KXMLB":           {"MLB", "game_outcomes"},
	"KXMLBHITS":       {"MLB", "player_hits"},
	"KXMLBHR":         {"MLB", "player_hr"},
	"KXMLBSTRIKEOUTS": {"MLB", "player_ks"},

	// NHL
	"KXNHL":      {"NHL", "game_outcomes"},
	"KXNHLSAVE":  {"NHL", "goalie_saves"},
	"KXNHLGOALS": {"NHL", "player_goals"},

	// Soccer
	"KXSOCCER":      {"SOCCER", "game_outcomes"},
	"KXSOCCERGOALS": {"SOCCER", "total_goals"},
	"KXCHAMPIONS":   {"SOCCER", "champions_league"},

	// Tennis
	"KXTENNIS":    {"TENNIS", "match_winner"},
	"KXWIMBLEDON": {"TENNIS", "tournament"},
	"KXUSOPEN":    {"TENNIS", "tournament"},

	// Combat
	"KXUFC":    {"UFC", "fight_winner"},
	"KXBOXING": {"BOXING", "fight_winner"},

	// F1
	"KXF1":      {"F1", "race_winner"},
	"KXF1CHAMP": {"F1", "championship"},
}

// Player is a known athlete behind a ticker code.
type Player struct {
	Name string
	Team string
}

// PlayerMap maps the codes Kalshi embeds in prop tickers to players.
var PlayerMap = map[string]Player{
	"DFOX4":        {"De'Aaron Fox", "SAS"},
	"THARRIS12":    {"Tobias Harris", "DET"},
	"DROBINSON55":  {"Duncan Robinson", "DET"},
	"CCUNNINGHAM2": {"Cade Cunningham", "DET"},
	"VWEMBANYAMA1": {"Victor Wembanyama", "SAS"},
	"ATHOMPSON9":   {"Amen Thompson", "HOU"},
	"DDEROZAN10":   {"DeMar DeRozan", "SAC"},
	"JWELLS0":      {"Jaylen Wells", "MEM"},
	"KMURRAY13":    {"Keegan Murray", "SAC"},
	"RWESTBROOK18": {"Russell Westbrook", "DEN"},
	"SCASTLE5":     {"Stephon Castle", "SAS"},
	"TJEROME2":     {"Ty Jerome", "CLE"},
}

// SportFor matches a market to its sport by series ticker or ticker prefix.
func SportFor(seriesTicker, ticker string) (string, bool) {
	for prefix, info := range SeriesMap {
		if seriesTicker == prefix || strings.HasPrefix(ticker, prefix) {
			return info.Sport, true
		}
	}
	return "", false
}

// ExtractPlayer finds a known player code inside a prop ticker.
func ExtractPlayer(ticker string) (Player, string, bool) {
	parts := strings.Split(ticker, "-")
	if len(parts) < 3 {
		return Player{}, "", false
	}
	for _, part := range parts {
		up := strings.ToUpper(part)
		for code, player := range PlayerMap {
			if strings.Contains(up, code) {
				return player, code, true
			}
		}
	}
	return Player{}, "", false
}
