// Package ticker parses the weather ticker formats Kalshi uses into typed
// values. Tickers are the only place some contract parameters live (cities,
// thresholds, direction), so parsing failures must surface as typed unknowns
// rather than guesses.
package ticker

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Direction of a temperature condition relative to its threshold.
type Direction int

const (
	DirUnknown Direction = iota
	DirBelow
	DirAbove
)

func (d Direction) String() string {
	switch d {
	case DirBelow:
		return "below"
	case DirAbove:
		return "above"
	}
	return "unknown"
}

// Kind discriminates the ticker families this suite trades.
type Kind int

const (
	KindUnknown Kind = iota
	KindCitiesCombo
	KindMonthlySnow
	KindClimate
)

// Condition is one city leg of a multi-city combo contract.
type Condition struct {
	City      string
	Dir       Direction
	Threshold float64
}

// Parsed is the typed view of a weather ticker.
type Parsed struct {
	Kind       Kind
	TargetDate time.Time // combo contracts; zero when absent
	HasDate    bool
	Conditions []Condition

	// monthly snow fields
	City            string
	Month           time.Month
	Year            int
	ThresholdInches float64
}

var (
	comboDateRe  = regexp.MustCompile(`(\d{2})([A-Z]{3})(\d{2})`)
	comboCityRe  = regexp.MustCompile(`\(([A-Z]{2,5})\)`)
	comboCondRe  = regexp.MustCompile(`\(([A-Z])(\d+(?:\.\d+)?)\)`)
	snowMonthRe  = regexp.MustCompile(`-(\d{2})([A-Z]{3})`)
	snowThreshRe = regexp.MustCompile(`-(\d+(?:\.\d+)?)$`)
)

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// SnowSeriesCity maps monthly/seasonal snowfall series to their city code.
var SnowSeriesCity = map[string]string{
	"KXLAXSNOWM":    "LA",
	"KXSLCSNOWM":    "SLC",
	"KXJACWSNOWM":   "JAC",
	"KXCHISNOWXMAS": "CHI",
	"KXDENSNOWXMAS": "DEN",
}

// Parse classifies a ticker and extracts its typed parameters. Anything it
// cannot place lands in KindUnknown; combo legs whose directional tag is not
// B or T come back as DirUnknown and must not be traded on.
func Parse(t string) Parsed {
	switch {
	case strings.Contains(t, "KXCITIESWEATHER"):
		return parseCombo(t)
	case strings.Contains(t, "SNOWM") || strings.Contains(t, "SNOWXMAS"):
		return parseMonthlySnow(t)
	case strings.Contains(t, "GTEMP") || strings.Contains(t, "AVGTEMP"):
		return Parsed{Kind: KindClimate}
	}
	return Parsed{Kind: KindUnknown}
}

func parseCombo(t string) Parsed {
	p := Parsed{Kind: KindCitiesCombo}

	if m := comboDateRe.FindStringSubmatch(t); m != nil {
		if mon, ok := months[m[2]]; ok {
			yy, _ := strconv.Atoi(m[1])
			dd, _ := strconv.Atoi(m[3])
			p.TargetDate = time.Date(2000+yy, mon, dd, 0, 0, 0, 0, time.UTC)
			p.HasDate = true
		}
	}

	cities := comboCityRe.FindAllStringSubmatch(t, -1)
	conds := comboCondRe.FindAllStringSubmatch(t, -1)
	n := len(cities)
	if len(conds) < n {
		n = len(conds)
	}
	for i := 0; i < n; i++ {
		thr, err := strconv.ParseFloat(conds[i][2], 64)
		if err != nil {
			continue
		}
		dir := DirUnknown
		switch conds[i][1] {
		case "B":
			dir = DirBelow
		case "T":
			dir = DirAbove
		}
		p.Conditions = append(p.Conditions, Condition{
			City:      cities[i][1],
			Dir:       dir,
			Threshold: thr,
		})
	}
	return p
}

func parseMonthlySnow(t string) Parsed {
	p := Parsed{Kind: KindMonthlySnow}

	for series, city := range SnowSeriesCity {
		if strings.HasPrefix(t, series) {
			p.City = city
			break
		}
	}
	if m := snowMonthRe.FindStringSubmatch(t); m != nil {
		if mon, ok := months[m[2]]; ok {
			yy, _ := strconv.Atoi(m[1])
			p.Year = 2000 + yy
			p.Month = mon
		}
	}
	if m := snowThreshRe.FindStringSubmatch(t); m != nil {
		p.ThresholdInches, _ = strconv.ParseFloat(m[1], 64)
	}
	return p
}
