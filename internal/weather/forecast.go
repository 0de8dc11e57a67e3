package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SnowEstimate is a blended monthly snowfall estimate for the remaining days
// of a month. Past days are locked in and never counted.
type SnowEstimate struct {
	SnowDaysForecast   int
	ForecastDays       int
	DaysRemaining      int
	DaysInMonth        int
	ForecastSnowInches float64
	BlendedSnowInches  float64
	ClimoMonthlyAvg    *float64
	DaysBeyondForecast int
	Confidence         string // "high", "medium", "low"
}

type openMeteoDaily struct {
	Time        []string   `json:"time"`
	TempMax     []*float64 `json:"temperature_2m_max"`
	TempMin     []*float64 `json:"temperature_2m_min"`
	PrecipSum   []*float64 `json:"precipitation_sum"`
	SnowfallSum []*float64 `json:"snowfall_sum"`
}

type openMeteoResponse struct {
	Daily openMeteoDaily `json:"daily"`
}

type noaaForecast struct {
	Properties struct {
		Periods []struct {
			IsDaytime   bool    `json:"isDaytime"`
			StartTime   string  `json:"startTime"`
			Temperature float64 `json:"temperature"`
		} `json:"periods"`
	} `json:"properties"`
}

// ForecastSource is what the evaluator needs from a forecast provider.
type ForecastSource interface {
	ForecastHigh(ctx context.Context, city string, date time.Time) (float64, bool)
	MonthlySnowEstimate(ctx context.Context, city string, month time.Month, year int) SnowEstimate
}

// ForecastClient fetches Open-Meteo 16-day forecasts with a NOAA 7-day
// fallback for daily highs. Responses are cached per city for the life of a
// run (these bots are short cron processes, so a run-scoped TTL is enough).
type ForecastClient struct {
	http         *http.Client
	openMeteoURL string
	noaaURL      string
	userAgent    string

	mu        sync.Mutex
	omCache   map[string]*openMeteoDaily
	noaaCache map[string]float64

	now func() time.Time
}

// NewForecastClient builds a client against the public forecast APIs.
func NewForecastClient() *ForecastClient {
	return &ForecastClient{
		http:         &http.Client{Timeout: 10 * time.Second},
		openMeteoURL: "https://api.open-meteo.com/v1/forecast",
		noaaURL:      "https://api.weather.gov",
		userAgent:    "kalshibot-weather/2.0",
		omCache:      make(map[string]*openMeteoDaily),
		noaaCache:    make(map[string]float64),
		now:          time.Now,
	}
}

func (f *ForecastClient) openMeteo(ctx context.Context, cityCode string) *openMeteoDaily {
	f.mu.Lock()
	cached, ok := f.omCache[cityCode]
	f.mu.Unlock()
	if ok {
		return cached
	}

	city, ok := Cities[cityCode]
	if !ok {
		return nil
	}
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.2f", city.Lat))
	q.Set("longitude", fmt.Sprintf("%.2f", city.Lon))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum,precipitation_probability_max")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("precipitation_unit", "inch")
	q.Set("timezone", "auto")
	q.Set("forecast_days", "16")

	var resp openMeteoResponse
	if err := f.getJSON(ctx, f.openMeteoURL+"?"+q.Encode(), &resp); err != nil {
		log.Warn().Err(err).Str("city", cityCode).Msg("Open-Meteo fetch failed")
		return nil
	}

	f.mu.Lock()
	f.omCache[cityCode] = &resp.Daily
	f.mu.Unlock()
	return &resp.Daily
}

func (f *ForecastClient) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("forecast API returned %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ForecastHigh returns the high-temperature forecast for a city on a date.
// Open-Meteo's 16-day window is tried first, then the NOAA 7-day gridpoint
// forecast. Returns false when neither source covers the date.
func (f *ForecastClient) ForecastHigh(ctx context.Context, cityCode string, date time.Time) (float64, bool) {
	target := date.Format("2006-01-02")

	if om := f.openMeteo(ctx, cityCode); om != nil {
		for i, d := range om.Time {
			if d == target && i < len(om.TempMax) && om.TempMax[i] != nil {
				return *om.TempMax[i], true
			}
		}
	}

	city, ok := Cities[cityCode]
	if !ok {
		return 0, false
	}
	cacheKey := cityCode + "_" + target
	f.mu.Lock()
	if v, ok := f.noaaCache[cacheKey]; ok {
		f.mu.Unlock()
		return v, true
	}
	f.mu.Unlock()

	u := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", f.noaaURL, city.NOAAOffice, city.GridX, city.GridY)
	var fc noaaForecast
	if err := f.getJSON(ctx, u, &fc); err != nil {
		log.Debug().Err(err).Str("city", cityCode).Msg("NOAA fallback failed")
		return 0, false
	}
	for _, p := range fc.Properties.Periods {
		if p.IsDaytime && len(p.StartTime) >= 10 && p.StartTime[:10] == target {
			f.mu.Lock()
			f.noaaCache[cacheKey] = p.Temperature
			f.mu.Unlock()
			return p.Temperature, true
		}
	}
	return 0, false
}

// MonthlySnowEstimate blends the forecast window with climatology for the
// uncovered remainder of the month. Only future days count.
func (f *ForecastClient) MonthlySnowEstimate(ctx context.Context, cityCode string, month time.Month, year int) SnowEstimate {
	today := f.now().UTC()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	est := SnowEstimate{DaysInMonth: daysInMonth(month)}

	switch {
	case year == today.Year() && month == today.Month():
		est.DaysRemaining = est.DaysInMonth - today.Day() + 1
	case time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Before(todayDate):
		est.DaysRemaining = 0
	default:
		est.DaysRemaining = est.DaysInMonth
	}

	om := f.openMeteo(ctx, cityCode)
	if om != nil && est.DaysRemaining > 0 {
		for i, d := range om.Time {
			pd, err := time.Parse("2006-01-02", d)
			if err != nil {
				continue
			}
			if !pd.Before(todayDate) && pd.Month() == month && pd.Year() == year {
				est.ForecastDays++
				sf := 0.0
				if i < len(om.SnowfallSum) && om.SnowfallSum[i] != nil {
					sf = *om.SnowfallSum[i]
				}
				est.ForecastSnowInches += sf
				if sf > 0.01 {
					est.SnowDaysForecast++
				}
			}
		}
	}

	if d := est.DaysRemaining - est.ForecastDays; d > 0 {
		est.DaysBeyondForecast = d
	}

	var climo *float64
	if byMonth, ok := climatology[cityCode]; ok {
		if v, ok := byMonth[month]; ok {
			climo = &v
		}
	}

	if climo != nil && est.DaysInMonth > 0 && est.DaysRemaining > 0 {
		dailyClimo := *climo / float64(est.DaysInMonth)
		est.BlendedSnowInches = est.ForecastSnowInches + dailyClimo*float64(est.DaysBeyondForecast)
		est.ClimoMonthlyAvg = climo
		switch {
		case est.ForecastDays >= est.DaysRemaining:
			est.Confidence = "high"
		case est.ForecastDays >= 5:
			est.Confidence = "medium"
		default:
			est.Confidence = "low"
		}
	} else {
		est.BlendedSnowInches = est.ForecastSnowInches
		if est.ForecastDays < 3 {
			est.Confidence = "low"
		} else {
			est.Confidence = "medium"
		}
	}
	return est
}
