package weather

import "time"

// City holds the coordinates Open-Meteo needs plus the NOAA forecast office
// and grid cell for the 7-day fallback.
type City struct {
	Lat        float64
	Lon        float64
	NOAAOffice string
	GridX      int
	GridY      int
}

// Cities maps the city codes Kalshi embeds in weather tickers.
var Cities = map[string]City{
	"CHI":  {41.85, -87.65, "LOT", 76, 73},
	"NY":   {40.71, -74.01, "OKX", 33, 37},
	"NYC":  {40.71, -74.01, "OKX", 33, 37},
	"LA":   {34.05, -118.24, "LOX", 151, 48},
	"DEN":  {39.74, -104.98, "BOU", 57, 62},
	"MIA":  {25.77, -80.19, "MFL", 110, 37},
	"SEA":  {47.61, -122.33, "SEW", 124, 69},
	"ATL":  {33.75, -84.39, "FFC", 52, 88},
	"DAL":  {32.78, -96.80, "FWD", 85, 82},
	"AUS":  {30.27, -97.74, "EWX", 156, 89},
	"PHIL": {39.95, -75.17, "PHI", 49, 68},
	"BOS":  {42.36, -71.06, "BOX", 64, 34},
	"DC":   {38.91, -77.04, "LWX", 97, 70},
	"PHX":  {33.45, -112.07, "PSR", 159, 57},
	"LV":   {36.17, -115.14, "VEF", 40, 36},
	"SLC":  {40.76, -111.89, "SLC", 100, 100},
	"JAC":  {43.48, -110.76, "RIW", 37, 88},
}

// Series lists the weather series the trader scans.
var Series = []string{
	"KXCITIESWEATHER", "HIGHCHI", "KXLOWAUS", "KXHEATWARNING",
	"KXDVHIGH", "KXLAXSNOWM", "KXSLCSNOWM", "KXJACWSNOWM",
	"KXCHISNOWXMAS", "KXDENSNOWXMAS", "AVGTEMP", "KXGTEMP",
}

// climatology is average monthly snowfall in inches, used to fill month days
// past the forecast window.
var climatology = map[string]map[time.Month]float64{
	"SLC": {time.January: 13.0, time.February: 10.5, time.March: 7.5, time.April: 2.0, time.November: 5.0, time.December: 11.0},
	"JAC": {time.January: 40.0, time.February: 35.0, time.March: 20.0, time.November: 18.0, time.December: 35.0},
	"CHI": {time.January: 11.0, time.February: 8.5, time.March: 4.0, time.November: 2.0, time.December: 9.0},
	"DEN": {time.January: 8.0, time.February: 8.0, time.March: 9.5, time.November: 5.0, time.December: 8.0},
	"LA":  {time.January: 0.0, time.February: 0.0, time.March: 0.0, time.December: 0.0},
	"NYC": {time.January: 7.5, time.February: 8.0, time.March: 3.5, time.December: 5.5},
	"BOS": {time.January: 13.0, time.February: 12.0, time.March: 6.0, time.December: 9.0},
	"SEA": {time.January: 2.0, time.February: 1.5, time.March: 0.5, time.December: 2.0},
}

func daysInMonth(month time.Month) int {
	switch month {
	case time.February:
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}
