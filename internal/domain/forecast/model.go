package forecast

import "time"

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// RawForecastSample is one 3-hour observation from the upstream
// provider. The JSON tags keep cache round-trips stable.
type RawForecastSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temp        float64   `json:"temp"`
	FeelsLike   float64   `json:"feelsLike"`
	Pressure    float64   `json:"pressure"`
	Humidity    float64   `json:"humidity"`
	Cloudiness  float64   `json:"cloudiness"`
	WindSpeed   float64   `json:"windSpeed"`
	WindGust    float64   `json:"windGust"`
	WindDeg     float64   `json:"windDeg"`
	Visibility  float64   `json:"visibility"`
	Description string    `json:"description"`
	// POP is the probability of precipitation on the 0-1 scale.
	POP float64 `json:"pop"`
	// PartOfDay is "d" for daytime samples and "n" for night samples.
	PartOfDay string  `json:"partOfDay"`
	Rain3h    float64 `json:"rain3h"`
	Snow3h    float64 `json:"snow3h"`
}

// RawForecastSeries is the ordered 3-hour sample series for one city,
// spanning at most the five day fetch horizon.
type RawForecastSeries struct {
	City    string              `json:"city"`
	Sunrise time.Time           `json:"sunrise"`
	Sunset  time.Time           `json:"sunset"`
	Samples []RawForecastSample `json:"samples"`
}

// PeriodTotals accumulates precipitation per part of the day. Hours
// before 06:00 fold into Night, matching the period classification
// used during bucketing.
type PeriodTotals struct {
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Night     float64 `json:"night"`
}

// DailySummary is the aggregated per-day view handed to the composer.
// All values are exact; display rounding happens at the presentation
// boundary.
type DailySummary struct {
	DayOfWeek    string
	RelativeDate string
	Description  string
	TempMin      float64
	TempMax      float64
	TempMean     float64
	FeelsLike    float64
	Pressure     float64
	Humidity     float64
	Cloudiness   float64
	WindSpeed    float64
	WindGust     float64
	WindDeg      float64
	Visibility   float64
	// POPDay and POPNight are mean precipitation probabilities on the
	// percent scale, split by the sample day/night indicator.
	POPDay   float64
	POPNight float64
	Rain     PeriodTotals
	Snow     PeriodTotals
}

// ErrorKind classifies per-city fetch failures.
type ErrorKind string

const (
	// ErrUnresolvableLocation means geocoding returned no usable match.
	ErrUnresolvableLocation ErrorKind = "unresolvable_location"
	// ErrUpstreamFetch means the forecast endpoint failed or returned
	// an unparsable payload.
	ErrUpstreamFetch ErrorKind = "upstream_fetch_failure"
)

// FetchError marks a city whose forecast could not be produced.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
}

func (e *FetchError) Error() string {
	if e.Detail != "" {
		return string(e.Kind) + ": " + e.Detail
	}
	return string(e.Kind)
}

// CityForecast is either a per-day summary map with sunrise/sunset
// times, or an error marker when resolution/fetch failed for the city.
type CityForecast struct {
	Sunrise string
	Sunset  string
	Daily   map[string]DailySummary
	Err     *FetchError
}

// Failed reports whether the city carries an error marker.
func (c CityForecast) Failed() bool {
	return c.Err != nil
}

// FetchResult is the typed outcome of one city in a batch fetch.
type FetchResult struct {
	Series RawForecastSeries
	Err    *FetchError
}
