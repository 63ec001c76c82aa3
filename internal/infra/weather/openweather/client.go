package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
)

const (
	defaultGeoBaseURL      = "https://api.openweathermap.org/geo/1.0/direct"
	defaultForecastBaseURL = "https://api.openweathermap.org/data/2.5/forecast"

	sampleTimeLayout = "2006-01-02 15:04:05"
)

var errServerError = errors.New("upstream server error")

// Client talks to the OpenWeatherMap geocoding and 5-day/3-hour
// forecast endpoints. Calls are guarded by a shared circuit breaker.
type Client struct {
	apiKey          string
	geoBaseURL      string
	forecastBaseURL string
	httpClient      *http.Client
	breaker         *gobreaker.CircuitBreaker
}

// NewClient builds an API client.
func NewClient(apiKey, geoBaseURL, forecastBaseURL string) *Client {
	if strings.TrimSpace(geoBaseURL) == "" {
		geoBaseURL = defaultGeoBaseURL
	}
	if strings.TrimSpace(forecastBaseURL) == "" {
		forecastBaseURL = defaultForecastBaseURL
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		apiKey:          apiKey,
		geoBaseURL:      strings.TrimRight(geoBaseURL, "/"),
		forecastBaseURL: strings.TrimRight(forecastBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: breaker,
	}
}

// Resolve finds coordinates for a free-text city name, taking the
// first geocoding match.
func (c *Client) Resolve(ctx context.Context, city string) (forecast.Coordinates, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("limit", "1")
	query.Set("appid", c.apiKey)

	resp, err := c.doGet(ctx, c.geoBaseURL+"?"+query.Encode())
	if err != nil {
		return forecast.Coordinates{}, &forecast.FetchError{
			Kind:   forecast.ErrUnresolvableLocation,
			Detail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return forecast.Coordinates{}, &forecast.FetchError{
			Kind:       forecast.ErrUnresolvableLocation,
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("geocoding returned status %d", resp.StatusCode),
		}
	}

	var matches []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return forecast.Coordinates{}, &forecast.FetchError{
			Kind:   forecast.ErrUnresolvableLocation,
			Detail: "unparsable geocoding payload: " + err.Error(),
		}
	}
	if len(matches) == 0 {
		return forecast.Coordinates{}, &forecast.FetchError{
			Kind:   forecast.ErrUnresolvableLocation,
			Detail: "no geocoding match for " + city,
		}
	}
	return forecast.Coordinates{Lat: matches[0].Lat, Lon: matches[0].Lon}, nil
}

// FetchForecast retrieves the 5-day/3-hour forecast series in metric
// units for resolved coordinates.
func (c *Client) FetchForecast(ctx context.Context, city string, coords forecast.Coordinates) (forecast.RawForecastSeries, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("units", "metric")
	query.Set("appid", c.apiKey)

	resp, err := c.doGet(ctx, c.forecastBaseURL+"?"+query.Encode())
	if err != nil {
		return forecast.RawForecastSeries{}, &forecast.FetchError{
			Kind:   forecast.ErrUpstreamFetch,
			Detail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return forecast.RawForecastSeries{}, &forecast.FetchError{
			Kind:       forecast.ErrUpstreamFetch,
			StatusCode: resp.StatusCode,
			Detail:     string(body),
		}
	}

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return forecast.RawForecastSeries{}, &forecast.FetchError{
			Kind:   forecast.ErrUpstreamFetch,
			Detail: "unparsable forecast payload: " + err.Error(),
		}
	}

	return toSeries(city, payload), nil
}

// doGet executes the request behind the circuit breaker. Server-side
// failures (5xx, 429) trip the breaker; everything else passes
// through for the caller to classify.
func (c *Client) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, errors.New("unexpected result type from circuit breaker")
	}
	return resp, nil
}

type forecastPayload struct {
	List []struct {
		Dt   int64  `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Pressure  float64 `json:"pressure"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
			Gust  float64 `json:"gust"`
		} `json:"wind"`
		Visibility float64 `json:"visibility"`
		Pop        float64 `json:"pop"`
		Sys        struct {
			Pod string `json:"pod"`
		} `json:"sys"`
		Rain struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Snow struct {
			ThreeH float64 `json:"3h"`
		} `json:"snow"`
		DtTxt string `json:"dt_txt"`
	} `json:"list"`
	City struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"city"`
}

func toSeries(city string, payload forecastPayload) forecast.RawForecastSeries {
	samples := make([]forecast.RawForecastSample, 0, len(payload.List))
	for _, entry := range payload.List {
		ts, err := time.Parse(sampleTimeLayout, entry.DtTxt)
		if err != nil {
			ts = time.Unix(entry.Dt, 0).UTC()
		}
		description := ""
		if len(entry.Weather) > 0 {
			description = entry.Weather[0].Description
		}
		samples = append(samples, forecast.RawForecastSample{
			Timestamp:   ts,
			Temp:        entry.Main.Temp,
			FeelsLike:   entry.Main.FeelsLike,
			Pressure:    entry.Main.Pressure,
			Humidity:    entry.Main.Humidity,
			Cloudiness:  entry.Clouds.All,
			WindSpeed:   entry.Wind.Speed,
			WindGust:    entry.Wind.Gust,
			WindDeg:     entry.Wind.Deg,
			Visibility:  entry.Visibility,
			Description: description,
			POP:         entry.Pop,
			PartOfDay:   entry.Sys.Pod,
			Rain3h:      entry.Rain.ThreeH,
			Snow3h:      entry.Snow.ThreeH,
		})
	}
	return forecast.RawForecastSeries{
		City:    city,
		Sunrise: time.Unix(payload.City.Sunrise, 0),
		Sunset:  time.Unix(payload.City.Sunset, 0),
		Samples: samples,
	}
}

var _ forecast.Provider = (*Client)(nil)
