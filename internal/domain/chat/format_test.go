package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
)

func TestFormatDailyRounding(t *testing.T) {
	rendered := formatDaily(forecast.DailySummary{
		DayOfWeek:    "Monday",
		RelativeDate: "today",
		Description:  "light rain",
		TempMin:      11.49,
		TempMax:      18.5,
		TempMean:     14.96,
		Pressure:     1012.3333,
		Humidity:     64.2,
		WindSpeed:    3.456,
		Visibility:   10000,
		POPDay:       37.5,
		Rain:         forecast.PeriodTotals{Morning: 1.2},
	})

	require.Equal(t, "Monday", rendered["Day of the week"])
	require.Equal(t, "today", rendered["Relative Date"])
	require.Equal(t, "light rain", rendered["Weather Description"])
	require.Equal(t, "11 °C", rendered["Minimum Temperature"])
	require.Equal(t, "19 °C", rendered["Maximum Temperature"])
	require.Equal(t, "15 °C", rendered["Average Temperature"])
	require.Equal(t, "1012.33 hPa", rendered["Pressure"])
	require.Equal(t, "64 %", rendered["Humidity"])
	require.Equal(t, "3.46 m/s", rendered["Wind Speed"])
	require.Equal(t, "10000.00 m", rendered["Visibility"])
	require.Equal(t, "38 %", rendered["Probability of Precipitation (Day)"])

	precipitation := rendered["Precipitation"].(map[string]any)
	morning := precipitation["Morning"].(map[string]any)
	require.Equal(t, "1.20 mm", morning["Total Rain"])
	require.Equal(t, "0.00 mm", morning["Total Snow"])
}

func TestFormatForecastsErrorMarker(t *testing.T) {
	out := formatForecasts(map[string]forecast.CityForecast{
		"Nowhereville": {Err: &forecast.FetchError{Kind: forecast.ErrUnresolvableLocation, Detail: "no match"}},
		"Paris":        {Sunrise: "2026-08-31 06:24", Sunset: "2026-08-31 19:58", Daily: map[string]forecast.DailySummary{}},
	})

	failed := out["Nowhereville"].(map[string]any)
	require.Equal(t, "unresolvable_location: no match", failed["error"])

	healthy := out["Paris"].(map[string]any)
	require.Equal(t, "2026-08-31 06:24", healthy["Sunrise"])
	require.Equal(t, "2026-08-31 19:58", healthy["Sunset"])
	require.Contains(t, healthy, "Daily Forecasts")
}
