package chat

import (
	"fmt"
	"math"

	"github.com/rblch/weather-chatbot/internal/domain/forecast"
)

// formatForecasts renders accumulated forecasts as the display-rounded
// structure the composer prompt is grounded on. The aggregator keeps
// exact numbers; rounding happens only here, at the presentation
// boundary.
func formatForecasts(forecasts map[string]forecast.CityForecast) map[string]any {
	out := make(map[string]any, len(forecasts))
	for city, fc := range forecasts {
		if fc.Failed() {
			out[city] = map[string]any{"error": fc.Err.Error()}
			continue
		}
		daily := make(map[string]any, len(fc.Daily))
		for date, summary := range fc.Daily {
			daily[date] = formatDaily(summary)
		}
		out[city] = map[string]any{
			"Sunrise":         fc.Sunrise,
			"Sunset":          fc.Sunset,
			"Daily Forecasts": daily,
		}
	}
	return out
}

func formatDaily(s forecast.DailySummary) map[string]any {
	return map[string]any{
		"Day of the week":                      s.DayOfWeek,
		"Relative Date":                        s.RelativeDate,
		"Weather Description":                  s.Description,
		"Minimum Temperature":                  rounded(s.TempMin, "°C"),
		"Maximum Temperature":                  rounded(s.TempMax, "°C"),
		"Average Temperature":                  rounded(s.TempMean, "°C"),
		"Feels Like Temperature":               rounded(s.FeelsLike, "°C"),
		"Pressure":                             fixed(s.Pressure, "hPa"),
		"Humidity":                             rounded(s.Humidity, "%"),
		"Cloudiness":                           rounded(s.Cloudiness, "%"),
		"Wind Speed":                           fixed(s.WindSpeed, "m/s"),
		"Wind Gust":                            fixed(s.WindGust, "m/s"),
		"Wind Direction":                       rounded(s.WindDeg, "°"),
		"Visibility":                           fixed(s.Visibility, "m"),
		"Probability of Precipitation (Day)":   rounded(s.POPDay, "%"),
		"Probability of Precipitation (Night)": rounded(s.POPNight, "%"),
		"Precipitation": map[string]any{
			"Morning": map[string]any{
				"Total Rain": fixed(s.Rain.Morning, "mm"),
				"Total Snow": fixed(s.Snow.Morning, "mm"),
			},
			"Afternoon": map[string]any{
				"Total Rain": fixed(s.Rain.Afternoon, "mm"),
				"Total Snow": fixed(s.Snow.Afternoon, "mm"),
			},
			"Night": map[string]any{
				"Total Rain": fixed(s.Rain.Night, "mm"),
				"Total Snow": fixed(s.Snow.Night, "mm"),
			},
		},
	}
}

func rounded(v float64, unit string) string {
	return fmt.Sprintf("%d %s", int(math.Round(v)), unit)
}

func fixed(v float64, unit string) string {
	return fmt.Sprintf("%.2f %s", v, unit)
}
