package forecast

import "time"

// Day period boundaries, half-open on the hour.
const (
	morningStart   = 6
	afternoonStart = 12
	nightStart     = 18
)

type dailyBucket struct {
	temps        []float64
	feelsLike    []float64
	pressure     []float64
	humidity     []float64
	cloudiness   []float64
	windSpeed    []float64
	windGust     []float64
	windDeg      []float64
	visibility   []float64
	descriptions []string
	popDay       []float64
	popNight     []float64
	rain         PeriodTotals
	snow         PeriodTotals
}

// Aggregate turns a raw 3-hour series into per-day summaries keyed by
// ISO date. The reference date drives the relative-date labels, so
// summaries must be recomputed per turn rather than stored.
func Aggregate(series RawForecastSeries, today time.Time) map[string]DailySummary {
	buckets := make(map[string]*dailyBucket)
	order := make([]string, 0, 8)

	for _, sample := range series.Samples {
		dateStr := sample.Timestamp.Format("2006-01-02")
		bucket, ok := buckets[dateStr]
		if !ok {
			bucket = &dailyBucket{}
			buckets[dateStr] = bucket
			order = append(order, dateStr)
		}

		bucket.temps = append(bucket.temps, sample.Temp)
		bucket.feelsLike = append(bucket.feelsLike, sample.FeelsLike)
		bucket.pressure = append(bucket.pressure, sample.Pressure)
		bucket.humidity = append(bucket.humidity, sample.Humidity)
		bucket.cloudiness = append(bucket.cloudiness, sample.Cloudiness)
		bucket.windSpeed = append(bucket.windSpeed, sample.WindSpeed)
		bucket.windGust = append(bucket.windGust, sample.WindGust)
		bucket.windDeg = append(bucket.windDeg, sample.WindDeg)
		bucket.visibility = append(bucket.visibility, sample.Visibility)
		bucket.descriptions = append(bucket.descriptions, sample.Description)

		// Precipitation probability splits on the day/night indicator,
		// not on the time-of-day period, and is kept on the percent scale.
		if sample.PartOfDay == "d" {
			bucket.popDay = append(bucket.popDay, sample.POP*100)
		} else {
			bucket.popNight = append(bucket.popNight, sample.POP*100)
		}

		switch periodFor(sample.Timestamp.Hour()) {
		case "morning":
			bucket.rain.Morning += sample.Rain3h
			bucket.snow.Morning += sample.Snow3h
		case "afternoon":
			bucket.rain.Afternoon += sample.Rain3h
			bucket.snow.Afternoon += sample.Snow3h
		default:
			bucket.rain.Night += sample.Rain3h
			bucket.snow.Night += sample.Snow3h
		}
	}

	summaries := make(map[string]DailySummary, len(buckets))
	for _, dateStr := range order {
		bucket := buckets[dateStr]
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		summaries[dateStr] = DailySummary{
			DayOfWeek:    date.Weekday().String(),
			RelativeDate: relativeLabel(daysBetween(today, date)),
			Description:  mostCommon(bucket.descriptions),
			TempMin:      minOf(bucket.temps),
			TempMax:      maxOf(bucket.temps),
			TempMean:     mean(bucket.temps),
			FeelsLike:    mean(bucket.feelsLike),
			Pressure:     mean(bucket.pressure),
			Humidity:     mean(bucket.humidity),
			Cloudiness:   mean(bucket.cloudiness),
			WindSpeed:    mean(bucket.windSpeed),
			WindGust:     maxOf(bucket.windGust),
			WindDeg:      mean(bucket.windDeg),
			Visibility:   mean(bucket.visibility),
			POPDay:       mean(bucket.popDay),
			POPNight:     mean(bucket.popNight),
			Rain:         bucket.rain,
			Snow:         bucket.snow,
		}
	}
	return summaries
}

// periodFor classifies an hour of day. Anything outside the morning
// and afternoon windows counts as night, including hours before 06:00.
func periodFor(hour int) string {
	switch {
	case hour >= morningStart && hour < afternoonStart:
		return "morning"
	case hour >= afternoonStart && hour < nightStart:
		return "afternoon"
	default:
		return "night"
	}
}

func relativeLabel(deltaDays int) string {
	switch deltaDays {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case 2:
		return "in two days"
	case 3:
		return "in three days"
	default:
		return ""
	}
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// mostCommon returns the modal string; ties resolve to the value seen
// first in the input.
func mostCommon(values []string) string {
	if len(values) == 0 {
		return ""
	}
	counts := make(map[string]int, len(values))
	firstSeen := make(map[string]int, len(values))
	for i, v := range values {
		counts[v]++
		if _, ok := firstSeen[v]; !ok {
			firstSeen[v] = i
		}
	}
	best := values[0]
	for v, n := range counts {
		if n > counts[best] || (n == counts[best] && firstSeen[v] < firstSeen[best]) {
			best = v
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
