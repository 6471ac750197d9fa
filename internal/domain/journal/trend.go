package journal

import "time"

// Granularity is the bucket size of a trend
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Layout is the period label format of the bucket
func (g Granularity) Layout() string {
	if g == GranularityMonth {
		return "2006-01"
	}
	return "2006-01-02"
}

// TrendPoint compares donations received with units issued in one period
type TrendPoint struct {
	Period    string `json:"period" bson:"_id"`
	Donations int64  `json:"donations" bson:"donations"`
	Usage     int64  `json:"usage" bson:"usage"`
}

// DailyRange returns the [from, to) range covering the last days days
// including today, in UTC.
func DailyRange(now time.Time, days int) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(days - 1)), today.AddDate(0, 0, 1)
}

// MonthlyRange returns the [from, to) range covering the last months
// calendar months including the current one.
func MonthlyRange(now time.Time, months int) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0), first.AddDate(0, 1, 0)
}

// FillTrend returns one point per period in [from, to), zero for periods
// the aggregation did not return.
func FillTrend(points []TrendPoint, from, to time.Time, g Granularity) []TrendPoint {
	byPeriod := make(map[string]TrendPoint, len(points))
	for _, p := range points {
		byPeriod[p.Period] = p
	}

	var out []TrendPoint
	for t := from; t.Before(to); {
		label := t.Format(g.Layout())
		p, ok := byPeriod[label]
		if !ok {
			p = TrendPoint{Period: label}
		}
		out = append(out, p)
		if g == GranularityMonth {
			t = t.AddDate(0, 1, 0)
		} else {
			t = t.AddDate(0, 0, 1)
		}
	}
	return out
}
