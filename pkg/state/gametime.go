package state

// Calendar bases for game time. The world runs on a fixed calendar:
// 60-minute hours, 24-hour days, 30-day months, 12-month years.
const (
	MinutesPerHour = 60
	HoursPerDay    = 24
	DaysPerMonth   = 30
	MonthsPerYear  = 12
)

// GameTime is the in-world clock. It only ever moves forward.
type GameTime struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"` // 1..12
	Day     int    `json:"day"`   // 1..30
	Hour    int    `json:"hour"`  // 0..23
	Minute  int    `json:"minute"`
	Weather string `json:"weather,omitempty"`
}

// NewGameTime returns a clock at the start of year 1.
func NewGameTime() GameTime {
	return GameTime{Year: 1, Month: 1, Day: 1, Hour: 8}
}

// Advance returns the time moved forward by the given number of
// minutes, rolling minutes into hours, hours into days, days into
// months and months into years. Negative input is ignored.
func (t GameTime) Advance(minutes int) GameTime {
	if minutes <= 0 {
		return t
	}
	t.Minute += minutes

	t.Hour += t.Minute / MinutesPerHour
	t.Minute %= MinutesPerHour

	t.Day += t.Hour / HoursPerDay
	t.Hour %= HoursPerDay

	// Day and month are 1-based.
	t.Month += (t.Day - 1) / DaysPerMonth
	t.Day = (t.Day-1)%DaysPerMonth + 1

	t.Year += (t.Month - 1) / MonthsPerYear
	t.Month = (t.Month-1)%MonthsPerYear + 1

	return t
}
