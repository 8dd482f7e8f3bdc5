package calculator

import "strings"

// Frequency is one row of the fixed instalment frequency table.
type Frequency struct {
	ID    int    `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

const (
	FrequencyDaily      = "DAIL"
	FrequencyWeekly     = "WEEK"
	FrequencyMonthly    = "MNTH"
	FrequencyQuarterly  = "QURT"
	FrequencySemiAnnual = "MIAN"
	FrequencyYearly     = "YEAR"
	FrequencyBiMonthly  = "BIMN"
)

var frequencies = []Frequency{
	{ID: 1, Code: FrequencyDaily, Label: "Daily"},
	{ID: 2, Code: FrequencyWeekly, Label: "Weekly"},
	{ID: 3, Code: FrequencyMonthly, Label: "Monthly"},
	{ID: 4, Code: FrequencyQuarterly, Label: "Quarterly"},
	{ID: 5, Code: FrequencySemiAnnual, Label: "Semi-Annually"},
	{ID: 6, Code: FrequencyYearly, Label: "Yearly"},
	{ID: 7, Code: FrequencyBiMonthly, Label: "Bi-Monthly"},
}

// Frequencies returns a copy of the lookup table.
func Frequencies() []Frequency {
	out := make([]Frequency, len(frequencies))
	copy(out, frequencies)
	return out
}

// ResolveFrequency maps a code to its table row. Unknown codes resolve to
// Monthly.
func ResolveFrequency(code string) Frequency {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, f := range frequencies {
		if f.Code == code {
			return f
		}
	}
	return frequencies[2]
}

// DurationInMonths converts a number of instalments at frequency f into
// calendar months.
func DurationInMonths(f Frequency, tenure int) int {
	switch f.Code {
	case FrequencyDaily:
		return ceilDiv(tenure, 30)
	case FrequencyWeekly:
		return ceilDiv(tenure, 4)
	case FrequencyBiMonthly:
		return tenure * 2
	case FrequencyQuarterly:
		return tenure * 3
	case FrequencySemiAnnual:
		return tenure * 6
	case FrequencyYearly:
		return tenure * 12
	default:
		return tenure
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
