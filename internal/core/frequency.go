package core

import "fmt"

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequency is how often a recurring transaction repeats.
type Frequency string

// Frequencies lists every supported frequency in ascending period order.
var Frequencies = []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}

func (f Frequency) Validate() error {
	for _, known := range Frequencies {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
}
