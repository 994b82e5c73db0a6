// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for stepping a recurring schedule.
// Each frequency has a Stepper that moves a date to the next occurrence.
package services

import (
	"fmt"

	"fintrack/internal/core"
)

// Stepper moves a schedule forward by one period of its frequency.
type Stepper interface {
	// Step returns the occurrence following from. Month based steppers place
	// the result on anchorDay, clamped to the end of the target month.
	Step(from core.Date, anchorDay int) core.Date
}

// DayStepper advances by a fixed number of days.
type DayStepper int

func (s DayStepper) Step(from core.Date, _ int) core.Date {
	return from.AddDays(int(s))
}

// MonthStepper advances by a fixed number of calendar months.
type MonthStepper int

func (s MonthStepper) Step(from core.Date, anchorDay int) core.Date {
	return from.AddMonths(int(s), anchorDay)
}

var scheduleSteppers = map[core.Frequency]Stepper{
	core.Daily:     DayStepper(1),
	core.Weekly:    DayStepper(7),
	core.Biweekly:  DayStepper(14),
	core.Monthly:   MonthStepper(1),
	core.Quarterly: MonthStepper(3),
	core.Yearly:    MonthStepper(12),
}

// GetStepper returns the stepper registered for a frequency.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	s, ok := scheduleSteppers[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, string(frequency))
	}
	return s, nil
}

// RegisterStepper installs or replaces the stepper for a frequency. It is not
// safe for use while schedules are being advanced.
func RegisterStepper(frequency core.Frequency, s Stepper) {
	scheduleSteppers[frequency] = s
}
