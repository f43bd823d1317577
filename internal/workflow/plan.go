package workflow

import (
	"fmt"
	"time"

	"fortuna/internal/generation"
	"fortuna/internal/zodiac"
)

// TaskAuto asks Run to pick the task from the calendar via PlanTask.
const TaskAuto = "auto"

// PlanTask selects the long-form task for a calendar date. Each sign owns
// the day of the month matching its position in the zodiac: that day gets
// the yearly outlook in January and the monthly outlook otherwise. Every
// other day falls back to a remedy video.
func PlanTask(sign zodiac.Sign, date time.Time) string {
	if date.Day() == sign.Index {
		if date.Month() == time.January {
			return generation.TaskYearly
		}
		return generation.TaskMonthly
	}
	return generation.TaskRemedy
}

func headerFor(task string, sign zodiac.Sign, date time.Time) string {
	switch task {
	case generation.TaskMonthly:
		return fmt.Sprintf("%s · %s", sign.Name, date.Format("January 2006"))
	case generation.TaskYearly:
		return fmt.Sprintf("%s · %s", sign.Name, date.Format("2006"))
	case generation.TaskRemedy:
		return fmt.Sprintf("%s · Remedies", sign.Name)
	default:
		return fmt.Sprintf("%s · %s", sign.Name, date.Format("2 January"))
	}
}

func dateLabel(task string, date time.Time) string {
	switch task {
	case generation.TaskMonthly:
		return date.Format("January 2006")
	case generation.TaskYearly:
		return date.Format("2006")
	default:
		return date.Format("2 January 2006")
	}
}
