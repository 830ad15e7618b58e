package analyze

import (
	"fmt"
	"strings"

	"github.com/avelasco/trainsight/internal/garmin"
)

// Bundle is everything gathered for one analysis run.
type Bundle struct {
	Profile      *garmin.UserProfile
	Activities   []garmin.Activity
	Details      map[int64]*garmin.ActivityDetail
	Body         []garmin.BodyComposition
	Sleep        []garmin.SleepSummary
	TrainingPlan string
}

// AthleteName returns the profile name, or a placeholder when the profile
// is missing.
func (b *Bundle) AthleteName() string {
	if b.Profile != nil && b.Profile.FullName != "" {
		return b.Profile.FullName
	}
	return "Athlete"
}

func formatActivities(b *Bundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ACTIVITIES (%d workouts):\n\n", len(b.Activities))

	for idx, a := range b.Activities {
		fmt.Fprintf(&sb, "Activity %d:\n", idx+1)
		fmt.Fprintf(&sb, "  Name: %s\n", a.Name)
		fmt.Fprintf(&sb, "  Type: %s\n", a.Type.TypeKey)
		fmt.Fprintf(&sb, "  Date: %s\n", a.Date())
		fmt.Fprintf(&sb, "  Distance: %.2f km\n", a.DistanceKm())
		fmt.Fprintf(&sb, "  Duration: %.0f min\n", a.DurationMinutes())

		if a.AverageHR != nil {
			fmt.Fprintf(&sb, "  Avg HR: %d bpm\n", *a.AverageHR)
		}
		if a.MaxHR != nil {
			fmt.Fprintf(&sb, "  Max HR: %d bpm\n", *a.MaxHR)
		}
		if a.Calories != nil {
			fmt.Fprintf(&sb, "  Calories: %d\n", *a.Calories)
		}
		if a.AverageSpeed != nil {
			fmt.Fprintf(&sb, "  Avg speed: %.2f m/s\n", *a.AverageSpeed)
		}
		if a.ElevationGain != nil {
			fmt.Fprintf(&sb, "  Elevation gain: %.0f m\n", *a.ElevationGain)
		}

		if d := b.Details[a.ID]; d != nil {
			if d.AveragePower != nil {
				fmt.Fprintf(&sb, "  Avg power: %.0f W\n", *d.AveragePower)
			}
			if d.TrainingEffect != nil {
				fmt.Fprintf(&sb, "  Training effect: %.1f\n", *d.TrainingEffect)
			}
			if d.LactateThresholdHR != nil {
				fmt.Fprintf(&sb, "  Threshold HR: %d bpm\n", *d.LactateThresholdHR)
			}
			if d.VO2Max != nil {
				fmt.Fprintf(&sb, "  VO2 max: %.1f\n", *d.VO2Max)
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatBodyComposition(b *Bundle) string {
	if len(b.Body) == 0 {
		return "BODY COMPOSITION:\n  No measurements available in this period"
	}

	var sb strings.Builder
	sb.WriteString("BODY COMPOSITION:\n\n")
	for idx, m := range b.Body {
		fmt.Fprintf(&sb, "Measurement %d:\n", idx+1)
		fmt.Fprintf(&sb, "  Date: %s\n", m.CalendarDate)
		if w := m.WeightKg(); w != nil {
			fmt.Fprintf(&sb, "  Weight: %.1f kg\n", *w)
		}
		if m.BMI != nil {
			fmt.Fprintf(&sb, "  BMI: %.1f\n", *m.BMI)
		}
		if m.BodyFatPercent != nil {
			fmt.Fprintf(&sb, "  Body fat: %.1f%%\n", *m.BodyFatPercent)
		}
		if m.BodyWaterPercent != nil {
			fmt.Fprintf(&sb, "  Body water: %.1f%%\n", *m.BodyWaterPercent)
		}
		if mm := m.MuscleMassKg(); mm != nil {
			fmt.Fprintf(&sb, "  Muscle mass: %.1f kg\n", *mm)
		}
		if bm := m.BoneMassKg(); bm != nil {
			fmt.Fprintf(&sb, "  Bone mass: %.1f kg\n", *bm)
		}
		if m.VisceralFat != nil {
			fmt.Fprintf(&sb, "  Visceral fat: %.0f\n", *m.VisceralFat)
		}
		if m.MetabolicAge != nil {
			fmt.Fprintf(&sb, "  Metabolic age: %d\n", *m.MetabolicAge)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSleep(b *Bundle) string {
	if len(b.Sleep) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("SLEEP:\n\n")
	for _, s := range b.Sleep {
		fmt.Fprintf(&sb, "  %s: %.1f h total, %.1f h deep, %.1f h REM",
			s.CalendarDate,
			float64(s.SleepTimeSeconds)/3600,
			float64(s.DeepSleepSeconds)/3600,
			float64(s.RemSleepSeconds)/3600)
		if s.SleepScore != nil {
			fmt.Fprintf(&sb, ", score %d", *s.SleepScore)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTrainingPlan(b *Bundle) string {
	if b.TrainingPlan == "" {
		return ""
	}
	return "TRAINING PLAN:\n" + b.TrainingPlan
}

