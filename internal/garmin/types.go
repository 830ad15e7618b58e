// Package garmin talks to the Garmin Connect style vendor API and layers the
// local TTL cache in front of it.
package garmin

import "time"

// Activity is one recorded workout as returned by the activity search
// endpoint. Field names follow the vendor's JSON.
type Activity struct {
	ID              int64        `json:"activityId"`
	Name            string       `json:"activityName"`
	Type            ActivityType `json:"activityType"`
	StartTimeLocal  string       `json:"startTimeLocal"`
	DistanceMeters  float64      `json:"distance"`
	DurationSeconds float64      `json:"duration"`
	AverageHR       *int         `json:"averageHR,omitempty"`
	MaxHR           *int         `json:"maxHR,omitempty"`
	Calories        *int         `json:"calories,omitempty"`
	AverageSpeed    *float64     `json:"averageSpeed,omitempty"`
	ElevationGain   *float64     `json:"elevationGain,omitempty"`
}

// ActivityType wraps the vendor's nested type descriptor.
type ActivityType struct {
	TypeKey string `json:"typeKey"`
}

// DistanceKm returns the activity distance in kilometers.
func (a Activity) DistanceKm() float64 {
	return a.DistanceMeters / 1000
}

// DurationMinutes returns the activity duration in minutes.
func (a Activity) DurationMinutes() float64 {
	return a.DurationSeconds / 60
}

// Date returns the activity's local calendar date (YYYY-MM-DD).
func (a Activity) Date() string {
	if len(a.StartTimeLocal) >= 10 {
		return a.StartTimeLocal[:10]
	}
	return a.StartTimeLocal
}

// ActivityDetail carries the per-activity metrics the analyzer cares about.
type ActivityDetail struct {
	ActivityID         int64    `json:"activityId"`
	AveragePower       *float64 `json:"averagePower,omitempty"`
	TrainingEffect     *float64 `json:"trainingEffect,omitempty"`
	LactateThresholdHR *int     `json:"lactateThresholdHeartRate,omitempty"`
	VO2Max             *float64 `json:"vO2MaxValue,omitempty"`
}

// BodyComposition is one scale measurement. The vendor reports masses in
// grams; WeightKg and MuscleMassKg normalize for display.
type BodyComposition struct {
	CalendarDate     string   `json:"calendarDate"`
	Weight           *float64 `json:"weight,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	BodyFatPercent   *float64 `json:"bodyFat,omitempty"`
	BodyWaterPercent *float64 `json:"bodyWater,omitempty"`
	MuscleMass       *float64 `json:"muscleMass,omitempty"`
	BoneMass         *float64 `json:"boneMass,omitempty"`
	VisceralFat      *float64 `json:"visceralFat,omitempty"`
	MetabolicAge     *int     `json:"metabolicAge,omitempty"`
}

// WeightKg returns the measured weight in kilograms. Some scales report
// grams and some kilograms; anything above 500 is assumed to be grams.
func (m BodyComposition) WeightKg() *float64 {
	return gramsToKg(m.Weight, 500)
}

// MuscleMassKg returns muscle mass in kilograms, normalizing grams.
func (m BodyComposition) MuscleMassKg() *float64 {
	return gramsToKg(m.MuscleMass, 500)
}

// BoneMassKg returns bone mass in kilograms, normalizing grams.
func (m BodyComposition) BoneMassKg() *float64 {
	return gramsToKg(m.BoneMass, 100)
}

func gramsToKg(v *float64, gramThreshold float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	if out > gramThreshold {
		out /= 1000
	}
	return &out
}

// UserProfile is the athlete's profile snapshot.
type UserProfile struct {
	FullName   string `json:"fullName"`
	UnitSystem string `json:"measurementSystem"`
}

// SleepSummary is one night's sleep rollup.
type SleepSummary struct {
	CalendarDate     string `json:"calendarDate"`
	SleepTimeSeconds int    `json:"sleepTimeSeconds"`
	DeepSleepSeconds int    `json:"deepSleepSeconds"`
	RemSleepSeconds  int    `json:"remSleepSeconds"`
	SleepScore       *int   `json:"sleepScore,omitempty"`
}

// DateRange is a closed [Start, End] calendar window.
type DateRange struct {
	Start time.Time
	End   time.Time
}
