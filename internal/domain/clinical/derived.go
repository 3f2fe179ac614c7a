package clinical

import (
	"fmt"
	"math"
	"time"

	"github.com/gaitdoc/gaitdoc/internal/domain/patient"
)

// ComputeBMI returns weight (kg) divided by squared height (m), or nil when
// the inputs cannot produce one: either value missing, height not positive,
// or weight zero. Stored BMI is always the output of this function for the
// row's own height/weight snapshot.
func ComputeBMI(heightCm, weightKg *float64) *float64 {
	if heightCm == nil || weightKg == nil {
		return nil
	}
	if *heightCm <= 0 || *weightKg == 0 {
		return nil
	}
	m := *heightCm / 100
	bmi := *weightKg / (m * m)
	return &bmi
}

// AgeAtEvent formats the patient's age at an event as "{years}y, {months}m",
// from whole days between the two ISO dates using 365.25-day years and
// 30.44-day months on the remainder. This reproduces the display heuristic
// of the recorded data, not calendar-exact age. Returns "" when either date
// is empty or unparseable.
func AgeAtEvent(birthDate, eventDate string) string {
	if birthDate == "" || eventDate == "" {
		return ""
	}
	bd, err := time.Parse(patient.DateLayout, birthDate)
	if err != nil {
		return ""
	}
	ed, err := time.Parse(patient.DateLayout, eventDate)
	if err != nil {
		return ""
	}
	days := float64(int(ed.Sub(bd).Hours() / 24))
	years := int(math.Floor(days / 365.25))
	months := int(math.Floor(math.Mod(days, 365.25) / 30.44))
	return fmt.Sprintf("%dy, %dm", years, months)
}
