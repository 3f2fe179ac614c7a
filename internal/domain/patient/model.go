package patient

import "strconv"

// Patient maps to the patients table. Optional columns are pointers; an
// empty patient code is stored as NULL so code-less patients never collide
// on the unique index.
type Patient struct {
	ID              int64    `db:"patient_id" json:"id"`
	PatientCode     *string  `db:"patient_code" json:"patient_code,omitempty"`
	FirstName       string   `db:"first_name" json:"first_name"`
	LastName        string   `db:"last_name" json:"last_name"`
	BirthDate       string   `db:"birth_date" json:"birth_date"`
	Diagnosis       *string  `db:"diagnosis" json:"diagnosis,omitempty"`
	Gender          *string  `db:"gender" json:"gender,omitempty"`
	Height          *float64 `db:"height" json:"height,omitempty"`
	AssistiveDevice *string  `db:"assistive_device" json:"assistive_device,omitempty"`
	Address         *string  `db:"address" json:"address,omitempty"`
	PostNumber      *string  `db:"post_number" json:"post_number,omitempty"`
	City            *string  `db:"city" json:"city,omitempty"`
	Country         *string  `db:"country" json:"country,omitempty"`
	Phone           *string  `db:"phone" json:"phone,omitempty"`
	Mobile          *string  `db:"mobile" json:"mobile,omitempty"`
	Email           *string  `db:"email" json:"email,omitempty"`
}

// Key returns the identifier used for on-disk attachment folders: the
// human-readable patient code when present, otherwise the numeric id.
func (p *Patient) Key() string {
	if p.PatientCode != nil && *p.PatientCode != "" {
		return *p.PatientCode
	}
	return strconv.FormatInt(p.ID, 10)
}
