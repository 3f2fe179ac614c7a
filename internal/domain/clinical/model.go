package clinical

// Exam maps to the exams table: an assessment of a patient on a given date,
// with an optional height/weight/assistive-device snapshot taken at exam
// time. BMI is derived from that snapshot, never set by callers.
type Exam struct {
	ID              int64    `db:"exam_id" json:"id"`
	PatientID       int64    `db:"patient_id" json:"patient_id"`
	ExamType        string   `db:"exam_type" json:"exam_type"`
	ExamDate        string   `db:"exam_date" json:"exam_date"`
	Notes           *string  `db:"notes" json:"notes,omitempty"`
	HeightCm        *float64 `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg        *float64 `db:"weight_kg" json:"weight_kg,omitempty"`
	AssistiveDevice *string  `db:"assistive_device" json:"assistive_device,omitempty"`
	BMI             *float64 `db:"bmi" json:"bmi,omitempty"`
	Examiner        *string  `db:"examiner" json:"examiner,omitempty"`
}

// Intervention maps to the interventions table: a treatment event,
// structurally identical to Exam with an operator instead of an examiner.
type Intervention struct {
	ID               int64    `db:"intervention_id" json:"id"`
	PatientID        int64    `db:"patient_id" json:"patient_id"`
	InterventionType string   `db:"intervention_type" json:"intervention_type"`
	InterventionDate string   `db:"intervention_date" json:"intervention_date"`
	Notes            *string  `db:"notes" json:"notes,omitempty"`
	HeightCm         *float64 `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg         *float64 `db:"weight_kg" json:"weight_kg,omitempty"`
	AssistiveDevice  *string  `db:"assistive_device" json:"assistive_device,omitempty"`
	BMI              *float64 `db:"bmi" json:"bmi,omitempty"`
	Operator         *string  `db:"operator" json:"operator,omitempty"`
}

// Attachment maps to the exam_attachments or intervention_attachments table,
// depending on which repository produced it. FilePath points at the copy the
// file store made at attach time, not the user's original file.
type Attachment struct {
	ID          int64   `db:"file_id" json:"id"`
	ParentID    int64   `db:"parent_id" json:"parent_id"`
	FilePath    string  `db:"file_path" json:"file_path"`
	Description *string `db:"description" json:"description,omitempty"`
}

// Event kinds for timeline entries.
const (
	EventExam         = "exam"
	EventIntervention = "intervention"
)

// TimelineEntry is one row of a patient's merged clinical history: exams and
// interventions together, newest first.
type TimelineEntry struct {
	Kind string  `json:"kind"`
	ID   int64   `json:"id"`
	Type string  `json:"type"`
	Date string  `json:"date"`
	Age  string  `json:"age,omitempty"`
	By   *string `json:"by,omitempty"`
}
