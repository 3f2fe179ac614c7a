package patient

// SearchField selects the column a text filter applies to.
type SearchField string

// The closed set of searchable columns.
const (
	FieldLastName    SearchField = "last_name"
	FieldDiagnosis   SearchField = "diagnosis"
	FieldPatientCode SearchField = "patient_code"
	FieldPostNumber  SearchField = "post_number"
)

// Normalize returns the field itself when it is one of the searchable
// columns, and FieldLastName otherwise. An unknown selector falls back to
// the default rather than failing.
func (f SearchField) Normalize() SearchField {
	switch f {
	case FieldLastName, FieldDiagnosis, FieldPatientCode, FieldPostNumber:
		return f
	}
	return FieldLastName
}

// SearchParams filters the patient list. Text is a substring match on the
// selected field; empty Text matches everyone. BirthFrom and BirthTo bound
// the birth date as a closed interval (ISO dates, either may be empty). All
// set conditions combine with AND.
type SearchParams struct {
	Field     SearchField
	Text      string
	BirthFrom string
	BirthTo   string
}
