package patient

import "context"

// Repository persists patients. Implementations translate storage-level
// uniqueness failures on patient_code to ErrDuplicatePatientCode and
// read-one misses to ErrNotFound.
type Repository interface {
	// Create inserts a patient and returns its store-assigned id, also set
	// on p.
	Create(ctx context.Context, p *Patient) (int64, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	// Update overwrites all mutable fields of the row with p's values.
	Update(ctx context.Context, p *Patient) error
	// Delete removes the patient; exams, interventions and their attachment
	// rows go with it via cascading foreign keys.
	Delete(ctx context.Context, id int64) error
	// Search returns matching patients ordered by last name ascending.
	Search(ctx context.Context, params SearchParams) ([]*Patient, error)
}
