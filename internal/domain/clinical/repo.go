package clinical

import "context"

// ExamRepository persists exams and their attachments. Read-one misses are
// ErrNotFound.
type ExamRepository interface {
	Create(ctx context.Context, e *Exam) (int64, error)
	GetByID(ctx context.Context, id int64) (*Exam, error)
	// ListByPatient returns the patient's exams ordered by exam date
	// descending.
	ListByPatient(ctx context.Context, patientID int64) ([]*Exam, error)
	Update(ctx context.Context, e *Exam) error
	// Delete removes the exam; its attachment rows cascade.
	Delete(ctx context.Context, id int64) error

	AddAttachment(ctx context.Context, a *Attachment) (int64, error)
	GetAttachment(ctx context.Context, id int64) (*Attachment, error)
	// ListAttachments returns the exam's attachments ordered by file id
	// ascending.
	ListAttachments(ctx context.Context, examID int64) ([]*Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
}

// InterventionRepository persists interventions and their attachments, with
// the same contract as ExamRepository.
type InterventionRepository interface {
	Create(ctx context.Context, iv *Intervention) (int64, error)
	GetByID(ctx context.Context, id int64) (*Intervention, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Intervention, error)
	Update(ctx context.Context, iv *Intervention) error
	Delete(ctx context.Context, id int64) error

	AddAttachment(ctx context.Context, a *Attachment) (int64, error)
	GetAttachment(ctx context.Context, id int64) (*Attachment, error)
	ListAttachments(ctx context.Context, interventionID int64) ([]*Attachment, error)
	DeleteAttachment(ctx context.Context, id int64) error
}
