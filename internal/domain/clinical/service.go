package clinical

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/gaitdoc/gaitdoc/internal/domain/patient"
	"github.com/gaitdoc/gaitdoc/internal/platform/filestore"
)

// Service validates clinical records, keeps their derived BMI consistent and
// coordinates attachment rows with their on-disk file copies.
type Service struct {
	exams         ExamRepository
	interventions InterventionRepository
	patients      patient.Repository
	files         *filestore.Store
}

func NewService(exams ExamRepository, interventions InterventionRepository, patients patient.Repository, files *filestore.Store) *Service {
	return &Service{
		exams:         exams,
		interventions: interventions,
		patients:      patients,
		files:         files,
	}
}

// -- Exams --

func (s *Service) CreateExam(ctx context.Context, e *Exam) (int64, error) {
	if err := validateEvent(e.ExamType, e.ExamDate, "exam"); err != nil {
		return 0, err
	}
	e.BMI = ComputeBMI(e.HeightCm, e.WeightKg)
	return s.exams.Create(ctx, e)
}

func (s *Service) GetExam(ctx context.Context, id int64) (*Exam, error) {
	return s.exams.GetByID(ctx, id)
}

func (s *Service) ListExams(ctx context.Context, patientID int64) ([]*Exam, error) {
	return s.exams.ListByPatient(ctx, patientID)
}

func (s *Service) UpdateExam(ctx context.Context, e *Exam) error {
	if err := validateEvent(e.ExamType, e.ExamDate, "exam"); err != nil {
		return err
	}
	e.BMI = ComputeBMI(e.HeightCm, e.WeightKg)
	return s.exams.Update(ctx, e)
}

func (s *Service) DeleteExam(ctx context.Context, id int64) error {
	return s.exams.Delete(ctx, id)
}

// -- Interventions --

func (s *Service) CreateIntervention(ctx context.Context, iv *Intervention) (int64, error) {
	if err := validateEvent(iv.InterventionType, iv.InterventionDate, "intervention"); err != nil {
		return 0, err
	}
	iv.BMI = ComputeBMI(iv.HeightCm, iv.WeightKg)
	return s.interventions.Create(ctx, iv)
}

func (s *Service) GetIntervention(ctx context.Context, id int64) (*Intervention, error) {
	return s.interventions.GetByID(ctx, id)
}

func (s *Service) ListInterventions(ctx context.Context, patientID int64) ([]*Intervention, error) {
	return s.interventions.ListByPatient(ctx, patientID)
}

func (s *Service) UpdateIntervention(ctx context.Context, iv *Intervention) error {
	if err := validateEvent(iv.InterventionType, iv.InterventionDate, "intervention"); err != nil {
		return err
	}
	iv.BMI = ComputeBMI(iv.HeightCm, iv.WeightKg)
	return s.interventions.Update(ctx, iv)
}

func (s *Service) DeleteIntervention(ctx context.Context, id int64) error {
	return s.interventions.Delete(ctx, id)
}

// -- Attachments --

// AttachToExam copies the file at srcPath into the attachment store and then
// records it against the exam. The copy happens first: a failed copy leaves
// no row, and a failed insert removes the copy again. An empty description
// defaults to the source file's base name.
func (s *Service) AttachToExam(ctx context.Context, examID int64, srcPath, description string) (*Attachment, error) {
	e, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, s.exams.AddAttachment, filestore.KindExams, e.PatientID, e.ExamDate, examID, srcPath, description)
}

// AttachToIntervention is AttachToExam for interventions.
func (s *Service) AttachToIntervention(ctx context.Context, interventionID int64, srcPath, description string) (*Attachment, error) {
	iv, err := s.interventions.GetByID(ctx, interventionID)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, s.interventions.AddAttachment, filestore.KindInterventions, iv.PatientID, iv.InterventionDate, interventionID, srcPath, description)
}

func (s *Service) ListExamAttachments(ctx context.Context, examID int64) ([]*Attachment, error) {
	return s.exams.ListAttachments(ctx, examID)
}

func (s *Service) ListInterventionAttachments(ctx context.Context, interventionID int64) ([]*Attachment, error) {
	return s.interventions.ListAttachments(ctx, interventionID)
}

// DeleteExamAttachment removes the attachment row, then deletes the stored
// file copy best effort: a file that cannot be removed does not block the
// row deletion.
func (s *Service) DeleteExamAttachment(ctx context.Context, id int64) error {
	return s.detach(ctx, s.exams.GetAttachment, s.exams.DeleteAttachment, id)
}

// DeleteInterventionAttachment is DeleteExamAttachment for interventions.
func (s *Service) DeleteInterventionAttachment(ctx context.Context, id int64) error {
	return s.detach(ctx, s.interventions.GetAttachment, s.interventions.DeleteAttachment, id)
}

func (s *Service) attach(
	ctx context.Context,
	add func(context.Context, *Attachment) (int64, error),
	kind string,
	patientID int64,
	eventDate string,
	parentID int64,
	srcPath, description string,
) (*Attachment, error) {
	pat, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	dest, err := s.files.Add(kind, pat.Key(), eventDate, srcPath)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = filepath.Base(srcPath)
	}
	a := &Attachment{ParentID: parentID, FilePath: dest, Description: &description}
	if _, err := add(ctx, a); err != nil {
		_ = s.files.Remove(dest)
		return nil, err
	}
	return a, nil
}

func (s *Service) detach(
	ctx context.Context,
	get func(context.Context, int64) (*Attachment, error),
	del func(context.Context, int64) error,
	id int64,
) error {
	a, err := get(ctx, id)
	if err != nil {
		return err
	}
	if err := del(ctx, id); err != nil {
		return err
	}
	_ = s.files.Remove(a.FilePath)
	return nil
}

// -- Timeline --

// Timeline returns the patient's exams and interventions merged into one
// list ordered by date descending, each entry annotated with the patient's
// age at the event.
func (s *Service) Timeline(ctx context.Context, patientID int64) ([]TimelineEntry, error) {
	pat, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	interventions, err := s.interventions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(exams)+len(interventions))
	for _, e := range exams {
		entries = append(entries, TimelineEntry{
			Kind: EventExam,
			ID:   e.ID,
			Type: e.ExamType,
			Date: e.ExamDate,
			Age:  AgeAtEvent(pat.BirthDate, e.ExamDate),
			By:   e.Examiner,
		})
	}
	for _, iv := range interventions {
		entries = append(entries, TimelineEntry{
			Kind: EventIntervention,
			ID:   iv.ID,
			Type: iv.InterventionType,
			Date: iv.InterventionDate,
			Age:  AgeAtEvent(pat.BirthDate, iv.InterventionDate),
			By:   iv.Operator,
		})
	}

	// ISO dates sort chronologically as strings.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
	return entries, nil
}

func validateEvent(eventType, eventDate, kind string) error {
	if eventType == "" {
		return fmt.Errorf("%w: %s type is required", ErrInvalid, kind)
	}
	if eventDate == "" {
		return fmt.Errorf("%w: %s date is required", ErrInvalid, kind)
	}
	if _, err := time.Parse(patient.DateLayout, eventDate); err != nil {
		return fmt.Errorf("%w: %s date %q is not a valid date", ErrInvalid, kind, eventDate)
	}
	return nil
}
