package clinical

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gaitdoc/gaitdoc/internal/domain/patient"
	"github.com/gaitdoc/gaitdoc/internal/platform/db"
	"github.com/gaitdoc/gaitdoc/internal/platform/filestore"
)

type fixture struct {
	conn     *sql.DB
	svc      *Service
	patients patient.Repository
	files    *filestore.Store
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := db.NewMigrator(conn, db.Migrations()).Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	patients := patient.NewRepository(conn)
	files := filestore.New(filepath.Join(dir, "attachments"))
	svc := NewService(NewExamRepository(conn), NewInterventionRepository(conn), patients, files)
	return &fixture{conn: conn, svc: svc, patients: patients, files: files, dir: dir}
}

func (f *fixture) addPatient(t *testing.T, code string) int64 {
	t.Helper()
	p := &patient.Patient{FirstName: "Jane", LastName: "Doe", BirthDate: "1990-05-01"}
	if code != "" {
		p.PatientCode = &code
	}
	id, err := f.patients.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("add patient: %v", err)
	}
	return id
}

func (f *fixture) sourceFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte("report data"), 0o640); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func strPtr(s string) *string { return &s }

func TestCreateExamComputesBMI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	id, err := f.svc.CreateExam(ctx, &Exam{
		PatientID: pid,
		ExamType:  "Gait Assessment",
		ExamDate:  "2024-01-10",
		HeightCm:  floatPtr(170),
		WeightKg:  floatPtr(65),
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	got, err := f.svc.GetExam(ctx, id)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if got.BMI == nil {
		t.Fatal("expected stored BMI")
	}
	if math.Abs(*got.BMI-22.49) > 0.01 {
		t.Errorf("BMI = %.4f, want ~22.49", *got.BMI)
	}
}

func TestCreateExamWithoutMetricsHasNoBMI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	id, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait Assessment", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	got, err := f.svc.GetExam(ctx, id)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if got.BMI != nil {
		t.Errorf("expected no BMI, got %v", *got.BMI)
	}
}

func TestUpdateExamRecomputesBMI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	e := &Exam{PatientID: pid, ExamType: "Gait Assessment", ExamDate: "2024-01-10", HeightCm: floatPtr(170), WeightKg: floatPtr(65)}
	if _, err := f.svc.CreateExam(ctx, e); err != nil {
		t.Fatalf("create exam: %v", err)
	}

	e.WeightKg = floatPtr(80)
	if err := f.svc.UpdateExam(ctx, e); err != nil {
		t.Fatalf("update exam: %v", err)
	}
	got, err := f.svc.GetExam(ctx, e.ID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if got.BMI == nil || math.Abs(*got.BMI-80/(1.7*1.7)) > 1e-9 {
		t.Errorf("BMI not recomputed: %v", got.BMI)
	}

	// Dropping the snapshot clears the derived value too.
	e.HeightCm, e.WeightKg = nil, nil
	if err := f.svc.UpdateExam(ctx, e); err != nil {
		t.Fatalf("update exam: %v", err)
	}
	got, err = f.svc.GetExam(ctx, e.ID)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	if got.BMI != nil {
		t.Errorf("expected BMI cleared, got %v", *got.BMI)
	}
}

func TestExamValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	cases := []*Exam{
		{PatientID: pid, ExamDate: "2024-01-10"},                        // missing type
		{PatientID: pid, ExamType: "Gait"},                              // missing date
		{PatientID: pid, ExamType: "Gait", ExamDate: "10.01.2024"},      // bad date
	}
	for _, e := range cases {
		if _, err := f.svc.CreateExam(ctx, e); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid for %+v, got %v", e, err)
		}
	}
}

func TestListExamsOrderedByDateDescending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	for _, date := range []string{"2023-06-15", "2024-01-10", "2022-11-02"} {
		if _, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: date}); err != nil {
			t.Fatalf("create exam: %v", err)
		}
	}

	exams, err := f.svc.ListExams(ctx, pid)
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	want := []string{"2024-01-10", "2023-06-15", "2022-11-02"}
	if len(exams) != len(want) {
		t.Fatalf("expected %d exams, got %d", len(want), len(exams))
	}
	for i, e := range exams {
		if e.ExamDate != want[i] {
			t.Errorf("position %d: got %s, want %s", i, e.ExamDate, want[i])
		}
	}
}

func TestInterventionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	iv := &Intervention{
		PatientID:        pid,
		InterventionType: "Botulinum toxin injection",
		InterventionDate: "2024-02-20",
		HeightCm:         floatPtr(170),
		WeightKg:         floatPtr(65),
		Operator:         strPtr("Dr. Smith"),
	}
	id, err := f.svc.CreateIntervention(ctx, iv)
	if err != nil {
		t.Fatalf("create intervention: %v", err)
	}

	got, err := f.svc.GetIntervention(ctx, id)
	if err != nil {
		t.Fatalf("get intervention: %v", err)
	}
	if got.InterventionType != iv.InterventionType || got.InterventionDate != iv.InterventionDate {
		t.Errorf("unexpected intervention: %+v", got)
	}
	if got.Operator == nil || *got.Operator != "Dr. Smith" {
		t.Errorf("unexpected operator: %v", got.Operator)
	}
	if got.BMI == nil {
		t.Error("expected stored BMI")
	}

	if err := f.svc.DeleteIntervention(ctx, id); err != nil {
		t.Fatalf("delete intervention: %v", err)
	}
	if _, err := f.svc.GetIntervention(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePatientCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "P-001")

	examID, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	ivID, err := f.svc.CreateIntervention(ctx, &Intervention{PatientID: pid, InterventionType: "Injection", InterventionDate: "2024-02-20"})
	if err != nil {
		t.Fatalf("create intervention: %v", err)
	}
	if _, err := f.svc.AttachToExam(ctx, examID, f.sourceFile(t, "report.pdf"), ""); err != nil {
		t.Fatalf("attach to exam: %v", err)
	}
	if _, err := f.svc.AttachToIntervention(ctx, ivID, f.sourceFile(t, "video.mp4"), ""); err != nil {
		t.Fatalf("attach to intervention: %v", err)
	}

	if err := f.patients.Delete(ctx, pid); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	for _, table := range []string{"exams", "interventions", "exam_attachments", "intervention_attachments"} {
		var count int
		if err := f.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("expected 0 rows in %s after cascade, got %d", table, count)
		}
	}
}

func TestAttachCopiesFileIntoHierarchy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "P-001")

	examID, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	att, err := f.svc.AttachToExam(ctx, examID, f.sourceFile(t, "report.pdf"), "")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	wantSuffix := filepath.Join("exams", "P-001", "2024-01-10", "report.pdf")
	if !strings.HasSuffix(att.FilePath, wantSuffix) {
		t.Errorf("stored path %s does not end with %s", att.FilePath, wantSuffix)
	}
	if _, err := os.Stat(att.FilePath); err != nil {
		t.Errorf("stored copy missing: %v", err)
	}
	if att.Description == nil || *att.Description != "report.pdf" {
		t.Errorf("description should default to file name, got %v", att.Description)
	}

	listed, err := f.svc.ListExamAttachments(ctx, examID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(listed) != 1 || listed[0].FilePath != att.FilePath {
		t.Errorf("unexpected attachment list: %+v", listed)
	}
}

func TestAttachMissingSourceCreatesNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	examID, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	_, err = f.svc.AttachToExam(ctx, examID, filepath.Join(f.dir, "no-such-file.pdf"), "missing")
	if !errors.Is(err, filestore.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}

	listed, err := f.svc.ListExamAttachments(ctx, examID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected no attachment rows, got %d", len(listed))
	}
}

func TestDeleteAttachmentRemovesRowAndFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	examID, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	att, err := f.svc.AttachToExam(ctx, examID, f.sourceFile(t, "report.pdf"), "")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if err := f.svc.DeleteExamAttachment(ctx, att.ID); err != nil {
		t.Fatalf("delete attachment: %v", err)
	}
	if _, err := os.Stat(att.FilePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected stored copy removed, stat err = %v", err)
	}
	listed, err := f.svc.ListExamAttachments(ctx, examID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected no attachment rows, got %d", len(listed))
	}
}

func TestDeleteAttachmentSurvivesMissingFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	examID, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	att, err := f.svc.AttachToExam(ctx, examID, f.sourceFile(t, "report.pdf"), "")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := os.Remove(att.FilePath); err != nil {
		t.Fatalf("remove copy: %v", err)
	}

	// Row deletion proceeds even though the file is already gone.
	if err := f.svc.DeleteExamAttachment(ctx, att.ID); err != nil {
		t.Fatalf("delete attachment: %v", err)
	}
}

func TestTimelineMergesEventsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.addPatient(t, "")

	if _, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Gait", ExamDate: "2024-01-10"}); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	if _, err := f.svc.CreateIntervention(ctx, &Intervention{PatientID: pid, InterventionType: "Injection", InterventionDate: "2024-02-20"}); err != nil {
		t.Fatalf("create intervention: %v", err)
	}
	if _, err := f.svc.CreateExam(ctx, &Exam{PatientID: pid, ExamType: "Follow-up", ExamDate: "2023-06-01"}); err != nil {
		t.Fatalf("create exam: %v", err)
	}

	entries, err := f.svc.Timeline(ctx, pid)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantDates := []string{"2024-02-20", "2024-01-10", "2023-06-01"}
	wantKinds := []string{EventIntervention, EventExam, EventExam}
	for i, e := range entries {
		if e.Date != wantDates[i] || e.Kind != wantKinds[i] {
			t.Errorf("position %d: got (%s, %s), want (%s, %s)", i, e.Kind, e.Date, wantKinds[i], wantDates[i])
		}
		if e.Age == "" {
			t.Errorf("position %d: missing age annotation", i)
		}
	}
	if entries[0].Age != AgeAtEvent("1990-05-01", "2024-02-20") {
		t.Errorf("unexpected age: %s", entries[0].Age)
	}
}
