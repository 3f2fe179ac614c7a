package clinical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type examRepoSQLite struct {
	conn  *sql.DB
	files attachmentTable
}

// NewExamRepository creates an ExamRepository backed by the given SQLite
// connection.
func NewExamRepository(conn *sql.DB) ExamRepository {
	return &examRepoSQLite{
		conn:  conn,
		files: attachmentTable{table: "exam_attachments", parentCol: "exam_id"},
	}
}

const examCols = `exam_id, patient_id, exam_type, exam_date, notes,
	height_cm, weight_kg, assistive_device, bmi, examiner`

func (r *examRepoSQLite) Create(ctx context.Context, e *Exam) (int64, error) {
	res, err := r.conn.ExecContext(ctx, `
		INSERT INTO exams (patient_id, exam_type, exam_date, notes,
			height_cm, weight_kg, assistive_device, bmi, examiner)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		e.PatientID, e.ExamType, e.ExamDate, e.Notes,
		e.HeightCm, e.WeightKg, e.AssistiveDevice, e.BMI, e.Examiner,
	)
	if err != nil {
		return 0, fmt.Errorf("insert exam: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("exam id: %w", err)
	}
	e.ID = id
	return id, nil
}

func (r *examRepoSQLite) GetByID(ctx context.Context, id int64) (*Exam, error) {
	return scanExam(r.conn.QueryRowContext(ctx,
		`SELECT `+examCols+` FROM exams WHERE exam_id = ?`, id))
}

func (r *examRepoSQLite) ListByPatient(ctx context.Context, patientID int64) ([]*Exam, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+examCols+` FROM exams WHERE patient_id = ? ORDER BY exam_date DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var exams []*Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}
	return exams, nil
}

func (r *examRepoSQLite) Update(ctx context.Context, e *Exam) error {
	res, err := r.conn.ExecContext(ctx, `
		UPDATE exams SET exam_type=?, exam_date=?, notes=?,
			height_cm=?, weight_kg=?, assistive_device=?, bmi=?, examiner=?
		WHERE exam_id = ?`,
		e.ExamType, e.ExamDate, e.Notes,
		e.HeightCm, e.WeightKg, e.AssistiveDevice, e.BMI, e.Examiner,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return rowExisted(res, "update exam")
}

func (r *examRepoSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM exams WHERE exam_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return rowExisted(res, "delete exam")
}

func (r *examRepoSQLite) AddAttachment(ctx context.Context, a *Attachment) (int64, error) {
	return r.files.add(ctx, r.conn, a)
}

func (r *examRepoSQLite) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	return r.files.get(ctx, r.conn, id)
}

func (r *examRepoSQLite) ListAttachments(ctx context.Context, examID int64) ([]*Attachment, error) {
	return r.files.list(ctx, r.conn, examID)
}

func (r *examRepoSQLite) DeleteAttachment(ctx context.Context, id int64) error {
	return r.files.delete(ctx, r.conn, id)
}

type interventionRepoSQLite struct {
	conn  *sql.DB
	files attachmentTable
}

// NewInterventionRepository creates an InterventionRepository backed by the
// given SQLite connection.
func NewInterventionRepository(conn *sql.DB) InterventionRepository {
	return &interventionRepoSQLite{
		conn:  conn,
		files: attachmentTable{table: "intervention_attachments", parentCol: "intervention_id"},
	}
}

const interventionCols = `intervention_id, patient_id, intervention_type, intervention_date, notes,
	height_cm, weight_kg, assistive_device, bmi, operator`

func (r *interventionRepoSQLite) Create(ctx context.Context, iv *Intervention) (int64, error) {
	res, err := r.conn.ExecContext(ctx, `
		INSERT INTO interventions (patient_id, intervention_type, intervention_date, notes,
			height_cm, weight_kg, assistive_device, bmi, operator)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		iv.PatientID, iv.InterventionType, iv.InterventionDate, iv.Notes,
		iv.HeightCm, iv.WeightKg, iv.AssistiveDevice, iv.BMI, iv.Operator,
	)
	if err != nil {
		return 0, fmt.Errorf("insert intervention: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("intervention id: %w", err)
	}
	iv.ID = id
	return id, nil
}

func (r *interventionRepoSQLite) GetByID(ctx context.Context, id int64) (*Intervention, error) {
	return scanIntervention(r.conn.QueryRowContext(ctx,
		`SELECT `+interventionCols+` FROM interventions WHERE intervention_id = ?`, id))
}

func (r *interventionRepoSQLite) ListByPatient(ctx context.Context, patientID int64) ([]*Intervention, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+interventionCols+` FROM interventions WHERE patient_id = ? ORDER BY intervention_date DESC`,
		patientID)
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	defer rows.Close()

	var interventions []*Intervention
	for rows.Next() {
		iv, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		interventions = append(interventions, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interventions: %w", err)
	}
	return interventions, nil
}

func (r *interventionRepoSQLite) Update(ctx context.Context, iv *Intervention) error {
	res, err := r.conn.ExecContext(ctx, `
		UPDATE interventions SET intervention_type=?, intervention_date=?, notes=?,
			height_cm=?, weight_kg=?, assistive_device=?, bmi=?, operator=?
		WHERE intervention_id = ?`,
		iv.InterventionType, iv.InterventionDate, iv.Notes,
		iv.HeightCm, iv.WeightKg, iv.AssistiveDevice, iv.BMI, iv.Operator,
		iv.ID,
	)
	if err != nil {
		return fmt.Errorf("update intervention: %w", err)
	}
	return rowExisted(res, "update intervention")
}

func (r *interventionRepoSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM interventions WHERE intervention_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete intervention: %w", err)
	}
	return rowExisted(res, "delete intervention")
}

func (r *interventionRepoSQLite) AddAttachment(ctx context.Context, a *Attachment) (int64, error) {
	return r.files.add(ctx, r.conn, a)
}

func (r *interventionRepoSQLite) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	return r.files.get(ctx, r.conn, id)
}

func (r *interventionRepoSQLite) ListAttachments(ctx context.Context, interventionID int64) ([]*Attachment, error) {
	return r.files.list(ctx, r.conn, interventionID)
}

func (r *interventionRepoSQLite) DeleteAttachment(ctx context.Context, id int64) error {
	return r.files.delete(ctx, r.conn, id)
}

// attachmentTable implements attachment CRUD for one of the two attachment
// tables; exams and interventions differ only in table and parent column
// names.
type attachmentTable struct {
	table     string
	parentCol string
}

func (t attachmentTable) add(ctx context.Context, conn *sql.DB, a *Attachment) (int64, error) {
	res, err := conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, file_path, description) VALUES (?,?,?)`, t.table, t.parentCol),
		a.ParentID, a.FilePath, a.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("attachment id: %w", err)
	}
	a.ID = id
	return id, nil
}

func (t attachmentTable) get(ctx context.Context, conn *sql.DB, id int64) (*Attachment, error) {
	var a Attachment
	err := conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT file_id, %s, file_path, description FROM %s WHERE file_id = ?`, t.parentCol, t.table),
		id,
	).Scan(&a.ID, &a.ParentID, &a.FilePath, &a.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	return &a, nil
}

func (t attachmentTable) list(ctx context.Context, conn *sql.DB, parentID int64) ([]*Attachment, error) {
	rows, err := conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT file_id, %s, file_path, description FROM %s WHERE %s = ? ORDER BY file_id`,
			t.parentCol, t.table, t.parentCol),
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.ParentID, &a.FilePath, &a.Description); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

func (t attachmentTable) delete(ctx context.Context, conn *sql.DB, id int64) error {
	res, err := conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, t.table), id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return rowExisted(res, "delete attachment")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExam(row scanner) (*Exam, error) {
	var e Exam
	err := row.Scan(
		&e.ID, &e.PatientID, &e.ExamType, &e.ExamDate, &e.Notes,
		&e.HeightCm, &e.WeightKg, &e.AssistiveDevice, &e.BMI, &e.Examiner,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan exam: %w", err)
	}
	return &e, nil
}

func scanIntervention(row scanner) (*Intervention, error) {
	var iv Intervention
	err := row.Scan(
		&iv.ID, &iv.PatientID, &iv.InterventionType, &iv.InterventionDate, &iv.Notes,
		&iv.HeightCm, &iv.WeightKg, &iv.AssistiveDevice, &iv.BMI, &iv.Operator,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan intervention: %w", err)
	}
	return &iv, nil
}

func rowExisted(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
