package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gaitdoc/gaitdoc/internal/platform/db"
)

type repoSQLite struct {
	conn *sql.DB
}

// NewRepository creates a Repository backed by the given SQLite connection.
func NewRepository(conn *sql.DB) Repository {
	return &repoSQLite{conn: conn}
}

const patientCols = `patient_id, patient_code, first_name, last_name, birth_date, diagnosis,
	gender, height, assistive_device,
	address, post_number, city, country, phone, mobile, email`

func (r *repoSQLite) Create(ctx context.Context, p *Patient) (int64, error) {
	res, err := r.conn.ExecContext(ctx, `
		INSERT INTO patients (
			patient_code, first_name, last_name, birth_date, diagnosis,
			gender, height, assistive_device,
			address, post_number, city, country, phone, mobile, email
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		nullIfEmpty(p.PatientCode), p.FirstName, p.LastName, p.BirthDate, p.Diagnosis,
		p.Gender, p.Height, p.AssistiveDevice,
		p.Address, p.PostNumber, p.City, p.Country, p.Phone, p.Mobile, p.Email,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicatePatientCode
		}
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("patient id: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *repoSQLite) GetByID(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn.QueryRowContext(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_id = ?`, id))
}

func (r *repoSQLite) Update(ctx context.Context, p *Patient) error {
	res, err := r.conn.ExecContext(ctx, `
		UPDATE patients SET
			patient_code=?, first_name=?, last_name=?, birth_date=?, diagnosis=?,
			gender=?, height=?, assistive_device=?,
			address=?, post_number=?, city=?, country=?, phone=?, mobile=?, email=?
		WHERE patient_id = ?`,
		nullIfEmpty(p.PatientCode), p.FirstName, p.LastName, p.BirthDate, p.Diagnosis,
		p.Gender, p.Height, p.AssistiveDevice,
		p.Address, p.PostNumber, p.City, p.Country, p.Phone, p.Mobile, p.Email,
		p.ID,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicatePatientCode
		}
		return fmt.Errorf("update patient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM patients WHERE patient_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoSQLite) Search(ctx context.Context, params SearchParams) ([]*Patient, error) {
	query := `SELECT ` + patientCols + ` FROM patients`
	var (
		conds []string
		args  []any
	)
	if params.Text != "" {
		// Normalize restricts the column name to the closed search set.
		conds = append(conds, string(params.Field.Normalize())+" LIKE ?")
		args = append(args, "%"+params.Text+"%")
	}
	if params.BirthFrom != "" {
		conds = append(conds, "birth_date >= ?")
		args = append(args, params.BirthFrom)
	}
	if params.BirthTo != "" {
		conds = append(conds, "birth_date <= ?")
		args = append(args, params.BirthTo)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_name"

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(row scanner) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientCode, &p.FirstName, &p.LastName, &p.BirthDate, &p.Diagnosis,
		&p.Gender, &p.Height, &p.AssistiveDevice,
		&p.Address, &p.PostNumber, &p.City, &p.Country, &p.Phone, &p.Mobile, &p.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func nullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
