package patient

import (
	"context"
	"fmt"
	"time"
)

// DateLayout is the ISO storage format for all calendar dates.
const DateLayout = "2006-01-02"

// Service validates patient input before it reaches the repository.
type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) Create(ctx context.Context, p *Patient) (int64, error) {
	if err := validate(p); err != nil {
		return 0, err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Patient, error) {
	for _, bound := range []string{params.BirthFrom, params.BirthTo} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, bound); err != nil {
			return nil, fmt.Errorf("%w: birth date bound %q is not a valid date", ErrInvalid, bound)
		}
	}
	return s.patients.Search(ctx, params)
}

func validate(p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalid)
	}
	if p.BirthDate == "" {
		return fmt.Errorf("%w: birth date is required", ErrInvalid)
	}
	if _, err := time.Parse(DateLayout, p.BirthDate); err != nil {
		return fmt.Errorf("%w: birth date %q is not a valid date", ErrInvalid, p.BirthDate)
	}
	if p.Height != nil && *p.Height < 0 {
		return fmt.Errorf("%w: height must not be negative", ErrInvalid)
	}
	return nil
}
