package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/worktime/internal/geofence"
	"github.com/example/worktime/internal/persistence"
)

// CompanyService exposes the employer record and its geofence.
type CompanyService struct {
	base
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(deps ServiceDeps) *CompanyService {
	return &CompanyService{base: newBase("CompanyService", deps)}
}

// Get returns the company record.
func (s *CompanyService) Get(ctx context.Context) (persistence.Company, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return persistence.Company{}, err
	}
	return snap.Company, nil
}

// Location returns the geofenced workplace.
func (s *CompanyService) Location(ctx context.Context) (persistence.Location, error) {
	company, err := s.Get(ctx)
	if err != nil {
		return persistence.Location{}, err
	}
	return company.Location, nil
}

// CheckLocation reports whether a coordinate lies inside the company fence.
func (s *CompanyService) CheckLocation(ctx context.Context, input CoordinateInput) (geofence.Result, error) {
	vErr := &ValidationError{}
	point := input.point(vErr)
	if vErr.HasErrors() {
		return geofence.Result{}, vErr
	}
	company, err := s.Get(ctx)
	if err != nil {
		return geofence.Result{}, err
	}
	return fenceOf(company).Check(point), nil
}

// Ensure writes company into the document when the stored record is empty
// or override is set. It reports whether anything was written.
func (s *CompanyService) Ensure(ctx context.Context, company persistence.Company, override bool) (written bool, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Ensure", "company", company.Name, "override", override)
	defer func() {
		if err == nil && !written {
			return
		}
		logOutcome(ctx, logger, err, "company configured")
	}()

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if !snap.Company.IsZero() && (!override || snap.Company == company) {
			return errNothingToWrite
		}
		snap.Company = company
		written = true
		return nil
	})
	if errors.Is(err, errNothingToWrite) {
		err = nil
	}
	return
}

var errNothingToWrite = errors.New("nothing to write")

func fenceOf(c persistence.Company) geofence.Fence {
	return geofence.Fence{
		Center: geofence.Point{Latitude: c.Location.Latitude, Longitude: c.Location.Longitude},
		Radius: c.Location.Radius,
	}
}

func pointOf(c persistence.Coordinate) geofence.Point {
	return geofence.Point{Latitude: c.Latitude, Longitude: c.Longitude}
}
