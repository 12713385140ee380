package masterdata

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Vendors(ctx context.Context) ([]Vendor, error)
	TaxCodes(ctx context.Context) ([]TaxCode, error)
	Warehouses(ctx context.Context) ([]Warehouse, error)
	UOMs(ctx context.Context) ([]UOM, error)
	Items(ctx context.Context, search string) ([]Item, error)
	Employees(ctx context.Context, status string) ([]Employee, error)
}

// Service exposes reference reads for the workflow modules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Vendors(ctx context.Context) ([]Vendor, error) {
	return s.repo.Vendors(ctx)
}

func (s *Service) TaxCodes(ctx context.Context) ([]TaxCode, error) {
	return s.repo.TaxCodes(ctx)
}

func (s *Service) Warehouses(ctx context.Context) ([]Warehouse, error) {
	return s.repo.Warehouses(ctx)
}

func (s *Service) UOMs(ctx context.Context) ([]UOM, error) {
	return s.repo.UOMs(ctx)
}

func (s *Service) Items(ctx context.Context, search string) ([]Item, error) {
	return s.repo.Items(ctx, search)
}

func (s *Service) Employees(ctx context.Context, status string) ([]Employee, error) {
	return s.repo.Employees(ctx, status)
}

// Bundle aggregates the reference sets form screens load up front.
type Bundle struct {
	Vendors    []Vendor    `json:"vendors"`
	TaxCodes   []TaxCode   `json:"tax_codes"`
	Warehouses []Warehouse `json:"warehouses"`
	UOMs       []UOM       `json:"uoms"`
}

// Lookups fetches the bundle sets concurrently.
func (s *Service) Lookups(ctx context.Context) (Bundle, error) {
	var bundle Bundle
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bundle.Vendors, err = s.repo.Vendors(ctx)
		return err
	})
	g.Go(func() (err error) {
		bundle.TaxCodes, err = s.repo.TaxCodes(ctx)
		return err
	})
	g.Go(func() (err error) {
		bundle.Warehouses, err = s.repo.Warehouses(ctx)
		return err
	})
	g.Go(func() (err error) {
		bundle.UOMs, err = s.repo.UOMs(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}
