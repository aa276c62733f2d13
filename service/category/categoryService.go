package categorysvc

import (
	"context"

	"github.com/Zedts/backend-digital-library/model"
)

type Repo interface {
	List(ctx context.Context) ([]model.Category, error)
	ListWithBookCount(ctx context.Context) ([]model.Category, error)
	CountAll(ctx context.Context) (int64, error)
}

type Service interface {
	List(ctx context.Context) ([]model.Category, int64, error)
	ListWithBookCount(ctx context.Context) ([]model.Category, int64, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) List(ctx context.Context) ([]model.Category, int64, error) {
	cats, err := s.r.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return cats, total, nil
}

func (s *service) ListWithBookCount(ctx context.Context) ([]model.Category, int64, error) {
	cats, err := s.r.ListWithBookCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return cats, total, nil
}
