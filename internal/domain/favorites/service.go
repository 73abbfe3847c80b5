package favorites

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/weather-favorites/pkg/errors"
)

// Service exposes the favorites store.
type Service interface {
	List(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, entry Entry) error
	Remove(ctx context.Context, req RemoveRequest) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService wires the favorites domain.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "favorites.service"),
	}
}

func (s *service) List(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFavoritesError, "failed to load favorites", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *service) Add(ctx context.Context, entry Entry) error {
	entry.CityName = strings.TrimSpace(entry.CityName)
	entry.Region = strings.TrimSpace(entry.Region)
	if entry.CityName == "" || entry.Region == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "cityName and region are required", nil)
	}
	if entry.Coordinates != nil {
		c := entry.Coordinates.Normalize()
		if c.IsZero() {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "coordinates must include latitude and longitude", nil)
		}
		entry.Coordinates = &c
	}
	entry = entry.Clone()

	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return apperrors.Wrap(apperrors.CodeDuplicateFavorite, MessageDuplicate, err)
		}
		s.logger.Error("favorite insert failed", "city", entry.CityName, "region", entry.Region, "error", err)
		return apperrors.Wrap(apperrors.CodeFavoritesError, "failed to add favorite", err)
	}
	s.logger.Info("favorite added", "city", entry.CityName, "region", entry.Region, "records", len(entry.Data))
	return nil
}

func (s *service) Remove(ctx context.Context, req RemoveRequest) error {
	key := KeyOf(req.CityName, req.Region)
	if key.City == "" || key.Region == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "cityName and region are required", nil)
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.Wrap(apperrors.CodeFavoriteNotFound, MessageNotFound, err)
		}
		s.logger.Error("favorite delete failed", "city", req.CityName, "region", req.Region, "error", err)
		return apperrors.Wrap(apperrors.CodeFavoritesError, "failed to remove favorite", err)
	}
	s.logger.Info("favorite removed", "city", req.CityName, "region", req.Region)
	return nil
}
