package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/will-chou/capstone-community/internal/geo"
	"github.com/will-chou/capstone-community/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// RecentLimit is how many of a user's own events the profile returns.
const RecentLimit = 10

// UserIndex links an event to its author's metadata.
type UserIndex interface {
	AppendEventEntry(ctx context.Context, email, eventID string) error
}

// Service implements event ingestion and proximity search.
type Service struct {
	repo  Repository
	users UserIndex
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, users UserIndex) *Service {
	return &Service{repo: repo, users: users, now: time.Now, newID: uuid.NewString}
}

// Post stores an event authored by email. Only the location and the category
// are validated; the rest of data is opaque.
func (s *Service) Post(ctx context.Context, email string, at geo.Point, data EventData) (*EventEntry, error) {
	if err := at.Validate(); err != nil {
		return nil, err
	}
	cat, err := ParseCategory(string(data.EventCategory))
	if err != nil {
		return nil, err
	}
	data.EventCategory = cat

	e := &EventEntry{
		ID:           s.newID(),
		EventData:    data,
		LocationHash: geo.Hash(at),
		Lat:          at.Lat,
		Lng:          at.Lng,
		Ts:           s.now().UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("store event: %w", err)
	}
	if err := s.repo.CreateForUser(ctx, email, e); err != nil {
		return nil, fmt.Errorf("store event for %s: %w", email, err)
	}
	if s.users != nil {
		if err := s.users.AppendEventEntry(ctx, email, e.ID); err != nil {
			return nil, fmt.Errorf("link event to %s: %w", email, err)
		}
	}
	metrics.EventsPosted.Inc()
	return e, nil
}

// Nearby returns events within radiusMeters of center, optionally restricted
// to one category. Results are grouped by geohash range and never nil.
func (s *Service) Nearby(ctx context.Context, center geo.Point, radiusMeters float64, category Category) ([]EventEntry, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, geo.ErrInvalidLocation
	}

	bounds := geo.QueryBounds(center, radiusMeters)
	results := make([][]EventEntry, len(bounds))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range bounds {
		g.Go(func() error {
			entries, err := s.repo.RangeByGeohash(gctx, b.Start, b.End)
			if err != nil {
				return fmt.Errorf("range %s..%s: %w", b.Start, b.End, err)
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []EventEntry{}
	seen := map[string]struct{}{}
	for _, entries := range results {
		for _, e := range entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			if geo.Distance(center, geo.Point{Lat: e.Lat, Lng: e.Lng}) > radiusMeters {
				metrics.NearbyCandidates.WithLabelValues("outside").Inc()
				continue
			}
			metrics.NearbyCandidates.WithLabelValues("inside").Inc()
			if category != "" && e.EventData.EventCategory.Effective() != category {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// Recent returns the author's newest events.
func (s *Service) Recent(ctx context.Context, email string) ([]EventEntry, error) {
	entries, err := s.repo.RecentForUser(ctx, email, RecentLimit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []EventEntry{}
	}
	return entries, nil
}
