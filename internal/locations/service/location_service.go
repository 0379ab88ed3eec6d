package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Perismakworo/Shesecure2/internal/apperr"
	circledomain "github.com/Perismakworo/Shesecure2/internal/circles/domain"
	"github.com/Perismakworo/Shesecure2/internal/locations/domain"
	"github.com/Perismakworo/Shesecure2/internal/logging"
)

type LocationStore interface {
	Upsert(ctx context.Context, s domain.Sample) error
	Latest(ctx context.Context, emails []string) (map[string]domain.Sample, error)
	History(ctx context.Context, email string, limit int) ([]domain.HistoryPoint, error)
}

// AudienceResolver is satisfied by the circles service.
type AudienceResolver interface {
	ResolveAudience(ctx context.Context, email string) (*circledomain.Audience, error)
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LocationService struct {
	tx       TxRunner
	store    LocationStore
	audience AudienceResolver
	log      *zap.Logger
	now      func() time.Time
}

func NewLocationService(tx TxRunner, store LocationStore, audience AudienceResolver, log *zap.Logger) *LocationService {
	return &LocationService{
		tx:       tx,
		store:    store,
		audience: audience,
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the receive-time clock. Tests only.
func (s *LocationService) WithClock(now func() time.Time) *LocationService {
	s.now = now
	return s
}

// UpdateLocation records the caller's position at receive time. The live
// row and the history entry are written in one transaction.
func (s *LocationService) UpdateLocation(ctx context.Context, email string, lat, lon float64) (domain.Sample, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return domain.Sample{}, err
	}

	sample := domain.Sample{Email: email, Latitude: lat, Longitude: lon, RecordedAt: s.now().UTC()}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.store.Upsert(ctx, sample)
	})
	if err != nil {
		return domain.Sample{}, apperr.Transaction("locations.update", err)
	}

	logging.FromContext(ctx, s.log).Debug("location updated", zap.String("email", email))
	return sample, nil
}

// CircleLocations returns the last known position of every peer, one
// entry per shared circle. Peers with no recorded position are omitted.
// Results are ordered by circle name then email.
func (s *LocationService) CircleLocations(ctx context.Context, email string) ([]domain.CircleLocation, error) {
	aud, err := s.audience.ResolveAudience(ctx, email)
	if err != nil {
		return nil, apperr.Internal("locations.circle", err)
	}

	out := []domain.CircleLocation{}
	if aud.Size() == 0 {
		return out, nil
	}

	latest, err := s.store.Latest(ctx, aud.Emails())
	if err != nil {
		return nil, apperr.Internal("locations.circle", err)
	}

	for _, p := range aud.Peers {
		sample, ok := latest[p.Email]
		if !ok {
			continue
		}
		for _, c := range p.Circles {
			out = append(out, domain.CircleLocation{
				Email:      p.Email,
				Latitude:   sample.Latitude,
				Longitude:  sample.Longitude,
				CircleName: c.Name,
				PhotoURL:   p.PhotoURL,
				UpdatedAt:  sample.RecordedAt,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CircleName == out[j].CircleName {
			return out[i].Email < out[j].Email
		}
		return out[i].CircleName < out[j].CircleName
	})
	return out, nil
}

// History returns target's samples newest first. The requester may read
// their own history or that of anyone sharing a circle with them.
func (s *LocationService) History(ctx context.Context, requester, target string, limit int) ([]domain.HistoryPoint, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return nil, domain.ErrMemberRequired
	}

	if target != requester {
		aud, err := s.audience.ResolveAudience(ctx, requester)
		if err != nil {
			return nil, apperr.Internal("locations.history", err)
		}
		if !aud.Contains(target) {
			return nil, domain.ErrNotInSharedCircle
		}
	}

	points, err := s.store.History(ctx, target, clampLimit(limit))
	if err != nil {
		return nil, apperr.Internal("locations.history", err)
	}
	return points, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return domain.DefaultHistoryLimit
	case limit > domain.MaxHistoryLimit:
		return domain.MaxHistoryLimit
	default:
		return limit
	}
}
