package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/isotope"
	"github.com/bmex-dev/leveldensity/internal/resolver"
	"github.com/bmex-dev/leveldensity/internal/session"
	"github.com/bmex-dev/leveldensity/internal/storage/models"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

type HistoryRecorder interface {
	InsertLookup(ctx context.Context, rec *models.LookupRecord) error
}

// Service is what every UI entry point calls on an input change: resolve the
// isotope, keep the table for export and note the lookup.
type Service struct {
	resolver *resolver.Resolver
	history  HistoryRecorder
}

// NewService builds the service. history may be nil.
func NewService(r *resolver.Resolver, history HistoryRecorder) *Service {
	return &Service{resolver: r, history: history}
}

func (s *Service) Resolve(ctx context.Context, sess *session.Session, params isotope.Params) (*resolver.Result, error) {
	result, err := s.resolver.Resolve(ctx, params)
	if err != nil {
		return nil, err
	}
	if !result.Resolved() {
		return result, nil
	}

	if err := sess.Remember(ctx, result.Table()); err != nil {
		logger.Warn("Failed to cache result for export", zap.String("session_id", sess.ID), zap.Error(err))
	}

	if s.history != nil {
		rec := &models.LookupRecord{
			SessionID:   sess.ID,
			Z:           result.Isotope.Z,
			A:           result.Isotope.A,
			FolderFound: result.FolderFound,
			Files:       len(result.Measurements),
			Skipped:     len(result.Skipped),
			IndexRows:   len(result.Index.Records),
			LatencyMS:   result.LatencyMS,
			CreatedAt:   time.Now(),
		}
		if err := s.history.InsertLookup(ctx, rec); err != nil {
			logger.Warn("Failed to record lookup", zap.Error(err))
		}
	}

	return result, nil
}
