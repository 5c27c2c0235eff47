package service

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/repository"
	"github.com/Liam-Lillieroth/MetaTask/internal/scheduling"
)

// SuggestionService ищет ближайшие допустимые слоты. Читает без
// блокировок ресурса, поэтому предложенный слот может быть занят к моменту
// отправки; Submit проверяет заново.
type SuggestionService struct {
	store    repository.Store
	defaults scheduling.SuggestOptions
	logger   *zap.Logger
	now      func() time.Time
}

func NewSuggestionService(store repository.Store, defaults scheduling.SuggestOptions, logger *zap.Logger, now func() time.Time) *SuggestionService {
	if now == nil {
		now = time.Now
	}
	return &SuggestionService{store: store, defaults: defaults, logger: logger, now: now}
}

// SuggestRequest уточняет один поиск. Нулевые поля берут значения сервиса.
type SuggestRequest struct {
	Preferred   model.Interval
	Priority    model.Priority
	MaxCount    int
	Granularity time.Duration
	Horizon     time.Duration
}

func (s *SuggestionService) options(req SuggestRequest) scheduling.SuggestOptions {
	opts := s.defaults
	if req.MaxCount > 0 {
		opts.Max = req.MaxCount
	}
	if req.Granularity > 0 {
		opts.Granularity = req.Granularity
	}
	if req.Horizon > 0 {
		opts.Horizon = req.Horizon
	}
	opts.Priority = req.Priority
	opts.Now = s.now()
	return opts
}

// Alternatives возвращает ленивую последовательность кандидатов для ресурса.
// Снимок читается один раз, повторный проход использует его же.
func (s *SuggestionService) Alternatives(ctx context.Context, resourceID uuid.UUID, req SuggestRequest) (iter.Seq[model.Interval], error) {
	if err := req.Preferred.Validate(); err != nil {
		return nil, err
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return nil, model.NewValidationError("priority", "unknown priority %q", req.Priority)
	}

	r := s.store.Repos()
	res, err := getResource(ctx, r, resourceID)
	if err != nil {
		return nil, err
	}

	opts := s.options(req)
	snap, err := loadSnapshot(ctx, r, res, scheduling.SearchWindow(req.Preferred, opts), opts.Now)
	if err != nil {
		return nil, err
	}
	return scheduling.Suggest(snap, req.Preferred, opts), nil
}

// Suggest собирает альтернативы, ближайшие к желаемому началу первыми
func (s *SuggestionService) Suggest(ctx context.Context, resourceID uuid.UUID, req SuggestRequest) ([]model.Interval, error) {
	seq, err := s.Alternatives(ctx, resourceID, req)
	if err != nil {
		return nil, err
	}
	found := slices.Collect(seq)
	if found == nil {
		found = []model.Interval{}
	}

	s.logger.Debug("Suggestions computed",
		zap.String("resource_id", resourceID.String()),
		zap.Time("preferred_start", req.Preferred.Start),
		zap.Int("found", len(found)),
	)
	return found, nil
}
