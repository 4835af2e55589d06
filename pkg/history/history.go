package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/storage"
)

// DefaultMaxPlans is how many plans a chat keeps before the oldest are pruned
const DefaultMaxPlans = 50

// ErrNoPlans is returned when a chat has no stored plans
var ErrNoPlans = errors.New("no plans generated yet")

// Service stores generated plans per chat. Plans are saved as generated, so a
// stored plan always carries its original offsets.
type Service struct {
	store    *storage.Store
	logger   *logger.Logger
	now      func() time.Time
	maxPlans int
}

// New creates a new history service
func New(store *storage.Store) *Service {
	return &Service{
		store:    store,
		logger:   logger.New("history"),
		now:      time.Now,
		maxPlans: DefaultMaxPlans,
	}
}

func chatPrefix(chatID int64) string {
	return fmt.Sprintf("plan:%d:", chatID)
}

// Save stores a generated plan for a chat
func (s *Service) Save(chatID int64, req models.PlanRequest, plan *models.Plan) (*models.PlanRecord, error) {
	createdAt := s.now()
	record := &models.PlanRecord{
		// Zero padded so that key order is creation order
		ID:        fmt.Sprintf("%s%020d", chatPrefix(chatID), createdAt.UnixNano()),
		ChatID:    chatID,
		Request:   req,
		Plan:      *plan.Clone(),
		CreatedAt: createdAt,
	}

	if err := s.store.Set(record.ID, record); err != nil {
		s.logger.Error("Failed to save plan: %v", err)
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Debug("Saved plan %s (%s)", record.ID, plan.Dish)
	s.prune(chatID)
	return record, nil
}

// prune drops the oldest plans of a chat beyond maxPlans
func (s *Service) prune(chatID int64) {
	keys, err := s.store.List(chatPrefix(chatID), 0, true)
	if err != nil {
		s.logger.Warn("Failed to list plans for pruning: %v", err)
		return
	}
	if len(keys) <= s.maxPlans {
		return
	}
	for _, key := range keys[s.maxPlans:] {
		if err := s.store.Delete(key); err != nil {
			s.logger.Warn("Failed to prune plan %s: %v", key, err)
		}
	}
	s.logger.Debug("Pruned %d old plans of chat %d", len(keys)-s.maxPlans, chatID)
}

// Latest returns the most recently generated plan of a chat
func (s *Service) Latest(chatID int64) (*models.PlanRecord, error) {
	records, err := s.List(chatID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoPlans
	}
	return records[0], nil
}

// List returns up to limit plans of a chat, newest first
func (s *Service) List(chatID int64, limit int) ([]*models.PlanRecord, error) {
	keys, err := s.store.List(chatPrefix(chatID), limit, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	records := make([]*models.PlanRecord, 0, len(keys))
	for _, key := range keys {
		var record models.PlanRecord
		if err := s.store.Get(key, &record); err != nil {
			s.logger.Error("Failed to get plan %s: %v", key, err)
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}
