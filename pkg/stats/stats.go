package stats

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/storage"
)

// Statistics are the cooking counters of one chat
type Statistics struct {
	ChatID         int64                     `json:"chat_id"`
	PlansGenerated map[models.Provenance]int `json:"plans_generated"`
	CooksStarted   int                       `json:"cooks_started"`
	CooksFinished  int                       `json:"cooks_finished"`
	BehindPresses  int                       `json:"behind_presses"`
	TotalDelaySec  float64                   `json:"total_delay_sec"`
	Dishes         map[string]int            `json:"dishes"`
	LastCookedAt   time.Time                 `json:"last_cooked_at"`
}

// TotalPlans returns the number of plans generated over all provenances
func (st *Statistics) TotalPlans() int {
	total := 0
	for _, n := range st.PlansGenerated {
		total += n
	}
	return total
}

// Service records cooking statistics per chat
type Service struct {
	store  *storage.Store
	logger *logger.Logger
	now    func() time.Time
	// mu serializes read-modify-write cycles on the stats records
	mu sync.Mutex
}

// New creates a new statistics service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("stats"),
		now:    time.Now,
	}
}

func statsKey(chatID int64) string {
	return fmt.Sprintf("stats:%d", chatID)
}

// GetStatistics retrieves the statistics for a chat. A chat without records
// gets empty statistics.
func (s *Service) GetStatistics(chatID int64) (*Statistics, error) {
	var stats Statistics
	if err := s.store.Get(statsKey(chatID), &stats); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to get statistics: %w", err)
		}
		stats = Statistics{ChatID: chatID}
	}
	if stats.PlansGenerated == nil {
		stats.PlansGenerated = make(map[models.Provenance]int)
	}
	if stats.Dishes == nil {
		stats.Dishes = make(map[string]int)
	}
	return &stats, nil
}

func (s *Service) update(chatID int64, fn func(*Statistics)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.GetStatistics(chatID)
	if err != nil {
		return err
	}
	fn(stats)
	s.logger.Debug("Updated statistics for chat %d", chatID)
	if err := s.store.Set(statsKey(chatID), stats); err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

// RecordPlan counts a generated plan
func (s *Service) RecordPlan(chatID int64, plan *models.Plan) error {
	return s.update(chatID, func(st *Statistics) {
		st.PlansGenerated[plan.Provenance]++
	})
}

// RecordStart counts a started timeline
func (s *Service) RecordStart(chatID int64) error {
	return s.update(chatID, func(st *Statistics) {
		st.CooksStarted++
	})
}

// RecordBehind counts a running-behind press and the delay it added
func (s *Service) RecordBehind(chatID int64, delaySec float64) error {
	return s.update(chatID, func(st *Statistics) {
		st.BehindPresses++
		st.TotalDelaySec += delaySec
	})
}

// RecordFinish counts a timeline that ran to completion
func (s *Service) RecordFinish(chatID int64, dish string) error {
	return s.update(chatID, func(st *Statistics) {
		st.CooksFinished++
		st.Dishes[dish]++
		st.LastCookedAt = s.now()
	})
}

// TopDishes returns up to limit dishes ordered by times cooked, then by name
func (st *Statistics) TopDishes(limit int) []DishCount {
	dishes := make([]DishCount, 0, len(st.Dishes))
	for name, n := range st.Dishes {
		dishes = append(dishes, DishCount{Dish: name, Count: n})
	}
	sort.Slice(dishes, func(i, j int) bool {
		if dishes[i].Count != dishes[j].Count {
			return dishes[i].Count > dishes[j].Count
		}
		return dishes[i].Dish < dishes[j].Dish
	})
	if len(dishes) > limit {
		dishes = dishes[:limit]
	}
	return dishes
}

// DishCount is a dish and how often it was cooked
type DishCount struct {
	Dish  string
	Count int
}
