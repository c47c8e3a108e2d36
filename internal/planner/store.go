package planner

import (
	"sync"
	"time"
)

// PlanStore holds plans awaiting user confirmation. Plans are node-local:
// a confirmation must land on the node that proposed the plan, and an
// expired or already-consumed plan reads as not found.
type PlanStore struct {
	mu    sync.Mutex
	plans map[string]*Plan
	ttl   time.Duration

	now func() time.Time
}

// NewPlanStore creates a store whose plans expire after ttl.
func NewPlanStore(ttl time.Duration) *PlanStore {
	return &PlanStore{
		plans: make(map[string]*Plan),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores a plan pending confirmation.
func (s *PlanStore) Put(plan *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
}

// Take removes and returns the plan, if it exists and has not expired.
// A plan can be taken at most once, so a duplicate confirmation cannot
// execute it twice.
func (s *PlanStore) Take(planID string) (*Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, false
	}
	delete(s.plans, planID)
	if s.now().Sub(plan.CreatedAt) > s.ttl {
		return nil, false
	}
	return plan, true
}

// Sweep drops expired plans and reports how many were removed. Wired to a
// periodic job so abandoned confirmations do not accumulate.
func (s *PlanStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, plan := range s.plans {
		if plan.CreatedAt.Before(cutoff) {
			delete(s.plans, id)
			removed++
		}
	}
	return removed
}

// Len reports how many plans are pending.
func (s *PlanStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}
