package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/caseflow/caseflow/service/approval"
	"github.com/caseflow/caseflow/service/dao"
	"github.com/caseflow/caseflow/service/dao/store"
	"github.com/caseflow/caseflow/service/messaging"
	qmem "github.com/caseflow/caseflow/service/messaging/memory"
)

type service struct {
	reqDAO dao.Service[string, approval.Request]
	decDAO dao.Service[string, approval.Decision]

	// fan-out queue
	events messaging.Queue[approval.Event]
}

func reqKey(r *approval.Request) string  { return r.ID }
func decKey(d *approval.Decision) string { return d.ID }

// New creates an in-memory approval service.
func New() approval.Service {
	return &service{
		reqDAO: store.NewMemoryStore[string, approval.Request](reqKey),
		decDAO: store.NewMemoryStore[string, approval.Decision](decKey),
		events: qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
}

// RequestApproval files a pending request. Re-submissions for the same task
// overwrite the previous copy so a suspended task can refresh its request.
func (s *service) RequestApproval(ctx context.Context, r *approval.Request) error {
	if r == nil {
		return errors.New("invalid request")
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}
	if err := s.reqDAO.Save(ctx, r); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: r})
	return nil
}

// ListPending returns requests that have no decision yet.
func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	all, err := s.reqDAO.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if d, _ := s.decDAO.Load(ctx, r.ID); d == nil {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// Decide records the outcome for a pending request. Deciding twice for the
// same request is rejected; the first decision is authoritative.
func (s *service) Decide(ctx context.Context, id string, approver string, approved bool, reason string) (*approval.Decision, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	request, _ := s.reqDAO.Load(ctx, id)
	if request == nil {
		return nil, fmt.Errorf("approval request %s: %w", id, dao.ErrNotFound)
	}
	if d, _ := s.decDAO.Load(ctx, id); d != nil {
		return nil, fmt.Errorf("approval request %s already decided", id)
	}

	decision := &approval.Decision{
		ID:        id,
		Approved:  approved,
		Approver:  approver,
		Reason:    reason,
		DecidedAt: clock.Now(),
	}
	if err := s.decDAO.Save(ctx, decision); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: decision})
	return decision, nil
}

// Queue exposes the fan-out event queue.
func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
