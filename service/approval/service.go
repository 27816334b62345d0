package approval

import (
	"context"

	"github.com/caseflow/caseflow/service/messaging"
)

// Service defines the approval service interface.
type Service interface {
	RequestApproval(ctx context.Context, r *Request) error
	ListPending(ctx context.Context) ([]*Request, error)
	Decide(ctx context.Context, id string, approver string, approved bool, reason string) (*Decision, error)
	Queue() messaging.Queue[Event]
}
