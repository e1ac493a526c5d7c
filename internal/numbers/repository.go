package numbers

import "context"

type Repository interface {
	Create(ctx context.Context, n PhoneNumber) error
	Get(ctx context.Context, id string) (PhoneNumber, error)
	GetByNumber(ctx context.Context, e164 string) (PhoneNumber, error)
	// SetHolders updates owner and assignee together.
	SetHolders(ctx context.Context, id, ownerID, assignedTo string) error
	Delete(ctx context.Context, id string) error

	ListOwnedBy(ctx context.Context, ownerID string) ([]PhoneNumber, error)
	ListAssignedTo(ctx context.Context, subID string) ([]PhoneNumber, error)
	List(ctx context.Context) ([]PhoneNumber, error)
	// UnassignAll clears every assignment to subID and returns how many were cleared.
	UnassignAll(ctx context.Context, subID string) (int, error)
}
