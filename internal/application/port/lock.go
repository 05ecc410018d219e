package port

import "context"

// TripLocker serializes writers of one trip. Lock returns
// ErrConcurrentModification when the trip stays locked past the wait limit.
type TripLocker interface {
	Lock(ctx context.Context, tripID string) (unlock func(), err error)
}
