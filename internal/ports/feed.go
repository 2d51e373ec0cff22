package ports

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// EventSource pushes inbound events into out until ctx is done or the
// source is exhausted. It must not close out.
type EventSource interface {
	Run(ctx context.Context, out chan<- domain.Event) error
}
