package memory

import "github.com/spec-kit/compliance-service/internal/repository"

var (
	errNotFound         = repository.ErrNotFound
	errDuplicate        = repository.ErrDuplicate
	errRevisionMismatch = repository.ErrRevisionMismatch
)

var (
	_ repository.TicketCounterRepository     = (*TicketCounterStore)(nil)
	_ repository.EventRepository             = (*EventStore)(nil)
	_ repository.WorkflowRepository          = (*WorkflowStore)(nil)
	_ repository.RecordRepository[struct{}] = (*RecordStore[struct{}])(nil)
)
