package shared

// AggregateRoot is implemented by entities that guard a consistency boundary
// and record domain events for publication after commit.
type AggregateRoot interface {
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides the version counter used for optimistic locking
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a new aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version after a state change
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent records an event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the pending events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops pending events once published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
