package types

// Status is a type for the lifecycle status of a resource (e.g. subscription, plan)
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)
