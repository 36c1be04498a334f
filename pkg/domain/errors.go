package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransitionInProgress is returned when a transition is requested while another one runs.
	ErrTransitionInProgress = errors.New("a transition is already in progress")

	// ErrEmptyDestination is returned when a transition targets no partition.
	ErrEmptyDestination = errors.New("destination partition is empty")

	// ErrUnknownDestinationPartition is returned when the destination is not a registered partition.
	ErrUnknownDestinationPartition = errors.New("destination partition is not registered")

	// ErrDestinationPortalNotFound is reported when the destination portal is missing after activation.
	ErrDestinationPortalNotFound = errors.New("destination portal not found")

	// ErrPartitionLoad is returned when a partition fails to load or unload.
	ErrPartitionLoad = errors.New("partition load failed")

	// ErrPartitionOpen is recorded when the validator cannot open a partition.
	ErrPartitionOpen = errors.New("partition open failed")

	// ErrPartitionNotFound is returned by stores when a partition key has no definition.
	ErrPartitionNotFound = errors.New("partition not found")

	// ErrPartitionNotLoaded is returned when live portals are requested for an unloaded partition.
	ErrPartitionNotLoaded = errors.New("partition not loaded")
)

// TransitionError carries the request a transition failure belongs to.
type TransitionError struct {
	Partition PartitionKey
	PortalID  int
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition to %s#%d: %v", e.Partition, e.PortalID, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
