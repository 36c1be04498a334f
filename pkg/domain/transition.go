package domain

// TransitionState is the phase of the partition transition state machine.
type TransitionState string

const (
	StateIdle                   TransitionState = "idle"
	StateAborted                TransitionState = "aborted"
	StateUnloadingLoading       TransitionState = "unloading_loading"
	StateAwaitingLoadThreshold  TransitionState = "awaiting_load_threshold"
	StateAwaitingActivationGate TransitionState = "awaiting_activation_gate"
	StateActivating             TransitionState = "activating"
	StateResolvingDestination   TransitionState = "resolving_destination"
	StateNotifyingArrival       TransitionState = "notifying_arrival"
)

// TransitionRequest describes one partition swap. It lives from acceptance
// until the transition finishes or aborts.
type TransitionRequest struct {
	Destination PartitionKey   `json:"destination"`
	PortalID    int            `json:"portal_id"`
	Unload      []PartitionKey `json:"unload,omitempty"`
}

// Target returns the destination of the request as a Destination value.
func (r TransitionRequest) Target() Destination {
	return Destination{Partition: r.Destination, ID: r.PortalID}
}
