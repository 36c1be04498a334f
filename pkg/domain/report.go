package domain

import (
	"fmt"
	"strings"
)

// IssueKind classifies a validator finding.
type IssueKind string

const (
	IssueDuplicateID         IssueKind = "duplicate_id"
	IssueSelfLoop            IssueKind = "self_loop"
	IssueDanglingDestination IssueKind = "dangling_destination"
	IssueDisconnected        IssueKind = "disconnected"
)

// Issue is a single finding against a partition.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	PortalID int       `json:"portal_id"`
	// Count is the number of occurrences for IssueDuplicateID.
	Count       int         `json:"count,omitempty"`
	Destination Destination `json:"destination,omitzero"`
	Message     string      `json:"message"`
}

// NewDuplicateIssue reports count portals sharing id.
func NewDuplicateIssue(id, count int) Issue {
	return Issue{
		Kind:     IssueDuplicateID,
		PortalID: id,
		Count:    count,
		Message:  fmt.Sprintf("Found %d portals with identical id = %d", count, id),
	}
}

// NewSelfLoopIssue reports a portal whose destination is itself.
func NewSelfLoopIssue(id int, dest Destination) Issue {
	return Issue{
		Kind:        IssueSelfLoop,
		PortalID:    id,
		Destination: dest,
		Message:     fmt.Sprintf("Portal %d connects to itself", id),
	}
}

// NewDisconnectedIssue reports a portal with no destination.
func NewDisconnectedIssue(id int) Issue {
	return Issue{
		Kind:     IssueDisconnected,
		PortalID: id,
		Message:  fmt.Sprintf("Portal %d has no destination", id),
	}
}

// NewDanglingIssue reports a portal whose destination does not resolve.
func NewDanglingIssue(id int, dest Destination) Issue {
	return Issue{
		Kind:        IssueDanglingDestination,
		PortalID:    id,
		Destination: dest,
		Message: fmt.Sprintf("Portal %d is connected to a nonexistent destination portal %d in %s",
			id, dest.ID, dest.Partition),
	}
}

// PartitionReport groups the issues found in one partition.
type PartitionReport struct {
	Partition PartitionKey `json:"partition"`
	Issues    []Issue      `json:"issues"`
}

// Message joins the issue messages, one per line.
func (r PartitionReport) Message() string {
	lines := make([]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		lines = append(lines, "- "+is.Message)
	}
	return strings.Join(lines, "\n")
}

// PartitionFailure records a partition the validator could not process.
type PartitionFailure struct {
	Partition PartitionKey `json:"partition"`
	Error     string       `json:"error"`
}

// ValidationReport is the outcome of one validation run. It is rebuilt from
// scratch on every run.
type ValidationReport struct {
	// Partitions holds one entry per partition with at least one issue,
	// in registry enumeration order.
	Partitions []PartitionReport  `json:"partitions"`
	Failures   []PartitionFailure `json:"failures,omitempty"`
	// Visited is the number of partitions that were opened and enumerated.
	Visited int  `json:"visited"`
	Clean   bool `json:"clean"`
}

// IssueCount returns the total number of issues across partitions.
func (r *ValidationReport) IssueCount() int {
	n := 0
	for _, p := range r.Partitions {
		n += len(p.Issues)
	}
	return n
}

// Find returns the report entry for key, if any.
func (r *ValidationReport) Find(key PartitionKey) (PartitionReport, bool) {
	for _, p := range r.Partitions {
		if p.Partition == key {
			return p, true
		}
	}
	return PartitionReport{}, false
}

// CountByKind tallies issues per kind.
func (r *ValidationReport) CountByKind() map[IssueKind]int {
	counts := make(map[IssueKind]int)
	for _, p := range r.Partitions {
		for _, is := range p.Issues {
			counts[is.Kind]++
		}
	}
	return counts
}
