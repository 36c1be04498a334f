package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueMessages(t *testing.T) {
	assert.Equal(t, "Found 3 portals with identical id = 7", NewDuplicateIssue(7, 3).Message)
	assert.Equal(t, "Portal 1 connects to itself", NewSelfLoopIssue(1, Destination{Partition: "a", ID: 1}).Message)
	assert.Equal(t, "Portal 4 has no destination", NewDisconnectedIssue(4).Message)
	assert.Equal(t,
		"Portal 2 is connected to a nonexistent destination portal 9 in levels/b",
		NewDanglingIssue(2, Destination{Partition: "levels/b", ID: 9}).Message)
}

func TestValidationReport_Helpers(t *testing.T) {
	r := &ValidationReport{
		Partitions: []PartitionReport{
			{Partition: "a", Issues: []Issue{NewDisconnectedIssue(1), NewDuplicateIssue(2, 2)}},
			{Partition: "b", Issues: []Issue{NewDisconnectedIssue(5)}},
		},
	}

	assert.Equal(t, 3, r.IssueCount())
	assert.Equal(t, map[IssueKind]int{IssueDisconnected: 2, IssueDuplicateID: 1}, r.CountByKind())

	entry, ok := r.Find("a")
	assert.True(t, ok)
	assert.Equal(t, "- Portal 1 has no destination\n- Found 2 portals with identical id = 2", entry.Message())

	_, ok = r.Find("zzz")
	assert.False(t, ok)
}
