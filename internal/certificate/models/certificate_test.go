package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "abportal/pkg/domain-errors"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Pending", "Approved", "Rejected"} {
		status, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, status.String())
	}

	for _, s := range []string{"", "pending", "APPROVED", "Done"} {
		_, err := ParseStatus(s)
		require.Error(t, err, s)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusPending, Status("Archived"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestApplyDecision(t *testing.T) {
	r := CertificateRequest{ID: "cr-1", Status: StatusPending, LastUpdated: "old"}
	require.True(t, r.CanDecide())

	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	r.ApplyDecision(StatusApproved, now, "6/15/2025, 2:30:00 PM")

	assert.Equal(t, StatusApproved, r.Status)
	assert.Equal(t, "6/15/2025, 2:30:00 PM", r.LastUpdated)
	assert.Equal(t, now, r.DecidedAt)
	assert.False(t, r.CanDecide())
}

func TestGroupRequests(t *testing.T) {
	requests := []CertificateRequest{
		{ID: "1", IssuingBody: "B1", Status: StatusPending},
		{ID: "2", IssuingBody: "B2", Status: StatusApproved},
		{ID: "3", IssuingBody: "B1", Status: StatusPending},
		{ID: "4", IssuingBody: "B3", Status: StatusRejected},
	}

	groups := GroupRequests(requests)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"B1", "B2", "B3"}, []string{groups[0].IssuingBody, groups[1].IssuingBody, groups[2].IssuingBody})

	b1, ok := groups.Find("B1")
	require.True(t, ok)
	require.Len(t, b1.Requests, 2)
	assert.Equal(t, "1", b1.Requests[0].ID)
	assert.Equal(t, "3", b1.Requests[1].ID)

	_, ok = groups.Find("B9")
	assert.False(t, ok)
	assert.Equal(t, 4, groups.Total())
	assert.Equal(t, 2, CountPending(requests))
	assert.Empty(t, GroupRequests(nil))
}
