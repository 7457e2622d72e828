package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalState_Valid(t *testing.T) {
	assert.True(t, ApprovalState{ApprovalStatusPendingReview, ApprovalStepReview}.Valid())
	assert.True(t, ApprovalState{ApprovalStatusApproved, ApprovalStepApproval}.Valid())
	assert.True(t, ApprovalState{ApprovalStatusRejected, ApprovalStepReview}.Valid())

	assert.False(t, ApprovalState{ApprovalStatusApproved, ApprovalStepReview}.Valid())
	assert.False(t, ApprovalState{ApprovalStatusPendingReview, ApprovalStepApproval}.Valid())
	assert.False(t, ApprovalState{"ARCHIVED", ApprovalStepReview}.Valid())
}

func TestPlan_Approve(t *testing.T) {
	a := &ContentApproval{ID: "a1", ContentID: "c1", Status: ApprovalStatusPendingReview, CurrentStep: ApprovalStepReview, Version: 3}

	tr, ok := a.Plan(ActionApprove, "u1", "")
	require.True(t, ok)
	assert.Equal(t, ApprovalStatusApproved, tr.To.Status)
	assert.Equal(t, ApprovalStepApproval, tr.To.Step)
	assert.Equal(t, ContentStatusApproved, tr.ContentStatus)
	assert.Equal(t, "Content approved", tr.Comment)
	assert.Equal(t, 3, tr.FromVersion)
	assert.True(t, tr.To.Valid())
}

func TestPlan_RejectGoesBackToReview(t *testing.T) {
	a := &ContentApproval{ID: "a1", Status: ApprovalStatusPendingReview, CurrentStep: ApprovalStepReview}

	tr, ok := a.Plan(ActionReject, "u1", "needs a better headline")
	require.True(t, ok)
	assert.Equal(t, ApprovalState{ApprovalStatusRejected, ApprovalStepReview}, tr.To)
	assert.Equal(t, "needs a better headline", tr.Comment)
}

func TestPlan_TerminalStates(t *testing.T) {
	approved := &ContentApproval{Status: ApprovalStatusApproved, CurrentStep: ApprovalStepApproval}
	for _, action := range []ApprovalAction{ActionApprove, ActionReject, ActionResubmit} {
		_, ok := approved.Plan(action, "u1", "")
		assert.False(t, ok, "approved approval must not accept %s", action)
	}

	rejected := &ContentApproval{Status: ApprovalStatusRejected, CurrentStep: ApprovalStepReview}
	_, ok := rejected.Plan(ActionApprove, "u1", "")
	assert.False(t, ok)
	_, ok = rejected.Plan(ActionResubmit, "u1", "")
	assert.True(t, ok)
}

func TestParseApprovalStatus(t *testing.T) {
	for _, v := range []string{"", "ALL"} {
		s, ok := ParseApprovalStatus(v)
		assert.True(t, ok)
		assert.Empty(t, s)
	}
	s, ok := ParseApprovalStatus("APPROVED")
	assert.True(t, ok)
	assert.Equal(t, ApprovalStatusApproved, s)

	_, ok = ParseApprovalStatus("approved")
	assert.False(t, ok)
}

func TestToResponse_JoinsSummaries(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &ContentApproval{
		ID: "a1", Status: ApprovalStatusApproved, CurrentStep: ApprovalStepApproval, CreatedAt: created,
		Content: &Content{ID: "c-123", Title: "Demo", Type: ContentTypePost},
		Creator: &User{FirstName: "Ada", LastName: "Lovelace"},
	}

	resp := a.ToResponse()
	assert.Equal(t, "Demo", resp.Content.Title)
	assert.Equal(t, "Ada", resp.Creator.FirstName)
	assert.Nil(t, resp.Assignee)
	assert.Equal(t, created, resp.CreatedAt)
}
