package service

import (
	"testing"

	"github.com/keramy/formula-backend/internal/pm/entity"
)

func TestDeriveScopeItemStatus(t *testing.T) {
	cases := []struct {
		name    string
		drawing entity.DrawingStatus
		prior   string
		want    string
	}{
		{"not_uploaded maps to in_design", entity.DrawingStatusNotUploaded, entity.ScopeStatusInDesign, entity.ScopeStatusInDesign},
		{"uploaded maps to in_design", entity.DrawingStatusUploaded, entity.ScopeStatusInDesign, entity.ScopeStatusInDesign},
		{"rejected maps back to in_design", entity.DrawingStatusRejected, entity.ScopeStatusAwaitingApproval, entity.ScopeStatusInDesign},
		{"sent_to_client maps to awaiting_approval", entity.DrawingStatusSentToClient, entity.ScopeStatusInDesign, entity.ScopeStatusAwaitingApproval},
		{"approved maps to approved", entity.DrawingStatusApproved, entity.ScopeStatusAwaitingApproval, entity.ScopeStatusApproved},
		{"approved_with_comments maps to approved", entity.DrawingStatusApprovedWithComments, entity.ScopeStatusAwaitingApproval, entity.ScopeStatusApproved},
		{"not_required maps to approved", entity.DrawingStatusNotRequired, entity.ScopeStatusInDesign, entity.ScopeStatusApproved},
		{"in_production is preserved on approved", entity.DrawingStatusApproved, entity.ScopeStatusInProduction, entity.ScopeStatusInProduction},
		{"in_production is preserved on uploaded", entity.DrawingStatusUploaded, entity.ScopeStatusInProduction, entity.ScopeStatusInProduction},
		{"in_production is preserved on sent_to_client", entity.DrawingStatusSentToClient, entity.ScopeStatusInProduction, entity.ScopeStatusInProduction},
		{"in_production is preserved on rejected", entity.DrawingStatusRejected, entity.ScopeStatusInProduction, entity.ScopeStatusInProduction},
		{"complete is preserved on approved", entity.DrawingStatusApproved, entity.ScopeStatusComplete, entity.ScopeStatusComplete},
		{"complete is preserved on uploaded", entity.DrawingStatusUploaded, entity.ScopeStatusComplete, entity.ScopeStatusComplete},
		{"cancelled is preserved on not_required", entity.DrawingStatusNotRequired, entity.ScopeStatusCancelled, entity.ScopeStatusCancelled},
		{"cancelled is preserved on sent_to_client", entity.DrawingStatusSentToClient, entity.ScopeStatusCancelled, entity.ScopeStatusCancelled},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DeriveScopeItemStatus(c.drawing, c.prior)
			if got != c.want {
				t.Errorf("DeriveScopeItemStatus(%s, %s) = %s, want %s", c.drawing, c.prior, got, c.want)
			}
		})
	}
}
