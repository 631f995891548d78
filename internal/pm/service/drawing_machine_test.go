package service

import (
	"testing"

	"github.com/keramy/formula-backend/internal/pm/entity"
)

func TestTransitionTargetTable(t *testing.T) {
	cases := []struct {
		name    string
		current entity.DrawingStatus
		event   TransitionEvent
		payload TransitionPayload
		want    entity.DrawingStatus
		errKind ErrorKind
	}{
		{"first upload from not_uploaded", entity.DrawingStatusNotUploaded, EventUploadFirstRevision, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"first upload twice", entity.DrawingStatusUploaded, EventUploadFirstRevision, TransitionPayload{FileRef: "f"}, "", KindInvalidTransition},
		{"new revision from uploaded", entity.DrawingStatusUploaded, EventUploadNewRevision, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"new revision from rejected", entity.DrawingStatusRejected, EventUploadNewRevision, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"new revision from sent_to_client", entity.DrawingStatusSentToClient, EventUploadNewRevision, TransitionPayload{FileRef: "f"}, "", KindInvalidTransition},
		{"new revision over approval unconfirmed", entity.DrawingStatusApproved, EventUploadNewRevision, TransitionPayload{FileRef: "f"}, "", KindConfirmationRequired},
		{"new revision over approval confirmed", entity.DrawingStatusApproved, EventUploadNewRevision, TransitionPayload{FileRef: "f", Confirmed: true}, entity.DrawingStatusUploaded, ""},
		{"new revision over commented approval confirmed", entity.DrawingStatusApprovedWithComments, EventUploadNewRevision, TransitionPayload{FileRef: "f", Confirmed: true}, entity.DrawingStatusUploaded, ""},
		{"replace from uploaded", entity.DrawingStatusUploaded, EventReplaceFile, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"replace from sent_to_client recalls", entity.DrawingStatusSentToClient, EventReplaceFile, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"replace from rejected", entity.DrawingStatusRejected, EventReplaceFile, TransitionPayload{FileRef: "f"}, entity.DrawingStatusUploaded, ""},
		{"replace over approval unconfirmed", entity.DrawingStatusApprovedWithComments, EventReplaceFile, TransitionPayload{FileRef: "f"}, "", KindConfirmationRequired},
		{"replace over approval confirmed", entity.DrawingStatusApproved, EventReplaceFile, TransitionPayload{FileRef: "f", Confirmed: true}, entity.DrawingStatusUploaded, ""},
		{"replace from not_uploaded", entity.DrawingStatusNotUploaded, EventReplaceFile, TransitionPayload{FileRef: "f"}, "", KindInvalidTransition},
		{"send from uploaded", entity.DrawingStatusUploaded, EventSendToClient, TransitionPayload{}, entity.DrawingStatusSentToClient, ""},
		{"send from not_uploaded", entity.DrawingStatusNotUploaded, EventSendToClient, TransitionPayload{}, "", KindInvalidTransition},
		{"send twice", entity.DrawingStatusSentToClient, EventSendToClient, TransitionPayload{}, "", KindInvalidTransition},
		{"send from approved", entity.DrawingStatusApproved, EventSendToClient, TransitionPayload{}, "", KindInvalidTransition},
		{"client approves", entity.DrawingStatusSentToClient, EventClientResponse, TransitionPayload{Outcome: OutcomeApproved}, entity.DrawingStatusApproved, ""},
		{"client approves with comments", entity.DrawingStatusSentToClient, EventClientResponse, TransitionPayload{Outcome: OutcomeApprovedWithComments}, entity.DrawingStatusApprovedWithComments, ""},
		{"client rejects", entity.DrawingStatusSentToClient, EventClientResponse, TransitionPayload{Outcome: OutcomeRejected}, entity.DrawingStatusRejected, ""},
		{"client response before send", entity.DrawingStatusUploaded, EventClientResponse, TransitionPayload{Outcome: OutcomeApproved}, "", KindInvalidTransition},
		{"client response bad outcome", entity.DrawingStatusSentToClient, EventClientResponse, TransitionPayload{Outcome: "maybe"}, "", KindValidation},
		{"override from sent_to_client", entity.DrawingStatusSentToClient, EventPMOverride, TransitionPayload{Reason: "r"}, entity.DrawingStatusApproved, ""},
		{"override from rejected", entity.DrawingStatusRejected, EventPMOverride, TransitionPayload{Reason: "r"}, entity.DrawingStatusApproved, ""},
		{"override from uploaded", entity.DrawingStatusUploaded, EventPMOverride, TransitionPayload{Reason: "r"}, "", KindInvalidTransition},
		{"override from approved", entity.DrawingStatusApproved, EventPMOverride, TransitionPayload{Reason: "r"}, "", KindInvalidTransition},
		{"mark not required from not_uploaded", entity.DrawingStatusNotUploaded, EventMarkNotRequired, TransitionPayload{Reason: "r"}, entity.DrawingStatusNotRequired, ""},
		{"mark not required after upload", entity.DrawingStatusUploaded, EventMarkNotRequired, TransitionPayload{Reason: "r"}, "", KindInvalidTransition},
		{"not_required is terminal", entity.DrawingStatusNotRequired, EventUploadFirstRevision, TransitionPayload{FileRef: "f"}, "", KindInvalidTransition},
		{"not_required blocks send", entity.DrawingStatusNotRequired, EventSendToClient, TransitionPayload{}, "", KindInvalidTransition},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := transitionTarget(c.current, c.event, c.payload)
			if c.errKind != "" {
				if err == nil {
					t.Fatalf("Expected %s error, got target %s", c.errKind, got)
				}
				if KindOf(err) != c.errKind {
					t.Errorf("Expected error kind %s, got %s", c.errKind, KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("Expected target %s, got %s", c.want, got)
			}
		})
	}
}

func TestAuthorizeEvent(t *testing.T) {
	pm := Actor{ID: "u1", Name: "PM", Role: entity.RolePM}
	admin := Actor{ID: "u2", Name: "Admin", Role: entity.RoleAdmin}
	client := Actor{ID: "u3", Name: "Client", Role: entity.RoleClient}
	production := Actor{ID: "u4", Name: "Prod", Role: entity.RoleProduction}

	// admin/pm可执行所有事件
	allEvents := []TransitionEvent{
		EventUploadFirstRevision, EventUploadNewRevision, EventReplaceFile,
		EventSendToClient, EventClientResponse, EventPMOverride, EventMarkNotRequired,
	}
	for _, ev := range allEvents {
		if err := authorizeEvent(pm, ev); err != nil {
			t.Errorf("pm should be allowed %s: %v", ev, err)
		}
		if err := authorizeEvent(admin, ev); err != nil {
			t.Errorf("admin should be allowed %s: %v", ev, err)
		}
	}

	// client仅可记录反馈
	if err := authorizeEvent(client, EventClientResponse); err != nil {
		t.Errorf("client should be allowed to record response: %v", err)
	}
	for _, ev := range []TransitionEvent{EventUploadFirstRevision, EventSendToClient, EventPMOverride, EventMarkNotRequired} {
		if KindOf(authorizeEvent(client, ev)) != KindAuthorization {
			t.Errorf("client should be denied %s", ev)
		}
	}

	// production完全无写权限
	for _, ev := range allEvents {
		if KindOf(authorizeEvent(production, ev)) != KindAuthorization {
			t.Errorf("production should be denied %s", ev)
		}
	}
}

func TestValidatePayload(t *testing.T) {
	cases := []struct {
		name    string
		event   TransitionEvent
		payload TransitionPayload
		wantErr bool
	}{
		{"upload requires file", EventUploadFirstRevision, TransitionPayload{}, true},
		{"upload with file ok", EventUploadFirstRevision, TransitionPayload{FileRef: "f"}, false},
		{"new revision requires file", EventUploadNewRevision, TransitionPayload{}, true},
		{"replace requires some file", EventReplaceFile, TransitionPayload{}, true},
		{"replace with cad only ok", EventReplaceFile, TransitionPayload{CADFileRef: "c"}, false},
		{"override requires reason", EventPMOverride, TransitionPayload{}, true},
		{"override with reason ok", EventPMOverride, TransitionPayload{Reason: "r"}, false},
		{"not required needs reason", EventMarkNotRequired, TransitionPayload{}, true},
		{"response outcome validated", EventClientResponse, TransitionPayload{Outcome: "bad"}, true},
		{"response approved ok", EventClientResponse, TransitionPayload{Outcome: OutcomeApproved}, false},
		{"send has no payload", EventSendToClient, TransitionPayload{}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validatePayload(c.event, c.payload)
			if c.wantErr && KindOf(err) != KindValidation {
				t.Errorf("Expected validation error, got %v", err)
			}
			if !c.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
