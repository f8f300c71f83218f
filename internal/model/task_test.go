package model

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusComplete, StatusArchived} {
		if !ValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "done", "COMPLETE", "deleted"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestValidCategory(t *testing.T) {
	if !ValidCategory(CategoryAlloro) || !ValidCategory(CategoryUser) {
		t.Error("known categories should be valid")
	}
	for _, c := range []string{"", "user", "alloro", "SYSTEM"} {
		if ValidCategory(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

func TestValidAgentType(t *testing.T) {
	// Empty means "no agent" and is allowed.
	if !ValidAgentType("") {
		t.Error("empty agent type should be valid")
	}
	if !ValidAgentType(AgentRanking) || !ValidAgentType(AgentManual) {
		t.Error("known agent types should be valid")
	}
	if ValidAgentType("ranking") || ValidAgentType("UNKNOWN_AGENT") {
		t.Error("unknown agent types should be invalid")
	}
}
