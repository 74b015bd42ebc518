package models

import (
	"testing"
)

func TestAskRequest_Validate(t *testing.T) {
	if err := (&AskRequest{Question: ""}).Validate(); err == nil {
		t.Error("empty question should fail validation")
	}
	if err := (&AskRequest{Question: "What is theft?"}).Validate(); err != nil {
		t.Errorf("valid question: %v", err)
	}
}

func TestLookupQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *LookupQuery
		wantErr bool
	}{
		{"empty query", &LookupQuery{Query: ""}, true},
		{"valid query", &LookupQuery{Query: "section 302"}, false},
		{"sets default limit", &LookupQuery{Query: "x", Limit: 0}, false},
		{"caps limit at 50", &LookupQuery{Query: "x", Limit: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.query.Limit == 0 {
					t.Error("expected default limit to be set")
				}
				if tt.query.Limit > 50 {
					t.Errorf("expected limit capped at 50, got %d", tt.query.Limit)
				}
			}
		})
	}
}
