package models

import "testing"

func TestLastUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		want     string
		wantOK   bool
	}{
		{
			name: "last message is user",
			messages: []Message{
				{Role: RoleUser, Content: "first"},
				{Role: RoleAssistant, Content: "answer"},
				{Role: RoleUser, Content: "second"},
			},
			want:   "second",
			wantOK: true,
		},
		{
			name: "trailing assistant message skipped",
			messages: []Message{
				{Role: RoleUser, Content: "question"},
				{Role: RoleAssistant, Content: "partial answer"},
			},
			want:   "question",
			wantOK: true,
		},
		{
			name: "no user message",
			messages: []Message{
				{Role: RoleAssistant, Content: "hello"},
			},
			wantOK: false,
		},
		{
			name:   "empty transcript",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LastUserMessage(tt.messages)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("LastUserMessage() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAgentFromName(t *testing.T) {
	if got := AgentFromName("designer"); got.Name != AgentDesigner.Name {
		t.Errorf("AgentFromName(designer) = %+v", got)
	}
	// Unknown agents pass through so new backend agents render without a
	// client update
	got := AgentFromName("surveyor")
	if got.Name != "surveyor" || got.Title == "" {
		t.Errorf("AgentFromName(surveyor) = %+v, want passthrough with a title", got)
	}
}
