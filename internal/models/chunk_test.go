package models

import (
	"testing"
)

func TestParseChunk(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType ChunkType
		check    func(t *testing.T, c Chunk)
	}{
		{
			name:     "token",
			input:    `{"type":"token","content":"2.5mm² "}`,
			wantType: ChunkToken,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*TokenChunk).Content; got != "2.5mm² " {
					t.Errorf("Content = %q", got)
				}
			},
		},
		{
			name:     "citation",
			input:    `{"type":"citation","citation":{"source":"BS 7671","title":"Reg 411.3.3","url":"https://example.org"}}`,
			wantType: ChunkCitation,
			check: func(t *testing.T, c Chunk) {
				cit := c.(*CitationChunk).Citation
				if cit.Source != "BS 7671" || cit.Title != "Reg 411.3.3" {
					t.Errorf("Citation = %+v", cit)
				}
			},
		},
		{
			name:     "tool call",
			input:    `{"type":"tool_call","toolCall":{"agent":"calculator","tool":"cable_size","input":{"load":7.2}}}`,
			wantType: ChunkToolCall,
			check: func(t *testing.T, c Chunk) {
				tc := c.(*ToolCallChunk).ToolCall
				if tc.Tool != "cable_size" || tc.Agent != "calculator" {
					t.Errorf("ToolCall = %+v", tc)
				}
			},
		},
		{
			name:     "agent update",
			input:    `{"type":"agent_update","agents":["designer","compliance"]}`,
			wantType: ChunkAgentUpdate,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*AgentUpdateChunk).Agents; len(got) != 2 {
					t.Errorf("Agents = %v", got)
				}
			},
		},
		{
			name:     "plan",
			input:    `{"type":"plan","agents":["calculator"],"complexity":"simple"}`,
			wantType: ChunkPlan,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*PlanChunk).Complexity; got != "simple" {
					t.Errorf("Complexity = %q", got)
				}
			},
		},
		{
			name:     "estimated time",
			input:    `{"type":"estimated_time","seconds":45}`,
			wantType: ChunkEstimatedTime,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*EstimatedTimeChunk).Seconds; got != 45 {
					t.Errorf("Seconds = %d", got)
				}
			},
		},
		{
			name:     "question analysis passthrough",
			input:    `{"type":"question_analysis","analysis":{"topics":["earthing"],"depth":2}}`,
			wantType: ChunkQuestionAnalysis,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*QuestionAnalysisChunk).Analysis; len(got) == 0 {
					t.Error("Analysis payload dropped")
				}
			},
		},
		{
			name:     "agent start",
			input:    `{"type":"agent_start","agent":"designer","agentIndex":1,"totalAgents":3}`,
			wantType: ChunkAgentStart,
			check: func(t *testing.T, c Chunk) {
				ch := c.(*AgentStartChunk)
				if ch.Index != 1 || ch.Total != 3 {
					t.Errorf("AgentStart = %+v", ch)
				}
			},
		},
		{
			name:     "agent response with structured data",
			input:    `{"type":"agent_response","agent":"designer","response":"done","structuredData":{"circuits":[]}}`,
			wantType: ChunkAgentResponse,
			check: func(t *testing.T, c Chunk) {
				ch := c.(*AgentResponseChunk)
				if ch.Response != "done" || len(ch.StructuredData) == 0 {
					t.Errorf("AgentResponse = %+v", ch)
				}
			},
		},
		{
			name:     "agent error",
			input:    `{"type":"agent_error","agent":"estimator","error":"pricing feed down"}`,
			wantType: ChunkAgentError,
		},
		{
			name:     "agent skipped without reason",
			input:    `{"type":"agent_skipped","agent":"estimator"}`,
			wantType: ChunkAgentSkipped,
			check: func(t *testing.T, c Chunk) {
				if got := c.(*AgentSkippedChunk).Reason; got != "" {
					t.Errorf("Reason = %q, want empty", got)
				}
			},
		},
		{
			name:     "all agents complete",
			input:    `{"type":"all_agents_complete","outputs":{"designer":"ok"}}`,
			wantType: ChunkAllAgentsComplete,
		},
		{
			name:     "agent challenge",
			input:    `{"type":"agent_challenge","challenger":"compliance","target":"designer","challenge":"zone 1 socket"}`,
			wantType: ChunkAgentChallenge,
		},
		{
			name:     "agent consensus",
			input:    `{"type":"agent_consensus","agents":["designer","compliance"],"consensus":"agreed"}`,
			wantType: ChunkAgentConsensus,
		},
		{
			name:     "validation warning",
			input:    `{"type":"validation_warning","regulation":"411.3.3","message":"RCD required"}`,
			wantType: ChunkValidationWarning,
			check: func(t *testing.T, c Chunk) {
				ch := c.(*ValidationWarningChunk)
				if ch.Regulation != "411.3.3" {
					t.Errorf("Regulation = %q", ch.Regulation)
				}
			},
		},
		{
			name:     "error",
			input:    `{"type":"error","error":"all agents failed"}`,
			wantType: ChunkError,
		},
		{
			name:     "done",
			input:    `{"type":"done"}`,
			wantType: ChunkDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := ParseChunk([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseChunk() error = %v", err)
			}
			if chunk.ChunkType() != tt.wantType {
				t.Errorf("ChunkType() = %q, want %q", chunk.ChunkType(), tt.wantType)
			}
			if tt.check != nil {
				tt.check(t, chunk)
			}
		})
	}
}

func TestParseChunk_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type", `{"type":"telemetry","content":"x"}`},
		{"missing type", `{"content":"x"}`},
		{"wrong field type", `{"type":"estimated_time","seconds":"soon"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseChunk([]byte(tt.input)); err == nil {
				t.Errorf("ParseChunk(%q) expected error", tt.input)
			}
		})
	}
}
