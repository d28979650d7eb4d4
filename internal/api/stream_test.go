package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elec-mate/elecmate/internal/config"
	apierrors "github.com/elec-mate/elecmate/internal/errors"
	"github.com/elec-mate/elecmate/internal/models"
)

// ============================================================================
// Test helpers
// ============================================================================

// recorder captures every hook notification for assertions
type recorder struct {
	NopHooks
	mu             sync.Mutex
	tokens         []string
	errors         []string
	completes      int
	fullText       string
	meta           *models.Metadata
	agentStarts    []string
	agentResponses []string
	slowWarnings   []string
	elapsed        []int
}

func (r *recorder) OnToken(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, text)
}

func (r *recorder) OnComplete(fullText string, meta *models.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
	r.fullText = fullText
	r.meta = meta
}

func (r *recorder) OnError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recorder) OnAgentStart(agent string, index, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agentStarts = append(r.agentStarts, agent)
}

func (r *recorder) OnAgentResponse(agent, text string, structuredData json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agentResponses = append(r.agentResponses, agent)
}

func (r *recorder) OnSlowWarning(elapsedSeconds int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slowWarnings = append(r.slowWarnings, message)
}

func (r *recorder) OnElapsedTimeUpdate(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elapsed = append(r.elapsed, seconds)
}

// sseServer serves the given lines as one SSE response
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}))
}

func testClient(t *testing.T, endpoint string, opts ...ClientOption) *Client {
	t.Helper()
	client, err := NewClient(append([]ClientOption{WithEndpoint(endpoint)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func userMessages(content string) []models.Message {
	return []models.Message{{Role: models.RoleUser, Content: content}}
}

// ============================================================================
// Token ordering
// ============================================================================

func TestStreamMessage_TokenOrdering(t *testing.T) {
	tokens := []string{"A 32A ", "ring final ", "needs ", "2.5mm² ", "cable."}
	lines := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		chunk, _ := json.Marshal(map[string]string{"type": "token", "content": tok})
		lines = append(lines, "data: "+string(chunk))
	}
	lines = append(lines, "data: [DONE]")

	server := sseServer(t, lines...)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("size a ring final"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	want := strings.Join(tokens, "")
	if result.FullResponse != want {
		t.Errorf("FullResponse = %q, want %q", result.FullResponse, want)
	}
	if rec.fullText != want {
		t.Errorf("OnComplete text = %q, want %q", rec.fullText, want)
	}
	if rec.completes != 1 {
		t.Errorf("OnComplete fired %d times, want 1", rec.completes)
	}
	if got := strings.Join(rec.tokens, ""); got != want {
		t.Errorf("concatenated tokens = %q, want %q", got, want)
	}
}

// ============================================================================
// Non-streaming fallback: word pacing
// ============================================================================

func TestStreamMessage_FallbackWordPacing(t *testing.T) {
	text := "use 6mm² twin and earth"
	wordCount := len(strings.Split(text, " "))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RouterResponse{
			Success:         true,
			Responses:       []models.AgentReply{{Agent: "designer", Response: text}},
			ConsultedAgents: []string{"designer"},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("shower circuit cable"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	if len(rec.tokens) != wordCount {
		t.Fatalf("OnToken fired %d times, want %d (one per word)", len(rec.tokens), wordCount)
	}
	for i, tok := range rec.tokens {
		if !strings.HasSuffix(tok, " ") {
			t.Errorf("token %d = %q, want trailing space", i, tok)
		}
	}
	if result.FullResponse != text {
		t.Errorf("FullResponse = %q, want %q", result.FullResponse, text)
	}
	if len(rec.meta.ConsultedAgents) != 1 || rec.meta.ConsultedAgents[0] != "designer" {
		t.Errorf("ConsultedAgents = %v, want [designer]", rec.meta.ConsultedAgents)
	}
}

func TestStreamMessage_FallbackJSONWrappedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RouterResponse{
			Success:   true,
			Responses: []models.AgentReply{{Agent: "designer", Response: `{"response":"fit an RCBO","confidence":0.9}`}},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("protection?"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	if result.FullResponse != "fit an RCBO" {
		t.Errorf("FullResponse = %q, want unwrapped text", result.FullResponse)
	}
}

func TestStreamMessage_FallbackSeparatorReplayed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.RouterResponse{
			Success: true,
			Responses: []models.AgentReply{
				{Agent: "designer", Response: "fit an RCBO"},
				{Agent: "compliance", Response: "check Zs"},
			},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("protection?"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	want := "fit an RCBO\n\ncheck Zs"
	if result.FullResponse != want {
		t.Errorf("FullResponse = %q, want %q", result.FullResponse, want)
	}

	// The blank line between agent replies reaches OnToken too, so a UI
	// built from tokens shows the same break as the accumulated result.
	wantTokens := []string{"fit ", "an ", "RCBO ", "\n\n", "check ", "Zs "}
	if len(rec.tokens) != len(wantTokens) {
		t.Fatalf("tokens = %q, want %q", rec.tokens, wantTokens)
	}
	for i, tok := range rec.tokens {
		if tok != wantTokens[i] {
			t.Errorf("token %d = %q, want %q", i, tok, wantTokens[i])
		}
	}
}

func TestStreamMessage_FallbackFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success false", `{"success":false,"responses":[],"error":"router overloaded"}`},
		{"missing responses", `{"success":true}`},
		{"not json", `<html>gateway error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := testClient(t, server.URL)
			rec := &recorder{}

			_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
			if err == nil {
				t.Fatal("StreamMessage() expected error")
			}
			if rec.completes != 0 {
				t.Errorf("OnComplete fired on failure")
			}
			if len(rec.errors) == 0 {
				t.Errorf("OnError not notified before error return")
			}
		})
	}
}

// ============================================================================
// Structured data: last write wins
// ============================================================================

func TestStreamMessage_StructuredDataLastWriteWins(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"agent_response","agent":"designer","response":"first","structuredData":{"circuits":1}}`,
		`data: {"type":"agent_response","agent":"calculator","response":" second","structuredData":{"circuits":2}}`,
		`data: [DONE]`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("design it"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	var payload struct {
		Circuits int `json:"circuits"`
	}
	if err := json.Unmarshal(result.Metadata.StructuredData, &payload); err != nil {
		t.Fatalf("StructuredData unmarshal error = %v", err)
	}
	if payload.Circuits != 2 {
		t.Errorf("StructuredData circuits = %d, want 2 (last write wins)", payload.Circuits)
	}
	if result.FullResponse != "first second" {
		t.Errorf("FullResponse = %q, want %q", result.FullResponse, "first second")
	}
}

// ============================================================================
// Non-fatal per-agent failures
// ============================================================================

func TestStreamMessage_AgentErrorIsNonFatal(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"agent_start","agent":"calculator","agentIndex":0,"totalAgents":2}`,
		`data: {"type":"agent_error","agent":"calculator","error":"calculation service unavailable"}`,
		`data: {"type":"agent_start","agent":"designer","agentIndex":1,"totalAgents":2}`,
		`data: {"type":"agent_response","agent":"designer","response":"Use a 6mm² radial."}`,
		`data: {"type":"done"}`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("cooker circuit"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v, want success despite agent_error", err)
	}

	if rec.completes != 1 {
		t.Fatalf("OnComplete fired %d times, want 1", rec.completes)
	}
	if !strings.Contains(result.FullResponse, "Use a 6mm² radial.") {
		t.Errorf("FullResponse missing second agent's text: %q", result.FullResponse)
	}
	if !strings.Contains(result.FullResponse, "calculation service unavailable") {
		t.Errorf("FullResponse missing warning about failed agent: %q", result.FullResponse)
	}
	if len(rec.errors) != 1 {
		t.Errorf("OnError notified %d times, want 1 advisory", len(rec.errors))
	}
}

func TestStreamMessage_AgentSkippedIsNonFatal(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"agent_skipped","agent":"estimator","reason":"no pricing requested"}`,
		`data: {"type":"token","content":"Done."}`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}
	if !strings.Contains(result.FullResponse, "no pricing requested") {
		t.Errorf("FullResponse missing skip note: %q", result.FullResponse)
	}
	if !strings.Contains(result.FullResponse, "Done.") {
		t.Errorf("FullResponse missing trailing token: %q", result.FullResponse)
	}
}

func TestStreamMessage_ErrorChunkIsFatal(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"token","content":"partial"}`,
		`data: {"type":"error","error":"all agents failed"}`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	if err == nil {
		t.Fatal("StreamMessage() expected error for error chunk")
	}
	if !strings.Contains(err.Error(), "all agents failed") {
		t.Errorf("error = %v, want router message", err)
	}
	if rec.completes != 0 {
		t.Errorf("OnComplete fired despite fatal error chunk")
	}
}

// ============================================================================
// Malformed lines and [DONE]
// ============================================================================

func TestStreamMessage_MalformedLineSkipped(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"token","content":"a"}`,
		`data: {not json at all`,
		`data: {"type":"wibble","content":"x"}`,
		`: comment line`,
		`event: noise`,
		`data: [DONE]`,
		`data: {"type":"token","content":"b"}`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v, want malformed lines skipped", err)
	}
	if result.FullResponse != "ab" {
		t.Errorf("FullResponse = %q, want %q", result.FullResponse, "ab")
	}
}

// ============================================================================
// Status code mapping
// ============================================================================

func TestStreamMessage_StatusCodeMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		contains []string
	}{
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			wantMsg: "Rate limit exceeded. Please try again in a moment.",
		},
		{
			name:    "credits exhausted",
			status:  http.StatusPaymentRequired,
			wantMsg: "AI credits exhausted. Please add credits to continue.",
		},
		{
			name:     "server error with json body",
			status:   http.StatusInternalServerError,
			body:     `{"error":"boom"}`,
			contains: []string{"500", "boom"},
		},
		{
			name:     "server error with text body",
			status:   http.StatusBadGateway,
			body:     "upstream exploded",
			contains: []string{"502", "upstream exploded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := testClient(t, server.URL)
			rec := &recorder{}

			_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
			if err == nil {
				t.Fatal("StreamMessage() expected error")
			}

			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), want)
				}
			}
			if len(rec.errors) != 1 || rec.errors[0] != err.Error() {
				t.Errorf("OnError = %v, want exactly the returned message", rec.errors)
			}
		})
	}
}

// ============================================================================
// Request body contract
// ============================================================================

func TestStreamMessage_RequestBody(t *testing.T) {
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"responses":[]}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	messages := []models.Message{
		{Role: models.RoleUser, Content: "first question"},
		{Role: models.RoleAssistant, Content: "an answer"},
		{Role: models.RoleUser, Content: "actual question"},
		{Role: models.RoleAssistant, Content: "trailing assistant note"},
	}
	design := models.NewDesign([]byte(`{"conversationId":"conv-42","installationType":"domestic"}`))

	if _, err := client.StreamMessage(messages, design, nil, nil); err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	var req struct {
		ConversationID   string           `json:"conversationId"`
		UserMessage      string           `json:"userMessage"`
		SelectedAgents   []string         `json:"selectedAgents"`
		ConsultationMode string           `json:"consultationMode"`
		Messages         []models.Message `json:"messages"`
	}
	if err := json.Unmarshal(captured, &req); err != nil {
		t.Fatalf("request body unmarshal error = %v (body %q)", err, captured)
	}

	if req.UserMessage != "actual question" {
		t.Errorf("userMessage = %q, want the last user-role message", req.UserMessage)
	}
	if len(req.SelectedAgents) != 1 || req.SelectedAgents[0] != "designer" {
		t.Errorf("selectedAgents = %v, want [designer] default", req.SelectedAgents)
	}
	if req.ConsultationMode != "user-driven" {
		t.Errorf("consultationMode = %q, want user-driven", req.ConsultationMode)
	}
	if req.ConversationID != "conv-42" {
		t.Errorf("conversationId = %q, want conv-42", req.ConversationID)
	}
	if len(req.Messages) != 4 {
		t.Errorf("messages forwarded %d entries, want all 4 unmodified", len(req.Messages))
	}
}

func TestStreamMessage_AuthHeaders(t *testing.T) {
	var gotAuth, gotAPIKey string
	var hadAuth, hadAPIKey bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hadAuth = r.Header["Authorization"]
		gotAPIKey = r.Header.Get("Apikey")
		_, hadAPIKey = r.Header["Apikey"]
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"responses":[]}`)
	}))
	defer server.Close()

	t.Run("without session", func(t *testing.T) {
		client := testClient(t, server.URL)
		if _, err := client.StreamMessage(userMessages("hi"), nil, nil, nil); err != nil {
			t.Fatalf("StreamMessage() error = %v", err)
		}
		if hadAuth || hadAPIKey {
			t.Errorf("auth headers sent without a session: auth=%q apikey=%q", gotAuth, gotAPIKey)
		}
	})

	t.Run("with session", func(t *testing.T) {
		session := &config.Session{AccessToken: "tok-123", APIKey: "key-456"}
		client := testClient(t, server.URL, WithSession(session))
		if _, err := client.StreamMessage(userMessages("hi"), nil, nil, nil); err != nil {
			t.Fatalf("StreamMessage() error = %v", err)
		}
		if gotAuth != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
		}
		if gotAPIKey != "key-456" {
			t.Errorf("apikey = %q, want key-456", gotAPIKey)
		}
	})
}

func TestStreamMessage_NoUserMessage(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:1")
	rec := &recorder{}

	_, err := client.StreamMessage([]models.Message{{Role: models.RoleAssistant, Content: "x"}}, nil, nil, rec)
	if err == nil {
		t.Fatal("StreamMessage() expected error for transcript without user message")
	}
	if len(rec.errors) != 1 {
		t.Errorf("OnError notified %d times, want 1", len(rec.errors))
	}
}

// ============================================================================
// Transport failures
// ============================================================================

func TestStreamMessage_RouterUnavailable(t *testing.T) {
	// Nothing listens here
	client := testClient(t, "http://127.0.0.1:1")
	rec := &recorder{}

	_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	if err == nil {
		t.Fatal("StreamMessage() expected error")
	}
	if err.Error() != apierrors.MsgRouterUnavailable {
		t.Errorf("error = %q, want %q", err.Error(), apierrors.MsgRouterUnavailable)
	}
}

func TestStreamMessage_TimeoutAbortsStream(t *testing.T) {
	if testing.Short() {
		t.Skip("timeout test sleeps")
	}

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		// Never send another byte
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := testClient(t, server.URL, WithTimeout(1500*time.Millisecond))
	rec := &recorder{}

	start := time.Now()
	_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("StreamMessage() expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "timed out")
	}
	if elapsed > 10*time.Second {
		t.Errorf("call took %v, want abort near the configured deadline", elapsed)
	}
	if rec.completes != 0 {
		t.Errorf("OnComplete fired after timeout")
	}
}

func TestStreamMessage_TimeoutBeforeHeaders(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hang without sending headers
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := testClient(t, server.URL, WithTimeout(300*time.Millisecond))
	rec := &recorder{}

	start := time.Now()
	_, err := client.StreamMessage(userMessages("hi"), nil, nil, rec)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("StreamMessage() expected timeout error")
	}
	if !errors.Is(err, apierrors.ErrTimedOut) {
		t.Errorf("error = %v, want a timeout, not an availability failure", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("call took %v, want abort near the configured deadline", elapsed)
	}
	if rec.completes != 0 {
		t.Errorf("OnComplete fired after timeout")
	}
}

// ============================================================================
// Dispatch coverage for the remaining chunk family
// ============================================================================

func TestStreamMessage_AgentLifecycleChunks(t *testing.T) {
	server := sseServer(t,
		`data: {"type":"question_analysis","analysis":{"topics":["cable sizing"]}}`,
		`data: {"type":"plan","agents":["calculator","designer"],"complexity":"moderate"}`,
		`data: {"type":"estimated_time","seconds":45}`,
		`data: {"type":"agent_start","agent":"calculator","agentIndex":0,"totalAgents":2}`,
		`data: {"type":"agent_thinking","agent":"calculator","message":"checking volt drop","step":1,"totalSteps":3}`,
		`data: {"type":"agent_progress","agent":"calculator","status":"running"}`,
		`data: {"type":"citation","citation":{"source":"BS 7671","title":"Reg 433.1"}}`,
		`data: {"type":"tool_call","toolCall":{"agent":"calculator","tool":"volt_drop"}}`,
		`data: {"type":"agent_response","agent":"calculator","response":"Volt drop is fine. "}`,
		`data: {"type":"agent_complete","agent":"calculator","nextAgent":"designer"}`,
		`data: {"type":"agent_update","agents":["designer"]}`,
		`data: {"type":"validation_warning","regulation":"701.512.2","message":"socket too close to zone 2"}`,
		`data: {"type":"agent_challenge","challenger":"compliance","target":"designer","challenge":"zone distances"}`,
		`data: {"type":"agent_defended","agent":"designer","defense":"measured 3.1m"}`,
		`data: {"type":"agent_consensus","agents":["designer","compliance"],"consensus":"design stands"}`,
		`data: {"type":"all_agents_complete","outputs":{"calculator":"ok"}}`,
		`data: {"type":"done"}`,
	)
	defer server.Close()

	client := testClient(t, server.URL)
	rec := &recorder{}

	result, err := client.StreamMessage(userMessages("check my shower circuit"), nil, nil, rec)
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	if result.FullResponse != "Volt drop is fine. " {
		t.Errorf("FullResponse = %q", result.FullResponse)
	}
	if len(result.Metadata.Citations) != 1 || result.Metadata.Citations[0].Source != "BS 7671" {
		t.Errorf("Citations = %+v, want one BS 7671 citation", result.Metadata.Citations)
	}
	if len(result.Metadata.ToolCalls) != 1 || result.Metadata.ToolCalls[0].Tool != "volt_drop" {
		t.Errorf("ToolCalls = %+v, want one volt_drop call", result.Metadata.ToolCalls)
	}
	// agent_update replaced the plan's agent list wholesale
	if len(result.Metadata.ActiveAgents) != 1 || result.Metadata.ActiveAgents[0] != "designer" {
		t.Errorf("ActiveAgents = %v, want [designer] after wholesale replacement", result.Metadata.ActiveAgents)
	}
	if len(rec.agentStarts) != 1 || rec.agentStarts[0] != "calculator" {
		t.Errorf("agent starts = %v", rec.agentStarts)
	}
}
