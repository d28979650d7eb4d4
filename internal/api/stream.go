package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/elec-mate/elecmate/internal/errors"
	"github.com/elec-mate/elecmate/internal/models"
)

// wordReplayDelay paces the synthetic word-by-word replay of non-streaming
// responses so the UI shows the same incremental reveal as true SSE.
const wordReplayDelay = 20 * time.Millisecond

// errorBodyLimit caps how much of an error response body is read for
// diagnostics.
const errorBodyLimit = 4096

// StreamOptions selects which agents handle the exchange.
type StreamOptions struct {
	// SelectedAgents defaults to the designer when empty.
	SelectedAgents []string
	// TargetAgent routes the question at a single named agent.
	TargetAgent string
}

// routerRequest is the POST body sent to the agent router.
type routerRequest struct {
	ConversationID   string           `json:"conversationId,omitempty"`
	UserMessage      string           `json:"userMessage"`
	SelectedAgents   []string         `json:"selectedAgents"`
	ConsultationMode string           `json:"consultationMode"`
	Messages         []models.Message `json:"messages"`
	CurrentDesign    *models.Design   `json:"currentDesign,omitempty"`
	TargetAgent      string           `json:"targetAgent,omitempty"`
}

// accumulator collects the visible output of one exchange. It lives for a
// single StreamMessage call and is never shared between calls.
type accumulator struct {
	full         strings.Builder
	citations    []models.Citation
	toolCalls    []models.ToolCall
	activeAgents []string
	consulted    []string
	suggested    []string
	structured   json.RawMessage
}

func (a *accumulator) result(elapsed time.Duration) *models.Result {
	return &models.Result{
		FullResponse: a.full.String(),
		Metadata: models.Metadata{
			Citations:           a.citations,
			ToolCalls:           a.toolCalls,
			ActiveAgents:        a.activeAgents,
			ConsultedAgents:     a.consulted,
			SuggestedNextAgents: a.suggested,
			StructuredData:      a.structured,
			ElapsedSeconds:      int(elapsed / time.Second),
		},
	}
}

// StreamMessage runs one exchange with the agent router: it posts the
// transcript, consumes either an SSE stream or a plain JSON body, fans
// chunk notifications out to hooks, and returns the accumulated result.
//
// On success hooks.OnComplete fires exactly once before the result is
// returned. On failure hooks.OnError is notified before the error return.
// Per-agent failures mid-stream are folded into the transcript and do not
// fail the call.
func (c *Client) StreamMessage(messages []models.Message, design *models.Design, opts *StreamOptions, hooks Hooks) (*models.Result, error) {
	if hooks == nil {
		hooks = NopHooks{}
	}

	result, err := c.streamMessage(messages, design, opts, hooks)
	if err != nil {
		hooks.OnError(err.Error())
		return nil, err
	}
	return result, nil
}

func (c *Client) streamMessage(messages []models.Message, design *models.Design, opts *StreamOptions, hooks Hooks) (*models.Result, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	userMessage, ok := models.LastUserMessage(messages)
	if !ok {
		return nil, apierrors.ErrNoUserMessage
	}

	if opts == nil {
		opts = &StreamOptions{}
	}
	agents := opts.SelectedAgents
	if len(agents) == 0 {
		agents = []string{models.DefaultAgent.Name}
	}

	// Exchange ID tags log lines and lets callers running concurrent
	// exchanges attribute interleaved advisory callbacks.
	exchangeID := uuid.NewString()
	logger := log.With().
		Str("component", "router").
		Str("exchange_id", exchangeID).
		Logger()

	body, err := json.Marshal(routerRequest{
		ConversationID:   design.ConversationID(),
		UserMessage:      userMessage,
		SelectedAgents:   agents,
		ConsultationMode: models.ConsultationModeUserDriven,
		Messages:         messages,
		CurrentDesign:    design,
		TargetAgent:      opts.TargetAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	// Auth headers are attached only when a session exists; unauthenticated
	// calls carry no placeholder headers at all.
	if session := c.Session(); session != nil {
		if token := session.GetAccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if key := session.GetAPIKey(); key != "" {
			req.Header.Set("apikey", key)
		}
	}

	start := time.Now()

	stopTicker := startElapsedTicker(start, hooks)
	defer stopTicker()

	wd := newWatchdog(c.hardTimeout, func(elapsed time.Duration, message string) {
		logger.Warn().Dur("elapsed", elapsed).Msg("router is slow to respond")
		hooks.OnSlowWarning(int(elapsed/time.Second), message)
	})
	defer wd.Stop()

	logger.Debug().
		Strs("agents", agents).
		Int("messages", len(messages)).
		Msg("sending message to router")

	// Until headers arrive, cancelling the request context is the only way
	// to break a hung connection.
	ctx, cancelReq := context.WithCancel(context.Background())
	defer cancelReq()
	req = req.WithContext(ctx)
	wd.SetAbort(cancelReq)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if wd.Expired() {
			return nil, apierrors.NewTimeoutError()
		}
		logger.Error().Err(err).Msg("router request failed")
		return nil, apierrors.NewUnavailableError(err)
	}
	defer func() {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	// From here the watchdog can also break a blocked read mid-stream.
	wd.SetAbort(func() {
		cancelReq()
		_ = resp.Body.Close()
	})

	acc := &accumulator{}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/event-stream") {
		err = c.consumeSSE(resp.Body, acc, hooks, logger)
	} else {
		err = c.consumeJSON(resp.Body, acc, hooks)
	}
	if err != nil {
		if wd.Expired() {
			return nil, apierrors.NewTimeoutError()
		}
		return nil, err
	}

	result := acc.result(time.Since(start))
	hooks.OnComplete(result.FullResponse, &result.Metadata)
	logger.Debug().
		Int("response_chars", len(result.FullResponse)).
		Int("citations", len(result.Metadata.Citations)).
		Msg("exchange complete")
	return result, nil
}

// startElapsedTicker notifies hooks once a second until stopped.
func startElapsedTicker(start time.Time, hooks Hooks) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hooks.OnElapsedTimeUpdate(int(time.Since(start) / time.Second))
			}
		}
	}()
	return func() { close(done) }
}

// statusError maps a non-2xx response to the failure taxonomy, extracting
// a server-provided message when one is present.
func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return apierrors.NewRateLimitError()
	case http.StatusPaymentRequired:
		return apierrors.NewCreditsError()
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	message := serverMessage(body)
	if message == "" {
		message = resp.Status
	}
	return apierrors.NewAPIError(resp.StatusCode, message)
}

// serverMessage digs a human-readable message out of an error body: a JSON
// error or message field first, then the raw text.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	if gjson.Valid(trimmed) {
		if msg := gjson.Get(trimmed, "error"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		if msg := gjson.Get(trimmed, "message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
	}
	return trimmed
}

// consumeSSE reads the event stream line by line and dispatches every
// decoded chunk. A malformed line is logged and skipped; one bad line must
// not sacrifice an otherwise good stream.
func (c *Client) consumeSSE(body io.Reader, acc *accumulator, hooks Hooks, logger zerolog.Logger) error {
	scanner := newSSEScanner(body)
	for {
		line, err := scanner.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}

		payload, ok := ssePayload(line)
		if !ok {
			continue
		}

		chunk, err := models.ParseChunk([]byte(payload))
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed stream line")
			continue
		}

		if err := dispatch(chunk, acc, hooks); err != nil {
			return err
		}
	}
}

// dispatch applies one chunk to the accumulator and notifies hooks. It is
// the single path chunks take regardless of which transport produced them.
// A returned error is fatal to the exchange.
func dispatch(chunk models.Chunk, acc *accumulator, hooks Hooks) error {
	switch ch := chunk.(type) {
	case *models.TokenChunk:
		acc.full.WriteString(ch.Content)
		hooks.OnToken(ch.Content)

	case *models.CitationChunk:
		acc.citations = append(acc.citations, ch.Citation)
		hooks.OnCitation(ch.Citation)

	case *models.ToolCallChunk:
		acc.toolCalls = append(acc.toolCalls, ch.ToolCall)
		hooks.OnToolCall(ch.ToolCall)

	case *models.AgentUpdateChunk:
		// Replaced wholesale, never merged
		acc.activeAgents = ch.Agents
		hooks.OnAgentUpdate(ch.Agents)

	case *models.PlanChunk:
		acc.activeAgents = ch.Agents
		hooks.OnPlan(ch.Agents, ch.Complexity)

	case *models.EstimatedTimeChunk:
		hooks.OnEstimatedTime(ch.Seconds)

	case *models.QuestionAnalysisChunk:
		hooks.OnQuestionAnalysis(ch.Analysis)

	case *models.AgentStartChunk:
		hooks.OnAgentStart(ch.Agent, ch.Index, ch.Total)

	case *models.AgentThinkingChunk:
		hooks.OnAgentThinking(ch.Agent, ch.Message, ch.Step, ch.TotalSteps)

	case *models.AgentProgressChunk:
		hooks.OnAgentProgress(ch.Agent, ch.Status)

	case *models.AgentResponseChunk:
		acc.full.WriteString(ch.Response)
		hooks.OnToken(ch.Response)
		if len(ch.StructuredData) > 0 {
			// Last write wins; earlier payloads are not merged
			acc.structured = ch.StructuredData
		}
		hooks.OnAgentResponse(ch.Agent, ch.Response, ch.StructuredData)

	case *models.AgentCompleteChunk:
		hooks.OnAgentComplete(ch.Agent, ch.NextAgent)

	case *models.AgentErrorChunk:
		// Non-fatal: fold a warning into the transcript and keep going so
		// the user sees the agents that did answer.
		warning := fmt.Sprintf("\n\n> ⚠️ %s could not complete: %s\n\n",
			models.AgentFromName(ch.Agent).Title, ch.Error)
		acc.full.WriteString(warning)
		hooks.OnToken(warning)
		hooks.OnError(fmt.Sprintf("%s failed: %s", ch.Agent, ch.Error))

	case *models.AgentSkippedChunk:
		reason := ch.Reason
		if reason == "" {
			reason = "not needed for this question"
		}
		info := fmt.Sprintf("\n\n> %s was skipped: %s\n\n",
			models.AgentFromName(ch.Agent).Title, reason)
		acc.full.WriteString(info)
		hooks.OnToken(info)

	case *models.AllAgentsCompleteChunk:
		hooks.OnAllAgentsComplete(ch.Outputs)

	case *models.AgentChallengeChunk:
		hooks.OnAgentChallenge(ch.Challenger, ch.Target, ch.Challenge)

	case *models.AgentRevisedChunk:
		hooks.OnAgentRevised(ch.Agent, ch.Revision)

	case *models.AgentDefendedChunk:
		hooks.OnAgentDefended(ch.Agent, ch.Defense)

	case *models.AgentConsensusChunk:
		hooks.OnAgentConsensus(ch.Agents, ch.Consensus)

	case *models.ValidationWarningChunk:
		hooks.OnValidationWarning(ch.Regulation, ch.Message)

	case *models.ErrorChunk:
		return apierrors.NewRouterError(ch.Error)

	case *models.DoneChunk:
		// Informational; transport end of stream is authoritative
	}
	return nil
}

// consumeJSON handles the non-streaming fallback: one JSON document for
// the whole consultation, replayed word by word so the UI gets the same
// incremental reveal as a real stream.
func (c *Client) consumeJSON(body io.Reader, acc *accumulator, hooks Hooks) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if !gjson.ValidBytes(raw) || !gjson.GetBytes(raw, "responses").Exists() {
		return apierrors.NewParseError("router response missing responses array")
	}

	var routerResp models.RouterResponse
	if err := json.Unmarshal(raw, &routerResp); err != nil {
		return apierrors.NewParseError(err.Error())
	}
	if !routerResp.Success {
		message := routerResp.Error
		if message == "" {
			message = "consultation failed"
		}
		return apierrors.NewRouterError(message)
	}

	acc.consulted = routerResp.ConsultedAgents
	acc.suggested = routerResp.SuggestedNextAgents

	total := len(routerResp.Responses)
	for i, reply := range routerResp.Responses {
		text := replyText(reply.Response)
		if text == "" {
			continue
		}

		hooks.OnAgentStart(reply.Agent, i, total)
		if acc.full.Len() > 0 {
			// The separator goes through OnToken too, so the incremental
			// view ends up identical to the accumulated result.
			acc.full.WriteString("\n\n")
			hooks.OnToken("\n\n")
		}
		acc.full.WriteString(text)
		replayWords(text, hooks)
		hooks.OnAgentResponse(reply.Agent, text, nil)
		hooks.OnAgentComplete(reply.Agent, "")
	}
	return nil
}

// replyText unwraps an agent reply. Some agents return their payload as a
// JSON document with the prose under a response or text key.
func replyText(response string) string {
	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		if v := gjson.Get(trimmed, "response"); v.Exists() {
			return v.String()
		}
		if v := gjson.Get(trimmed, "text"); v.Exists() {
			return v.String()
		}
	}
	return response
}

// replayWords feeds the text to OnToken one space-suffixed word at a time.
// The pacing, not the exact delay, is the contract: the reveal should read
// like streaming, not an instant paste.
func replayWords(text string, hooks Hooks) {
	words := strings.Split(text, " ")
	for _, word := range words {
		hooks.OnToken(word + " ")
		time.Sleep(wordReplayDelay)
	}
}
