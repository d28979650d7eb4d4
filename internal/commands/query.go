package commands

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/elec-mate/elecmate/internal/api"
	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/models"
	"github.com/elec-mate/elecmate/internal/render"
	"github.com/elec-mate/elecmate/internal/tui"
	"github.com/elec-mate/elecmate/pkg/circuit"
)

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorAccent  = lipgloss.Color("#bb9af7")
	colorWarning = lipgloss.Color("#e0af68")
)

var (
	answerLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	answerBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	sourcesStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Italic(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)
)

// progress is the single-line status display for one-shot queries. The
// streaming hooks feed it from the stream goroutine, so all fields are
// guarded by the mutex.
type progress struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	frame   int
	stopped bool

	message string
	elapsed int
	total   int
	current int
}

func newProgress(message string) *progress {
	return &progress{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *progress) start() {
	go func() {
		defer close(p.done)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(os.Stderr, "\033[?25l")

		for {
			select {
			case <-p.stop:
				fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				p.mu.Lock()
				p.render()
				p.frame++
				p.mu.Unlock()
			}
		}
	}()
}

func (p *progress) render() {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spin := lipgloss.NewStyle().Foreground(colorAccent).Render(frames[p.frame%len(frames)])

	line := spin + " " + lipgloss.NewStyle().Foreground(colorText).Render(p.message)
	if p.total > 0 {
		line += lipgloss.NewStyle().Foreground(colorTextDim).
			Render(fmt.Sprintf("  [%d/%d]", p.current, p.total))
	}
	if p.elapsed > 0 {
		line += lipgloss.NewStyle().Foreground(colorTextDim).
			Render(fmt.Sprintf("  %ds", p.elapsed))
	}

	fmt.Fprintf(os.Stderr, "\r\033[K%s", line)
}

func (p *progress) setMessage(message string) {
	p.mu.Lock()
	p.message = message
	p.mu.Unlock()
}

func (p *progress) setAgentProgress(current, total int) {
	p.mu.Lock()
	p.current = current
	p.total = total
	p.mu.Unlock()
}

func (p *progress) setElapsed(seconds int) {
	p.mu.Lock()
	p.elapsed = seconds
	p.mu.Unlock()
}

// println clears the status line, prints a full line, and lets the
// spinner redraw on the next tick.
func (p *progress) println(line string) {
	p.mu.Lock()
	fmt.Fprintf(os.Stderr, "\r\033[K%s\n", line)
	p.mu.Unlock()
}

func (p *progress) stopOnce() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		close(p.stop)
		p.stopped = true
	}
}

func (p *progress) stopWithSuccess(message string) {
	p.stopOnce()
	<-p.done

	check := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(os.Stderr, "%s %s\n", check, msg)
}

func (p *progress) stopWithError() {
	p.stopOnce()
	<-p.done
}

// queryHooks drives the progress display from the streaming coordinator.
type queryHooks struct {
	api.NopHooks
	progress *progress
}

func (h *queryHooks) OnPlan(agents []string, complexity string) {
	titles := make([]string, len(agents))
	for i, name := range agents {
		titles[i] = models.AgentFromName(name).Title
	}
	h.progress.setMessage("Consulting " + strings.Join(titles, ", "))
	h.progress.setAgentProgress(0, len(agents))
}

func (h *queryHooks) OnAgentStart(agent string, index, total int) {
	h.progress.setMessage(models.AgentFromName(agent).Title + " working")
	h.progress.setAgentProgress(index+1, total)
}

func (h *queryHooks) OnAgentThinking(agent, message string, step, totalSteps int) {
	if message != "" {
		h.progress.setMessage(message)
	}
}

func (h *queryHooks) OnValidationWarning(regulation, message string) {
	warning := message
	if regulation != "" {
		warning = fmt.Sprintf("%s (%s)", message, regulation)
	}
	h.progress.println(warnStyle.Render("⚠ " + warning))
}

func (h *queryHooks) OnSlowWarning(elapsedSeconds int, message string) {
	h.progress.println(warnStyle.Render("⏳ " + message))
}

func (h *queryHooks) OnElapsedTimeUpdate(seconds int) {
	h.progress.setElapsed(seconds)
}

// runQuery sends one question to the router and prints the answer.
// If rawOutput is true, only the raw answer text is printed.
func runQuery(prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("question cannot be empty")
	}

	cfg, _ := config.LoadConfig()

	design, err := config.ResolveDesign(designFlag)
	if err != nil {
		return err
	}

	clientOpts := []api.ClientOption{
		api.WithEndpoint(cfg.Endpoint),
		api.WithAgents(getAgents()),
	}
	if browserType, enabled := getBrowserLogin(); enabled {
		clientOpts = append(clientOpts, api.WithBrowserLogin(browserType))
	}

	client, err := api.NewClient(clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	if err := client.Init(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	session := client.StartSession(design)
	if targetFlag != "" {
		session.SetTargetAgent(targetFlag)
	}

	var hooks api.Hooks = &api.NopHooks{}
	var prog *progress
	if !rawOutput {
		prog = newProgress("Consulting the agents")
		prog.start()
		hooks = &queryHooks{progress: prog}
	}

	result, err := session.Send(prompt, hooks)
	if err != nil {
		if !rawOutput {
			prog.stopWithError()
			tui.PrintError(err)
		}
		return err
	}
	if !rawOutput {
		prog.stopWithSuccess(fmt.Sprintf("Done in %ds", result.Metadata.ElapsedSeconds))
	}

	text := result.FullResponse

	if rawOutput {
		if outputFlag != "" {
			return os.WriteFile(outputFlag, []byte(text), 0o644)
		}
		fmt.Print(text)
		return nil
	}

	fmt.Fprintln(os.Stderr)

	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).
			Render(fmt.Sprintf("✓ Answer saved to %s", outputFlag)))
		return nil
	}

	printAnswer(result)
	return nil
}

// printAnswer renders the answer with markdown and the citation footer.
func printAnswer(result *models.Result) {
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	who := "Elec-Mate"
	if len(result.Metadata.ConsultedAgents) > 0 {
		titles := make([]string, len(result.Metadata.ConsultedAgents))
		for i, name := range result.Metadata.ConsultedAgents {
			titles[i] = models.AgentFromName(name).Title
		}
		who = strings.Join(titles, ", ")
	}
	fmt.Println(answerLabelStyle.Render("⚡ " + who))

	renderOpts := render.LoadOptionsFromConfigWithWidth(contentWidth)
	rendered, err := render.Markdown(result.FullResponse, renderOpts)
	if err != nil {
		rendered = result.FullResponse
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Println(answerBubbleStyle.Width(bubbleWidth).Render(rendered))

	if len(result.Metadata.Citations) > 0 {
		var refs []string
		for _, cit := range result.Metadata.Citations {
			ref := cit.Title
			if ref == "" {
				ref = cit.Source
			} else if cit.Source != "" {
				ref = fmt.Sprintf("%s (%s)", cit.Title, cit.Source)
			}
			refs = append(refs, ref)
		}
		fmt.Println(sourcesStyle.Render("Sources: " + strings.Join(refs, "; ")))
	}

	if circuit.HasCircuits(result.Metadata.StructuredData) {
		if doc, err := circuit.Parse(result.Metadata.StructuredData); err == nil {
			fmt.Println()
			fmt.Println(answerLabelStyle.Render("Circuit schedule"))
			fmt.Println(doc.Summary())
		}
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
