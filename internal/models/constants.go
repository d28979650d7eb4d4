// Package models contains data types and constants for the Elec-Mate agent router.
package models

// Endpoints for the Elec-Mate backend
const (
	// EndpointRouter is the agent routing endpoint that answers design questions.
	EndpointRouter = "https://api.elec-mate.app/functions/v1/agent-router"

	// EndpointApp is the web app origin, used for browser session extraction.
	EndpointApp = "https://app.elec-mate.app"
)

// ConsultationModeUserDriven is the only consultation mode the CLI requests.
// The router also supports an autonomous mode but that is driven server-side.
const ConsultationModeUserDriven = "user-driven"

// SessionCookieName is the auth cookie set by the Elec-Mate web app.
const SessionCookieName = "em-access-token"

// Agent represents a named backend role that can contribute to a response
type Agent struct {
	Name        string
	Title       string
	Description string
}

// Available agents
var (
	// AgentDesigner proposes circuit layouts and equipment selection
	AgentDesigner = Agent{
		Name:        "designer",
		Title:       "Circuit Designer",
		Description: "Designs circuits, selects consumer units, boards and ways",
	}

	// AgentCalculator runs cable sizing, volt drop and Zs calculations
	AgentCalculator = Agent{
		Name:        "calculator",
		Title:       "Calculations",
		Description: "Cable sizing, voltage drop, earth fault loop impedance",
	}

	// AgentCompliance checks designs against BS 7671
	AgentCompliance = Agent{
		Name:        "compliance",
		Title:       "BS 7671 Compliance",
		Description: "Checks the design against the wiring regulations",
	}

	// AgentEstimator prices materials and labour for the design
	AgentEstimator = Agent{
		Name:        "estimator",
		Title:       "Cost Estimator",
		Description: "Estimates material and labour cost for the design",
	}

	// DefaultAgent is consulted when the caller selects no agents
	DefaultAgent = AgentDesigner
)

// AllAgents returns a list of all available agents
func AllAgents() []Agent {
	return []Agent{AgentDesigner, AgentCalculator, AgentCompliance, AgentEstimator}
}

// AgentFromName returns an Agent by its wire name.
// Unknown names are returned as a bare agent so responses from newly
// deployed backend agents still display.
func AgentFromName(name string) Agent {
	for _, a := range AllAgents() {
		if a.Name == name {
			return a
		}
	}
	return Agent{Name: name, Title: name}
}

// DefaultHeaders returns the default headers for router requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "elecmate-cli",
	}
}
