package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elec-mate/elecmate/internal/models"
)

// DesignTemplate is a named starting design context. The document is sent
// to the router as the currentDesign payload; the shape is owned by the
// backend, so it is stored and forwarded uninterpreted.
type DesignTemplate struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Document    json.RawMessage `json:"document"`
}

// DesignConfig stores all design templates
type DesignConfig struct {
	Designs       []DesignTemplate `json:"designs"`
	DefaultDesign string           `json:"default_design,omitempty"`
}

// DefaultDesigns returns pre-configured installation contexts covering the
// common UK supply arrangements.
func DefaultDesigns() []DesignTemplate {
	return []DesignTemplate{
		{
			Name:        "domestic-tncs",
			Description: "Domestic single-phase, TN-C-S (PME) supply",
			Document: json.RawMessage(`{
  "installationType": "domestic",
  "supply": {"voltage": 230, "phases": 1, "earthing": "TN-C-S", "ze": 0.35, "pscc": 16000}
}`),
		},
		{
			Name:        "domestic-tt",
			Description: "Domestic single-phase, TT supply (rural, own earth rod)",
			Document: json.RawMessage(`{
  "installationType": "domestic",
  "supply": {"voltage": 230, "phases": 1, "earthing": "TT", "ze": 21, "pscc": 1000}
}`),
		},
		{
			Name:        "commercial-tns",
			Description: "Commercial three-phase, TN-S supply",
			Document: json.RawMessage(`{
  "installationType": "commercial",
  "supply": {"voltage": 400, "phases": 3, "earthing": "TN-S", "ze": 0.8, "pscc": 25000}
}`),
		},
	}
}

// GetDesignsPath returns the path to the designs file
func GetDesignsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "designs.json"), nil
}

// LoadDesigns loads the design configuration
func LoadDesigns() (*DesignConfig, error) {
	path, err := GetDesignsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &DesignConfig{Designs: DefaultDesigns()}, nil
		}
		return nil, fmt.Errorf("failed to read designs: %w", err)
	}

	var cfg DesignConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse designs: %w", err)
	}
	if len(cfg.Designs) == 0 {
		cfg.Designs = DefaultDesigns()
	}
	return &cfg, nil
}

// SaveDesigns saves the design configuration
func SaveDesigns(cfg *DesignConfig) error {
	path, err := GetDesignsPath()
	if err != nil {
		return err
	}
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal designs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write designs: %w", err)
	}
	return nil
}

// GetDesign returns a design template by name, or an error listing what
// exists when the name is unknown.
func GetDesign(name string) (*DesignTemplate, error) {
	cfg, err := LoadDesigns()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Designs))
	for i := range cfg.Designs {
		if cfg.Designs[i].Name == name {
			return &cfg.Designs[i], nil
		}
		names = append(names, cfg.Designs[i].Name)
	}
	return nil, fmt.Errorf("unknown design %q (available: %v)", name, names)
}

// ResolveDesign turns a --design flag value into a design context: a path
// to a JSON file, a template name, or "" for no context.
func ResolveDesign(flag string) (*models.Design, error) {
	if flag == "" {
		return nil, nil
	}

	if data, err := os.ReadFile(flag); err == nil {
		if !json.Valid(data) {
			return nil, fmt.Errorf("design file %s is not valid JSON", flag)
		}
		return models.NewDesign(data), nil
	}

	tmpl, err := GetDesign(flag)
	if err != nil {
		return nil, err
	}
	return models.NewDesign(tmpl.Document), nil
}
