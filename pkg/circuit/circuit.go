// Package circuit decodes the structured design documents the agent router
// attaches to its responses. The payload schema evolves server-side ahead of
// CLI releases, so decoding is tolerant: unknown fields are ignored and
// missing fields come back as zero values rather than errors.
package circuit

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Device is the protective device assigned to a circuit.
type Device struct {
	Type       string // "mcb", "rcbo", "fuse"
	RatingAmps float64
	Curve      string // "B", "C", "D"
}

// Circuit is one designed circuit in the document.
type Circuit struct {
	Name               string
	CableSize          string // e.g. "2.5mm²"
	CPCSize            string
	LengthMetres       float64
	DesignCurrentAmps  float64
	VoltageDropPercent float64
	ZsOhms             float64
	Device             Device
	RCDProtected       bool
	Notes              []string
}

// Supply describes the incoming supply the design assumes.
type Supply struct {
	Earthing    string // "TN-C-S", "TN-S", "TT"
	VoltageV    float64
	Phases      int64
	ZeOhms      float64
	MainFuseAmp float64
}

// Warning is a validation finding attached to the document.
type Warning struct {
	Regulation string
	Message    string
	Circuit    string // Name of the affected circuit, if any
}

// Document is the decoded design document.
type Document struct {
	ConversationID string
	Supply         Supply
	Circuits       []Circuit
	Warnings       []Warning
}

// Parse decodes a design document. It fails only when the payload is not a
// JSON object; absent sections simply leave their fields zero.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty design document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("design document is not a JSON object")
	}

	doc := &Document{
		ConversationID: root.Get("conversationId").String(),
		Supply: Supply{
			Earthing:    root.Get("supply.earthing").String(),
			VoltageV:    root.Get("supply.voltage").Float(),
			Phases:      root.Get("supply.phases").Int(),
			ZeOhms:      root.Get("supply.ze").Float(),
			MainFuseAmp: root.Get("supply.mainFuse").Float(),
		},
	}

	root.Get("circuits").ForEach(func(_, value gjson.Result) bool {
		doc.Circuits = append(doc.Circuits, parseCircuit(value))
		return true
	})

	root.Get("warnings").ForEach(func(_, value gjson.Result) bool {
		doc.Warnings = append(doc.Warnings, Warning{
			Regulation: value.Get("regulation").String(),
			Message:    value.Get("message").String(),
			Circuit:    value.Get("circuit").String(),
		})
		return true
	})

	return doc, nil
}

func parseCircuit(value gjson.Result) Circuit {
	c := Circuit{
		Name:               value.Get("name").String(),
		CableSize:          value.Get("cableSize").String(),
		CPCSize:            value.Get("cpcSize").String(),
		LengthMetres:       value.Get("length").Float(),
		DesignCurrentAmps:  value.Get("designCurrent").Float(),
		VoltageDropPercent: value.Get("voltageDrop").Float(),
		ZsOhms:             value.Get("zs").Float(),
		RCDProtected:       value.Get("rcdProtected").Bool(),
		Device: Device{
			Type:       value.Get("device.type").String(),
			RatingAmps: value.Get("device.rating").Float(),
			Curve:      value.Get("device.curve").String(),
		},
	}
	value.Get("notes").ForEach(func(_, note gjson.Result) bool {
		c.Notes = append(c.Notes, note.String())
		return true
	})
	return c
}

// HasCircuits reports whether the payload carries at least one circuit,
// without fully decoding it.
func HasCircuits(data []byte) bool {
	return gjson.GetBytes(data, "circuits.#").Int() > 0
}

// DeviceLabel formats the protective device for display, e.g. "B32 MCB".
func (d Device) DeviceLabel() string {
	if d.RatingAmps == 0 && d.Type == "" {
		return ""
	}
	label := fmt.Sprintf("%s%g", d.Curve, d.RatingAmps)
	if d.Type != "" {
		label += " " + strings.ToUpper(d.Type)
	}
	return strings.TrimSpace(label)
}

// Summary renders the document as a plain-text schedule for terminal output.
func (doc *Document) Summary() string {
	var sb strings.Builder

	if doc.Supply.Earthing != "" {
		fmt.Fprintf(&sb, "Supply: %s", doc.Supply.Earthing)
		if doc.Supply.VoltageV > 0 {
			fmt.Fprintf(&sb, " %gV", doc.Supply.VoltageV)
		}
		if doc.Supply.Phases > 1 {
			fmt.Fprintf(&sb, " %d-phase", doc.Supply.Phases)
		}
		if doc.Supply.ZeOhms > 0 {
			fmt.Fprintf(&sb, ", Ze %.2fΩ", doc.Supply.ZeOhms)
		}
		sb.WriteString("\n")
	}

	for _, c := range doc.Circuits {
		fmt.Fprintf(&sb, "  %-24s", c.Name)
		if c.CableSize != "" {
			fmt.Fprintf(&sb, " %s", c.CableSize)
		}
		if label := c.Device.DeviceLabel(); label != "" {
			fmt.Fprintf(&sb, "  %s", label)
		}
		if c.VoltageDropPercent > 0 {
			fmt.Fprintf(&sb, "  VD %.1f%%", c.VoltageDropPercent)
		}
		if c.ZsOhms > 0 {
			fmt.Fprintf(&sb, "  Zs %.2fΩ", c.ZsOhms)
		}
		if c.RCDProtected {
			sb.WriteString("  RCD")
		}
		sb.WriteString("\n")
	}

	for _, w := range doc.Warnings {
		fmt.Fprintf(&sb, "  ⚠ %s", w.Message)
		if w.Regulation != "" {
			fmt.Fprintf(&sb, " (%s)", w.Regulation)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
