// Package scenario runs scripted line events against the echo handler on the
// simulated UART and checks the observable results.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Script is one scenario. A YAML file may hold several, one per document.
type Script struct {
	Name   string `yaml:"name"`
	Policy string `yaml:"policy,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Step is one event or check. Exactly one field is normally set; when several
// are, they apply in field order.
type Step struct {
	// Hold makes the transmitter busy, as if a character were shifting.
	Hold bool `yaml:"hold,omitempty"`
	// Mask masks (true) or unmasks (false) the interrupt line.
	Mask *bool `yaml:"mask,omitempty"`
	// RX delivers bytes to the receive pin, one after another.
	RX Bytes `yaml:"rx,omitempty"`
	// Errors raises line error flags: overrun, framing, parity, break.
	Errors []string `yaml:"errors,omitempty"`
	// Shift completes N characters on the transmitter.
	Shift int `yaml:"shift,omitempty"`
	// Expect checks the state after the previous events.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the observations to check. Unset fields are not checked.
type Expect struct {
	// Wire is every byte transmitted since the start.
	Wire *Bytes `yaml:"wire,omitempty"`
	// Pending is the mailbox content: empty, or one byte.
	Pending *Bytes `yaml:"pending,omitempty"`
	// TxIRQ is the transmit-ready interrupt enable bit.
	TxIRQ *bool `yaml:"tx_irq,omitempty"`
	// Trace is the RX trace lines emitted since the previous check.
	Trace []string `yaml:"trace,omitempty"`
	// Dropped is the number of bytes lost to a full mailbox.
	Dropped *uint32 `yaml:"dropped,omitempty"`
	// LineErrors is the number of line errors cleared by the handler.
	LineErrors *uint32 `yaml:"line_errors,omitempty"`
	// Lost is the number of bytes lost to hardware overrun.
	Lost *uint64 `yaml:"lost,omitempty"`
}

// Bytes accepts a quoted string, a single number or a list of either.
type Bytes []byte

func (b *Bytes) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := scalarBytes(n)
		if err != nil {
			return err
		}
		*b = v
		return nil
	case yaml.SequenceNode:
		out := Bytes{}
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("scenario: line %d: byte list items must be scalars", item.Line)
			}
			v, err := scalarBytes(item)
			if err != nil {
				return err
			}
			out = append(out, v...)
		}
		*b = out
		return nil
	default:
		return fmt.Errorf("scenario: line %d: expected bytes", n.Line)
	}
}

func scalarBytes(n *yaml.Node) ([]byte, error) {
	if n.ShortTag() == "!!int" {
		v, err := strconv.ParseUint(n.Value, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("scenario: line %d: %q is not a byte", n.Line, n.Value)
		}
		return []byte{byte(v)}, nil
	}
	return []byte(n.Value), nil
}

// Load decodes every script in r.
func Load(r io.Reader) ([]Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var scripts []Script
	for {
		var s Script
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
		scripts = append(scripts, s)
	}
	if len(scripts) == 0 {
		return nil, errors.New("scenario: no scripts")
	}
	return scripts, nil
}

func LoadFile(path string) ([]Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()
	scripts, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scripts, nil
}
