package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scale maps a filename suffix to a fraction of the original width.
type Scale struct {
	Suffix string
	Factor float64
}

// Scales keeps the order in which suffixes were declared so output is
// produced in a stable order.
type Scales []Scale

// UnmarshalYAML decodes a mapping of suffix to factor, keeping key order.
// Factors may be numbers or fractions such as "2/3".
func (s *Scales) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scales must be a mapping of suffix to factor", node.Line)
	}
	out := make(Scales, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		f, err := ParseFactor(val.Value)
		if err != nil {
			return fmt.Errorf("line %d: scale %q: %w", val.Line, key.Value, err)
		}
		out = append(out, Scale{Suffix: key.Value, Factor: f})
	}
	*s = out
	return nil
}

// MarshalYAML encodes the scales as an ordered mapping.
func (s Scales) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, sc := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: sc.Suffix},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(sc.Factor, 'g', -1, 64)},
		)
	}
	return node, nil
}

// ParseFactor parses "0.5", "1" or "2/3".
func ParseFactor(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	num, den, isFrac := strings.Cut(raw, "/")
	if !isFrac {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid factor %q", raw)
		}
		return finite(raw, f)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid factor numerator %q", num)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid factor denominator %q", den)
	}
	if d == 0 {
		return 0, fmt.Errorf("factor %q divides by zero", raw)
	}
	return finite(raw, n/d)
}

// finite rejects "inf" and "nan" spellings, and fractions overflowing to them.
func finite(raw string, f float64) (float64, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("factor %q is not a finite number", raw)
	}
	return f, nil
}

// ParseScale parses the flag form "@2x=2/3".
func ParseScale(raw string) (Scale, error) {
	suffix, factor, ok := strings.Cut(raw, "=")
	if !ok {
		return Scale{}, fmt.Errorf("scale %q: want <suffix>=<factor>", raw)
	}
	f, err := ParseFactor(factor)
	if err != nil {
		return Scale{}, fmt.Errorf("scale %q: %w", raw, err)
	}
	return Scale{Suffix: strings.TrimSpace(suffix), Factor: f}, nil
}
