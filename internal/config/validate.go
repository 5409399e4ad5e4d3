package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and consistent
// routing. Each class name may belong to at most one group.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	d := cfg.Detection
	if strings.TrimSpace(d.Model) == "" {
		return errors.New("detection.model must be set")
	}
	if len(cfg.ClassNames) == 0 {
		return errors.New("detection class map is empty")
	}
	if d.ConfidenceThreshold < 0 || d.ConfidenceThreshold > 1 {
		return fmt.Errorf("detection.confidence_threshold %v outside [0,1]", d.ConfidenceThreshold)
	}
	if d.IoUThreshold < 0 || d.IoUThreshold > 1 {
		return fmt.Errorf("detection.iou_threshold %v outside [0,1]", d.IoUThreshold)
	}
	if d.InputSize <= 0 {
		return fmt.Errorf("detection.input_size must be positive, got %d", d.InputSize)
	}
	if d.ExpandScale <= 0 {
		return fmt.Errorf("detection.expand_scale must be positive, got %v", d.ExpandScale)
	}

	if len(cfg.Groups) == 0 {
		return errors.New("at least one group must be configured")
	}

	seenGroups := make(map[string]bool, len(cfg.Groups))
	owner := make(map[string]string)
	for i, g := range cfg.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return fmt.Errorf("groups[%d] name must be set", i)
		}
		if seenGroups[name] {
			return fmt.Errorf("group %q defined twice", name)
		}
		seenGroups[name] = true

		if len(g.Classes) == 0 {
			return fmt.Errorf("group %q has no classes", name)
		}
		for _, class := range g.Classes {
			if strings.TrimSpace(class) == "" {
				return fmt.Errorf("group %q lists an empty class name", name)
			}
			if prev, ok := owner[class]; ok {
				return fmt.Errorf("class %q listed in groups %q and %q", class, prev, name)
			}
			owner[class] = name
		}
	}

	for name, c := range cfg.Classifiers {
		if !seenGroups[name] {
			return fmt.Errorf("classifier %q does not match any group", name)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("classifier %q model must be set", name)
		}
		if strings.TrimSpace(c.Labels) == "" {
			return fmt.Errorf("classifier %q labels must be set", name)
		}
		if c.InputSize <= 0 {
			return fmt.Errorf("classifier %q input_size must be positive, got %d", name, c.InputSize)
		}
	}

	return nil
}
