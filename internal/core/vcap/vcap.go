// Package vcap parses Cloud Foundry VCAP_SERVICES and VCAP_APPLICATION JSON
// into the vcap.* placeholder namespace.
//
// Cloud Foundry injects bound-service credentials through VCAP_SERVICES and
// application metadata through VCAP_APPLICATION. Spring exposes these as
// properties under vcap.services.{name}.* and vcap.application.*.
package vcap

import (
	"encoding/json"
	"strings"
)

// Bindings is the vcap.* namespace made available to placeholder lookup.
type Bindings struct {
	Services    map[string]any
	Application map[string]any
}

// Empty reports whether no VCAP data was supplied.
func (b Bindings) Empty() bool {
	return len(b.Services) == 0 && len(b.Application) == 0
}

// Tree returns the bindings as a config-shaped tree rooted at "vcap".
func (b Bindings) Tree() map[string]any {
	if b.Empty() {
		return map[string]any{}
	}
	inner := make(map[string]any, 2)
	if len(b.Services) > 0 {
		inner["services"] = b.Services
	}
	if len(b.Application) > 0 {
		inner["application"] = b.Application
	}
	return map[string]any{"vcap": inner}
}

// Parse builds bindings from the raw env var JSON payloads. Either argument
// may be empty. Malformed JSON yields empty bindings rather than an error;
// VCAP content is advisory input, not user configuration.
func Parse(servicesJSON, applicationJSON string) Bindings {
	return Bindings{
		Services:    parseServices(servicesJSON),
		Application: parseApplication(applicationJSON),
	}
}

// parseServices flattens the service-type-keyed instance arrays into a map
// keyed by each instance's "name" field.
func parseServices(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	services := make(map[string]any)
	for _, instances := range payload {
		list, ok := instances.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			instance, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, ok := instance["name"].(string)
			if !ok || name == "" {
				continue
			}
			services[name] = instance
		}
	}
	if len(services) == 0 {
		return nil
	}
	return services
}

func parseApplication(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

// IsReference reports whether a placeholder name points into the VCAP
// namespace.
func IsReference(name string) bool {
	return strings.HasPrefix(name, "vcap.services.") || strings.HasPrefix(name, "vcap.application.")
}
