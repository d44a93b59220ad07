package domain

import "strings"

// AgentType defines the role an agent plays in the system.
// The set is closed: dispatch on it with an explicit switch, not reflection.
type AgentType string

const (
	TypeAnalyzer    AgentType = "analyzer"
	TypeTransformer AgentType = "transformer"
	TypeValidator   AgentType = "validator"
	TypeCoordinator AgentType = "coordinator"
	TypeCustom      AgentType = "custom"
)

// ParseAgentType maps a case-insensitive name to its AgentType.
// Unrecognized names return false.
func ParseAgentType(s string) (AgentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analyzer":
		return TypeAnalyzer, true
	case "transformer":
		return TypeTransformer, true
	case "validator":
		return TypeValidator, true
	case "coordinator":
		return TypeCoordinator, true
	case "custom":
		return TypeCustom, true
	default:
		return "", false
	}
}

// String returns the canonical lowercase name.
func (t AgentType) String() string {
	return string(t)
}
