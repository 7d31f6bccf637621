package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/providingshelter/ingest/internal/format"
)

// Skip reasons recorded on FetchAttempt rows
const (
	ReasonUnknownFormat = "unknown format"
	ReasonDenied        = "denied format"
	ReasonNotAllowed    = "format not allowed"
)

// Decision is the outcome of the format gate
type Decision struct {
	Fetch  bool
	Reason string // set when Fetch is false
}

// FormatPolicy defines the interface for the allow/deny/container format gate
//
//go:generate mockgen -source=format_policy.go -destination=../mocks/format_policy.go -package=mocks -mock_names=FormatPolicy=MockFormatPolicy
type FormatPolicy interface {
	// Decide reports whether a resource with the given resolved format tag is fetched.
	// Denied formats are never fetched. When downloadUnknown is set every other
	// format is fetched, including blank and unlisted ones.
	Decide(formatTag string, downloadUnknown bool) Decision

	// IsContainer reports whether the format is an archive container
	IsContainer(formatTag string) bool
}

// FormatPolicyData represents the structure of the optional policy JSON file
type FormatPolicyData struct {
	Allow     []string `json:"allow"`
	Container []string `json:"container"`
	Deny      []string `json:"deny"`
}

type formatPolicy struct {
	allow     map[string]bool
	container map[string]bool
	deny      map[string]bool
}

// NewFormatPolicy builds a policy from the three lists. Tags are normalized.
func NewFormatPolicy(data FormatPolicyData) FormatPolicy {
	return &formatPolicy{
		allow:     toSet(data.Allow),
		container: toSet(data.Container),
		deny:      toSet(data.Deny),
	}
}

// LoadFormatPolicy loads the policy lists from a JSON file
func LoadFormatPolicy(filePath string) (FormatPolicy, error) {
	raw, err := os.ReadFile(filePath) //nolint:gosec,G304 // This should be a trusted file
	if err != nil {
		return nil, fmt.Errorf("failed to read format policy file: %w", err)
	}

	var data FormatPolicyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse format policy JSON: %w", err)
	}

	return NewFormatPolicy(data), nil
}

func toSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		if n := format.Normalize(t); n != "" {
			set[n] = true
		}
	}
	return set
}

func (p *formatPolicy) Decide(formatTag string, downloadUnknown bool) Decision {
	f := format.Normalize(formatTag)
	switch {
	case f != "" && p.deny[f]:
		return Decision{Reason: ReasonDenied}
	case f != "" && (p.container[f] || p.allow[f]):
		return Decision{Fetch: true}
	case downloadUnknown:
		return Decision{Fetch: true}
	case f == "":
		return Decision{Reason: ReasonUnknownFormat}
	default:
		return Decision{Reason: ReasonNotAllowed}
	}
}

func (p *formatPolicy) IsContainer(formatTag string) bool {
	return p.container[format.Normalize(formatTag)]
}
