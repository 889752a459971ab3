// Package policydoc models S3 bucket policy documents as a typed, ordered
// statement list. It replaces ad-hoc map navigation with explicit
// required-field validation so malformed documents surface as a *ParseError
// instead of being silently skipped or crashing the caller.
package policydoc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Effect is a statement's Allow/Deny disposition.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// ParseError reports a document that could not be parsed or failed
// validation. Callers treat it as a distinct kind from provider errors:
// the document existed but is unusable.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse bucket policy: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse bucket policy: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StringList accepts both the single-string and the list JSON encodings used
// throughout IAM policy grammar ("Action": "s3:GetObject" vs ["s3:GetObject"]).
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = StringList(many)
	return nil
}

// Principal captures who a statement applies to. The policy grammar allows
// either the bare wildcard string "*" or a map form such as {"AWS": "*"} or
// {"AWS": ["arn:...", ...]}. Service and Federated principals are retained
// but never considered wildcard.
type Principal struct {
	// Wildcard is true for the bare "*" principal and for an AWS entry of "*".
	Wildcard bool

	// AWS holds the AWS account/role ARNs from the map form.
	AWS []string

	// Services holds "Service" principals from the map form.
	Services []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "*" {
			p.Wildcard = true
		} else {
			p.AWS = []string{single}
		}
		return nil
	}

	var m map[string]StringList
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("expected \"*\" or principal map: %w", err)
	}
	for key, values := range m {
		switch key {
		case "AWS":
			p.AWS = append(p.AWS, values...)
			for _, v := range values {
				if v == "*" {
					p.Wildcard = true
				}
			}
		case "Service":
			p.Services = append(p.Services, values...)
		}
	}
	return nil
}

// Statement is one entry of a policy document's Statement list, in document
// order.
type Statement struct {
	SID       string     `json:"Sid,omitempty"`
	Effect    Effect     `json:"Effect"`
	Principal *Principal `json:"Principal,omitempty"`
	Action    StringList `json:"Action,omitempty"`
	Resource  StringList `json:"Resource,omitempty"`
}

// statementList accepts both the single-object and the array encodings of
// the Statement field.
type statementList []Statement

func (s *statementList) UnmarshalJSON(data []byte) error {
	var single Statement
	if err := json.Unmarshal(data, &single); err == nil {
		*s = statementList{single}
		return nil
	}
	var many []Statement
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected statement or list of statements: %w", err)
	}
	*s = statementList(many)
	return nil
}

// Document is a parsed bucket policy: a version marker plus an ordered list
// of statements.
type Document struct {
	Version    string
	Statements []Statement
}

// rawDocument is the wire shape; Document keeps SDK-free field names.
type rawDocument struct {
	Version   string        `json:"Version"`
	Statement statementList `json:"Statement"`
}

// Parse decodes and validates a bucket policy document. Any decoding or
// validation failure is returned as a *ParseError.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if len(raw.Statement) == 0 {
		return nil, &ParseError{Reason: "document has no statements"}
	}
	for i, stmt := range raw.Statement {
		switch stmt.Effect {
		case EffectAllow, EffectDeny:
		default:
			return nil, &ParseError{
				Reason: fmt.Sprintf("statement %d: effect must be Allow or Deny, got %q", i, stmt.Effect),
			}
		}
		if len(stmt.Action) == 0 {
			return nil, &ParseError{
				Reason: fmt.Sprintf("statement %d: at least one action is required", i),
			}
		}
	}
	return &Document{Version: raw.Version, Statements: raw.Statement}, nil
}

// readActions are the action names that grant object reads to whoever the
// statement's principal is. Action names are matched case-insensitively, as
// IAM does.
var readActions = []string{"s3:GetObject", "s3:*", "*"}

// AllowsPublicRead reports whether the statement grants object-read access
// to a wildcard principal: Effect is Allow, the principal is "*" (bare or
// map form), and the action list contains a read action.
func (s Statement) AllowsPublicRead() bool {
	if s.Effect != EffectAllow {
		return false
	}
	if s.Principal == nil || !s.Principal.Wildcard {
		return false
	}
	for _, action := range s.Action {
		for _, read := range readActions {
			if strings.EqualFold(action, read) {
				return true
			}
		}
	}
	return false
}
