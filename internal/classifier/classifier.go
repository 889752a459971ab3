// Package classifier decides whether an S3 bucket is publicly accessible
// from three resource-level control artifacts: the public-access block
// configuration, the bucket ACL grants, and the bucket policy.
//
// Classify is a pure function. It makes no network calls and keeps no state;
// identical inputs always produce identical results. Retrieval is the
// caller's job, with each artifact delivered as an input carrying an
// explicit outcome so "nothing to report" and "could not determine" stay
// distinguishable.
package classifier

import (
	"fmt"
	"strings"

	"github.com/cloudsentry/s3audit/internal/models"
	"github.com/cloudsentry/s3audit/internal/policydoc"
)

// Reason strings are part of the notification contract; wording is stable.
const (
	ReasonNoPAB              = "No Public Access Block (PAB) configuration found."
	ReasonPABNotFullyEnabled = "Public Access Block (PAB) not fully enabled."
	ReasonPolicyPublicRead   = "Bucket policy grants public read access."
)

// Outcome states whether an artifact was retrieved, was absent, or could not
// be determined.
type Outcome int

const (
	// OutcomeFound means the artifact was retrieved and its payload is set.
	OutcomeFound Outcome = iota

	// OutcomeNotFound means the provider reported the artifact as absent.
	// For the public-access block and the bucket policy this is a meaningful
	// classification input, not an error.
	OutcomeNotFound

	// OutcomeError means retrieval failed for any other reason; Err is set.
	OutcomeError
)

// PABInput is the public-access block artifact for one bucket.
type PABInput struct {
	Outcome Outcome
	Config  models.PublicAccessBlock
	Err     error
}

// ACLInput is the bucket ACL artifact. ACLs always exist, so the outcome is
// either Found or Error.
type ACLInput struct {
	Outcome Outcome
	Grants  []models.Grant
	Err     error
}

// PolicyInput is the bucket policy artifact. A document that was retrieved
// but failed to parse is delivered as OutcomeError carrying the parse error.
type PolicyInput struct {
	Outcome  Outcome
	Document *policydoc.Document
	Err      error
}

// Result is the classification for one bucket.
type Result struct {
	// Public is true when at least one check proved public exposure.
	Public bool

	// Reasons holds exactly one entry per triggered check, in check order:
	// public access block, ACL, bucket policy.
	Reasons []string
}

// Classify runs the three exposure checks in fixed order and accumulates
// their reasons. Checks are independent: none short-circuits another.
//
// A public-access block retrieval error is bucket-fatal and returns a
// non-nil error with an empty Result; the caller should log it and exclude
// the bucket from the run. ACL and policy retrieval errors are best-effort:
// the affected check contributes nothing and classification continues.
func Classify(pab PABInput, acl ACLInput, policy PolicyInput) (Result, error) {
	if pab.Outcome == OutcomeError {
		return Result{}, fmt.Errorf("public access block unavailable: %w", pab.Err)
	}

	var reasons []string
	if r := checkPublicAccessBlock(pab); r != "" {
		reasons = append(reasons, r)
	}
	if r := checkACL(acl); r != "" {
		reasons = append(reasons, r)
	}
	if r := checkPolicy(policy); r != "" {
		reasons = append(reasons, r)
	}

	return Result{Public: len(reasons) > 0, Reasons: reasons}, nil
}

// checkPublicAccessBlock flags buckets with no PAB configuration at all,
// and buckets whose configuration leaves any of the four flags off.
func checkPublicAccessBlock(pab PABInput) string {
	if pab.Outcome == OutcomeNotFound {
		return ReasonNoPAB
	}
	if !pab.Config.FullyEnabled() {
		return ReasonPABNotFullyEnabled
	}
	return ""
}

// checkACL scans grants in provider order and flags the first grant to a
// well-known public group. Later public grants do not add further reasons.
func checkACL(acl ACLInput) string {
	if acl.Outcome != OutcomeFound {
		return ""
	}
	for _, grant := range acl.Grants {
		if grant.Grantee.Type != models.GranteeGroup {
			continue
		}
		switch grant.Grantee.URI {
		case models.AllUsersGroupURI, models.AuthenticatedUsersGroupURI:
			return fmt.Sprintf("ACL grants %s access.", groupName(grant.Grantee.URI))
		}
	}
	return ""
}

// checkPolicy flags the first statement that grants public read access.
// An absent policy is the common case and contributes nothing.
func checkPolicy(policy PolicyInput) string {
	if policy.Outcome != OutcomeFound || policy.Document == nil {
		return ""
	}
	for _, stmt := range policy.Document.Statements {
		if stmt.AllowsPublicRead() {
			return ReasonPolicyPublicRead
		}
	}
	return ""
}

// groupName returns the last path segment of a group URI, e.g. "AllUsers".
func groupName(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
