package models

// Well-known S3 group grantee URIs. A grant to either group makes the bucket
// readable by principals outside the account: AllUsers is the anonymous
// internet, AuthenticatedUsers is any AWS-authenticated principal.
const (
	AllUsersGroupURI           = "http://acs.amazonaws.com/groups/global/AllUsers"
	AuthenticatedUsersGroupURI = "http://acs.amazonaws.com/groups/global/AuthenticatedUsers"
)

// PublicAccessBlock mirrors the four S3 Block Public Access flags. A bucket
// may have no such configuration at all, which callers represent separately
// from a configuration with all flags false.
type PublicAccessBlock struct {
	BlockPublicACLs       bool `json:"block_public_acls"`
	IgnorePublicACLs      bool `json:"ignore_public_acls"`
	BlockPublicPolicy     bool `json:"block_public_policy"`
	RestrictPublicBuckets bool `json:"restrict_public_buckets"`
}

// FullyEnabled reports whether all four block settings are on. Anything less
// leaves at least one path to public exposure open.
func (p PublicAccessBlock) FullyEnabled() bool {
	return p.BlockPublicACLs &&
		p.IgnorePublicACLs &&
		p.BlockPublicPolicy &&
		p.RestrictPublicBuckets
}

// GranteeType is the ACL grantee kind as reported by S3.
type GranteeType string

const (
	GranteeGroup         GranteeType = "Group"
	GranteeCanonicalUser GranteeType = "CanonicalUser"
	GranteeAmazonByEmail GranteeType = "AmazonCustomerByEmail"
)

// Grantee identifies who an ACL grant applies to. URI is set only for Group
// grantees; ID and DisplayName are set for canonical users.
type Grantee struct {
	Type        GranteeType `json:"type"`
	URI         string      `json:"uri,omitempty"`
	ID          string      `json:"id,omitempty"`
	DisplayName string      `json:"display_name,omitempty"`
}

// Grant is a single (grantee, permission) pair from a bucket ACL.
// Grants preserve the order returned by the provider.
type Grant struct {
	Grantee    Grantee `json:"grantee"`
	Permission string  `json:"permission"`
}
