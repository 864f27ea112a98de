// Package access decides whether a request may proceed based solely on the
// caller's session token. It never touches the database, so the same gate can
// run inside the API process or in a lightweight request filter in front of it.
package access

import (
	"strings"

	"github.com/dealbase/backend/internal/models"
)

// Level represents the access level a route requires
type Level string

const (
	LevelBasic      Level = "basic"
	LevelAdvanced   Level = "advanced"
	LevelEnterprise Level = "enterprise"
)

// Rule maps a path prefix to the access level it requires. Rules are evaluated
// in order and the first matching prefix wins, so more specific prefixes must
// be listed before broader ones.
type Rule struct {
	Prefix string
	Level  Level
}

// Token is the decoded session token the gate evaluates. A nil token means no
// valid session exists. Subject is empty for unauthenticated callers.
type Token struct {
	Subject           string
	Tier              models.SubscriptionTier
	Status            models.SubscriptionStatus
	CancelAtPeriodEnd bool
}

// DecisionKind enumerates the possible gate outcomes
type DecisionKind string

const (
	Allow                DecisionKind = "allow"
	DenyUnauthenticated  DecisionKind = "deny_unauthenticated"
	DenyNoSubscription   DecisionKind = "deny_no_subscription"
	DenyInsufficientTier DecisionKind = "deny_insufficient_tier"
)

// Decision is the gate's verdict for one request
type Decision struct {
	Kind DecisionKind
	// ContinuePath is the original destination, set on DenyUnauthenticated so
	// the caller can return here after signing in.
	ContinuePath string
	// RequiredLevel is set on DenyInsufficientTier and DenyNoSubscription.
	RequiredLevel Level
}

// tierAdmits defines which subscription tiers satisfy each access level
var tierAdmits = map[Level]map[models.SubscriptionTier]bool{
	LevelBasic: {
		models.TierStarter:    true,
		models.TierPro:        true,
		models.TierEnterprise: true,
	},
	LevelAdvanced: {
		models.TierPro:        true,
		models.TierEnterprise: true,
	},
	LevelEnterprise: {
		models.TierEnterprise: true,
	},
}

// Gate evaluates requests against an ordered rule table
type Gate struct {
	rules []Rule
}

// NewGate creates a gate from an ordered rule table
func NewGate(rules []Rule) *Gate {
	return &Gate{rules: rules}
}

// DefaultRules returns the production route table. Order matters: the export
// endpoint sits under /api/properties but requires a higher level, so it is
// listed first.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/api/admin", Level: LevelEnterprise},
		{Prefix: "/admin", Level: LevelEnterprise},
		{Prefix: "/api/properties/export", Level: LevelAdvanced},
		{Prefix: "/api/cash-buyers", Level: LevelAdvanced},
		{Prefix: "/cash-buyers", Level: LevelAdvanced},
		{Prefix: "/api/properties", Level: LevelBasic},
		{Prefix: "/properties", Level: LevelBasic},
		{Prefix: "/api/affiliate", Level: LevelBasic},
		{Prefix: "/subscription", Level: LevelBasic},
	}
}

// Evaluate decides whether a request for path may proceed. It is a pure
// function of the path, the token and the rule table; denial is a return
// value, never an error.
func (g *Gate) Evaluate(path string, token *Token) Decision {
	level, matched := g.classify(path)
	if !matched {
		return Decision{Kind: Allow}
	}

	if token == nil || token.Subject == "" {
		return Decision{Kind: DenyUnauthenticated, ContinuePath: path}
	}

	if !hasActiveSubscription(token) {
		return Decision{Kind: DenyNoSubscription, RequiredLevel: level}
	}

	tier := token.Tier
	if tier == "" {
		tier = models.TierStarter
	}
	if !tierAdmits[level][tier] {
		return Decision{Kind: DenyInsufficientTier, RequiredLevel: level}
	}

	return Decision{Kind: Allow}
}

// classify returns the access level required for path, first matching prefix
// wins
func (g *Gate) classify(path string) (Level, bool) {
	for _, rule := range g.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Level, true
		}
	}
	return "", false
}

// hasActiveSubscription treats a canceled subscription with
// cancel_at_period_end as still active: the user paid for the remainder of
// the period. Every other status (past_due, unpaid, incomplete, absent) is
// not active.
func hasActiveSubscription(token *Token) bool {
	if token.Status == models.SubscriptionStatusActive {
		return true
	}
	return token.Status == models.SubscriptionStatusCanceled && token.CancelAtPeriodEnd
}
