package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealbase/backend/internal/models"
)

func activeToken(tier models.SubscriptionTier) *Token {
	return &Token{
		Subject: "u1",
		Tier:    tier,
		Status:  models.SubscriptionStatusActive,
	}
}

func TestEvaluateUnmatchedPathAllows(t *testing.T) {
	gate := NewGate(DefaultRules())

	// No rule matches, so even an anonymous caller passes.
	decision := gate.Evaluate("/pricing", nil)
	assert.Equal(t, Allow, decision.Kind)

	decision = gate.Evaluate("/api/auth/login", nil)
	assert.Equal(t, Allow, decision.Kind)
}

func TestEvaluateUnauthenticated(t *testing.T) {
	gate := NewGate(DefaultRules())

	decision := gate.Evaluate("/admin", nil)
	assert.Equal(t, DenyUnauthenticated, decision.Kind)
	assert.Equal(t, "/admin", decision.ContinuePath)

	// Empty subject is the same as no token.
	decision = gate.Evaluate("/cash-buyers", &Token{Status: models.SubscriptionStatusActive})
	assert.Equal(t, DenyUnauthenticated, decision.Kind)
	assert.Equal(t, "/cash-buyers", decision.ContinuePath)
}

func TestEvaluateTierMembership(t *testing.T) {
	gate := NewGate(DefaultRules())

	decision := gate.Evaluate("/cash-buyers", activeToken(models.TierStarter))
	assert.Equal(t, DenyInsufficientTier, decision.Kind)
	assert.Equal(t, LevelAdvanced, decision.RequiredLevel)

	decision = gate.Evaluate("/cash-buyers", activeToken(models.TierPro))
	assert.Equal(t, Allow, decision.Kind)

	decision = gate.Evaluate("/admin", activeToken(models.TierPro))
	assert.Equal(t, DenyInsufficientTier, decision.Kind)
	assert.Equal(t, LevelEnterprise, decision.RequiredLevel)

	decision = gate.Evaluate("/admin", activeToken(models.TierEnterprise))
	assert.Equal(t, Allow, decision.Kind)
}

// A higher tier is never denied where a lower tier is allowed.
func TestEvaluateTierMonotonicity(t *testing.T) {
	gate := NewGate(DefaultRules())
	tiers := []models.SubscriptionTier{models.TierStarter, models.TierPro, models.TierEnterprise}
	paths := []string{"/properties", "/api/properties", "/cash-buyers", "/api/cash-buyers", "/admin", "/subscription"}

	for _, path := range paths {
		for i := 1; i < len(tiers); i++ {
			lower := gate.Evaluate(path, activeToken(tiers[i-1]))
			higher := gate.Evaluate(path, activeToken(tiers[i]))
			if lower.Kind == Allow {
				assert.Equal(t, Allow, higher.Kind,
					"tier %s denied on %s where %s was allowed", tiers[i], path, tiers[i-1])
			}
		}
	}
}

func TestEvaluateCancelGracePeriod(t *testing.T) {
	gate := NewGate(DefaultRules())

	canceled := &Token{
		Subject:           "u1",
		Tier:              models.TierPro,
		Status:            models.SubscriptionStatusCanceled,
		CancelAtPeriodEnd: true,
	}

	// Behaves identically to an active subscription on every gated path.
	for _, path := range []string{"/subscription", "/properties", "/cash-buyers", "/admin"} {
		assert.Equal(t, gate.Evaluate(path, activeToken(models.TierPro)).Kind,
			gate.Evaluate(path, canceled).Kind, "path %s", path)
	}

	// Without the flag, canceled means no access.
	canceled.CancelAtPeriodEnd = false
	decision := gate.Evaluate("/subscription", canceled)
	assert.Equal(t, DenyNoSubscription, decision.Kind)
}

func TestEvaluateInactiveStatuses(t *testing.T) {
	gate := NewGate(DefaultRules())

	for _, status := range []models.SubscriptionStatus{
		models.SubscriptionStatusPastDue,
		models.SubscriptionStatusUnpaid,
		models.SubscriptionStatusIncomplete,
		"",
	} {
		token := &Token{Subject: "u1", Tier: models.TierEnterprise, Status: status}
		decision := gate.Evaluate("/properties", token)
		assert.Equal(t, DenyNoSubscription, decision.Kind, "status %q", status)
	}
}

func TestEvaluateMissingTierDefaultsToStarter(t *testing.T) {
	gate := NewGate(DefaultRules())
	token := &Token{Subject: "u1", Status: models.SubscriptionStatusActive}

	assert.Equal(t, Allow, gate.Evaluate("/properties", token).Kind)
	assert.Equal(t, DenyInsufficientTier, gate.Evaluate("/cash-buyers", token).Kind)
}

func TestEvaluateTableOrderWins(t *testing.T) {
	// /api/properties/export is listed before the broader /api/properties
	// prefix and requires a higher level.
	gate := NewGate(DefaultRules())

	decision := gate.Evaluate("/api/properties/export", activeToken(models.TierStarter))
	assert.Equal(t, DenyInsufficientTier, decision.Kind)
	assert.Equal(t, LevelAdvanced, decision.RequiredLevel)

	decision = gate.Evaluate("/api/properties/123", activeToken(models.TierStarter))
	assert.Equal(t, Allow, decision.Kind)

	// A synthetic table with the broad prefix first shadows the specific one.
	shadowed := NewGate([]Rule{
		{Prefix: "/api/properties", Level: LevelBasic},
		{Prefix: "/api/properties/export", Level: LevelAdvanced},
	})
	decision = shadowed.Evaluate("/api/properties/export", activeToken(models.TierStarter))
	assert.Equal(t, Allow, decision.Kind)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	gate := NewGate(DefaultRules())
	token := activeToken(models.TierPro)

	first := gate.Evaluate("/cash-buyers", token)
	second := gate.Evaluate("/cash-buyers", token)
	assert.Equal(t, first, second)
}
