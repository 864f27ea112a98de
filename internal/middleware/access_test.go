package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbase/backend/internal/access"
	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/utils"
)

func newGatedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionMiddleware())
	router.Use(AccessGateMiddleware(access.NewGate(access.DefaultRules())))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	router.GET("/api/properties", ok)
	router.GET("/api/cash-buyers", ok)
	router.GET("/api/plans", ok)
	return router
}

func bearerFor(t *testing.T, tier models.SubscriptionTier, status models.SubscriptionStatus, cancelAtPeriodEnd bool) string {
	t.Helper()
	user := &models.User{ID: uuid.New(), Email: "investor@example.com"}
	pair, err := utils.GenerateTokenPair(user, &models.Subscription{
		Tier:              tier,
		Status:            status,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
	})
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func get(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestGateAllowsUnmatchedPaths(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/plans", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestGateRedirectsAnonymousWithContinue(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/properties", "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "/login?next=%2Fapi%2Fproperties")
}

func TestGateTreatsGarbageTokenAsAnonymous(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/properties", "Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGateRequiresActiveSubscription(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/properties", bearerFor(t, models.TierPro, models.SubscriptionStatusPastDue, false))

	assert.Equal(t, http.StatusPaymentRequired, recorder.Code)
}

func TestGateHonorsCancelGracePeriod(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/properties", bearerFor(t, models.TierStarter, models.SubscriptionStatusCanceled, true))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestGateBlocksStarterFromAdvancedRoutes(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/cash-buyers", bearerFor(t, models.TierStarter, models.SubscriptionStatusActive, false))

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "advanced")
}

func TestGateAdmitsProToAdvancedRoutes(t *testing.T) {
	router := newGatedRouter()

	recorder := get(router, "/api/cash-buyers", bearerFor(t, models.TierPro, models.SubscriptionStatusActive, false))

	assert.Equal(t, http.StatusOK, recorder.Code)
}
