package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbase/backend/internal/models"
	"github.com/dealbase/backend/internal/services/billing"
	"github.com/dealbase/backend/internal/utils"
)

const testWebhookSecret = "whsec_test"

type stubSink struct {
	events []billing.SubscriptionEvent
	err    error
}

func (s *stubSink) HandleEvent(event billing.SubscriptionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newWebhookRouter(sink *stubSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebhookHandler(sink, testWebhookSecret)
	router.POST("/webhooks/billing", handler.HandleBillingWebhook)
	return router
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func subscriptionCreatedBody(t *testing.T, userID uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(billing.SubscriptionEvent{
		Type:       "subscription.created",
		ProviderID: "sub_123",
		UserID:     userID,
		Tier:       models.TierPro,
		Status:     models.SubscriptionStatusActive,
		Amount:     79.00,
		Currency:   "USD",
	})
	require.NoError(t, err)
	return body
}

func TestWebhookAppliesSignedEvent(t *testing.T) {
	sink := &stubSink{}
	router := newWebhookRouter(sink)

	userID := uuid.New()
	body := subscriptionCreatedBody(t, userID)

	recorder := postWebhook(router, body, utils.SignHMAC(string(body), testWebhookSecret))

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "subscription.created", sink.events[0].Type)
	assert.Equal(t, userID, sink.events[0].UserID)
	assert.Equal(t, 79.00, sink.events[0].Amount)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	sink := &stubSink{}
	router := newWebhookRouter(sink)

	recorder := postWebhook(router, subscriptionCreatedBody(t, uuid.New()), "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Empty(t, sink.events)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	sink := &stubSink{}
	router := newWebhookRouter(sink)

	body := subscriptionCreatedBody(t, uuid.New())
	recorder := postWebhook(router, body, utils.SignHMAC(string(body), "wrong_secret"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Empty(t, sink.events)
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	sink := &stubSink{}
	router := newWebhookRouter(sink)

	body := []byte("{not json")
	recorder := postWebhook(router, body, utils.SignHMAC(string(body), testWebhookSecret))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, sink.events)
}

func TestWebhookReturns500SoProviderRetries(t *testing.T) {
	sink := &stubSink{err: errors.New("database unavailable")}
	router := newWebhookRouter(sink)

	body := subscriptionCreatedBody(t, uuid.New())
	recorder := postWebhook(router, body, utils.SignHMAC(string(body), testWebhookSecret))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
