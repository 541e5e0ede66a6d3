package handlers_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"devQuestAPI/handlers"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const webhookTestSecret = "whsec_test_secret"

// signedWebhookRequest builds a webhook delivery carrying valid svix headers:
// the signature covers "<svix-id>.<svix-timestamp>.<body>".
func signedWebhookRequest(body string) *http.Request {
	const (
		svixID        = "msg_test"
		svixTimestamp = "1700000000"
	)

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, body)
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(signedContent))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body))
	req.Header.Set("svix-id", svixID)
	req.Header.Set("svix-timestamp", svixTimestamp)
	req.Header.Set("svix-signature", "v1,"+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestHandleClerkWebhook_InvalidSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", webhookTestSecret)

	h := handlers.NewWebhookHandler(nil)
	body := `{"type": "user.created", "data": {}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,deadbeef")
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleClerkWebhook_MissingSvixHeaders(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", webhookTestSecret)

	h := handlers.NewWebhookHandler(nil)
	body := `{"type": "user.created", "data": {}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleClerkWebhook_SignatureWithoutVersionPrefix(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", webhookTestSecret)

	h := handlers.NewWebhookHandler(nil)
	body := `{"type": "user.created", "data": {}}`

	// A correctly computed digest still fails without the "v1," prefix.
	req := signedWebhookRequest(body)
	req.Header.Set("svix-signature", strings.TrimPrefix(req.Header.Get("svix-signature"), "v1,"))
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleClerkWebhook_MissingSecretRejects(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	h := handlers.NewWebhookHandler(nil)
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, signedWebhookRequest(`{"type": "user.created", "data": {}}`))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleClerkWebhook_MalformedEvent(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", webhookTestSecret)

	h := handlers.NewWebhookHandler(nil)
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, signedWebhookRequest(`this is not json`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleClerkWebhook_UnhandledEventTypeIsAccepted(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", webhookTestSecret)

	h := handlers.NewWebhookHandler(nil)
	rr := httptest.NewRecorder()

	h.HandleClerkWebhook(rr, signedWebhookRequest(`{"type": "session.created", "data": {}}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "success")
}
