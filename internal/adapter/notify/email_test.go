package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/adapter/notify"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

func TestEmailChannel_Send(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mail/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := notify.NewEmailChannel(notify.EmailConfig{BaseURL: srv.URL, APIKey: "mail-key", From: "alerts@bloodbank.example"}, zap.NewNop())

	d := testDonor()
	d.Email = "amina@example.com"
	require.NoError(t, ch.Send(context.Background(), d, testSummary(domain.UrgencyLow)))

	assert.Equal(t, "Bearer mail-key", gotAuth)
	assert.Equal(t, "amina@example.com", gotBody["to"])
	assert.Equal(t, "alerts@bloodbank.example", gotBody["from"])
	assert.Equal(t, "Low Blood Request Match", gotBody["subject"])
	assert.Contains(t, gotBody["text"], "Dear Amina")
}

func TestEmailChannel_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ch := notify.NewEmailChannel(notify.EmailConfig{BaseURL: srv.URL}, zap.NewNop())

	d := testDonor()
	d.Email = "amina@example.com"
	err := ch.Send(context.Background(), d, testSummary(domain.UrgencyHigh))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEmailChannel_NoAddress(t *testing.T) {
	ch := notify.NewEmailChannel(notify.EmailConfig{BaseURL: "http://127.0.0.1:0"}, zap.NewNop())

	err := ch.Send(context.Background(), testDonor(), testSummary(domain.UrgencyHigh))
	assert.ErrorIs(t, err, notify.ErrNoAddress)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Critical Blood Request Match", notify.Subject(testSummary(domain.UrgencyCritical)))
	assert.Equal(t, "Blood Request Match", notify.Subject(domain.RequestSummary{}))
}
