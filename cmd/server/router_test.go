package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/admin"
	"confreg/internal/admin/adapters"
	jwttoken "confreg/internal/jwt_token"
	"confreg/internal/notification/queue"
	"confreg/internal/payment/razorpay"
	"confreg/internal/platform/config"
	"confreg/internal/platform/logger"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/handler"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store/permanent"
	"confreg/internal/registration/store/provisional"
	"confreg/pkg/testutil"
)

const keySecret = "key_secret"

type testApp struct {
	router http.Handler
	queue  *queue.Memory
	dir    string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gatewaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"order_1","amount":200000,"currency":"INR","receipt":"r","status":"created"}`)
	}))
	t.Cleanup(gatewaySrv.Close)

	cfg := config.FromEnv()
	cfg.Gateway = config.GatewayConfig{BaseURL: gatewaySrv.URL, KeyID: "rzp_test", KeySecret: keySecret, WebhookSecret: "hook", Currency: "INR", Timeout: time.Second, VerifyClientSignature: true}
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Artifacts.URLPath = "/qrcodes"

	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())
	q := queue.NewMemory(16)
	gateway := razorpay.New(cfg.Gateway)

	svc := service.New(provisional.NewInMemoryStore(time.Hour), permanent.NewInMemoryStore(),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithGateway(gateway),
		service.WithNotifier(q),
	)
	tokens := jwttoken.NewJWTService("secret", tokenIssuer, tokenAudience)
	validator := jwttoken.NewJWTServiceAdapter(tokens)
	auth, err := admin.NewAuthenticator("admin", "admin123", "", tokens, time.Hour, log)
	require.NoError(t, err)

	router := newRouter(cfg, log, m,
		handler.New(svc, gateway, validator, gateway.KeyID(), log),
		admin.NewHandler(auth, adapters.NewRegistrationAdapter(svc), validator, log),
		cfg.Artifacts.Dir,
		func(context.Context) map[string]error { return nil },
	)
	return &testApp{router: router, queue: q, dir: cfg.Artifacts.Dir}
}

func (a *testApp) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(a.router, testutil.NewJSONRequest(t, http.MethodPost, path, body))
}

func TestRegistrationFlow(t *testing.T) {
	app := newTestApp(t)
	var regID string

	testutil.Given(t, "a new delegate", func(t *testing.T) {
		submitted := testutil.When(t, "the form is submitted", func(t *testing.T) {
			rr := app.post(t, "/api/register", map[string]any{
				"reg_type": "Delegate", "title": "Dr", "name": "Asha Rao",
				"mobile": "9000000001", "email": "asha@example.com", "amount": 2000,
			})
			body := testutil.AssertSuccess(t, rr)
			regID, _ = body["reg_id"].(string)

			testutil.Then(t, "a delegate id is issued", func(t *testing.T) {
				assert.True(t, strings.HasPrefix(regID, "D"), regID)
			})
		})

		require.True(t, submitted, "later steps need the issued id")

		testutil.When(t, "an order is created and the payment verified", func(t *testing.T) {
			rr := app.post(t, "/api/create-order", map[string]any{"reg_id": regID, "amount": 2000})
			testutil.AssertSuccess(t, rr)

			verify := map[string]any{
				"razorpay_order_id":   "order_1",
				"razorpay_payment_id": "pay_1",
				"razorpay_signature":  razorpay.Sign(keySecret, []byte("order_1|pay_1")),
				"reg_id":              regID,
			}
			first := testutil.AssertSuccess(t, app.post(t, "/api/verify-payment", verify))
			second := testutil.AssertSuccess(t, app.post(t, "/api/verify-payment", verify))

			testutil.Then(t, "the payment is recorded once", func(t *testing.T) {
				assert.Equal(t, "Payment verified successfully.", first["message"])
				assert.Equal(t, "Already verified", second["message"])
			})
			testutil.And(t, "one confirmation is queued", func(t *testing.T) {
				assert.Equal(t, 1, app.queue.Len())
			})
		})

		testutil.When(t, "the same mobile registers again", func(t *testing.T) {
			rr := app.post(t, "/api/register", map[string]any{
				"reg_type": "Delegate", "name": "Asha Rao", "mobile": "9000000001", "email": "asha@example.com",
			})

			testutil.Then(t, "it is rejected as a duplicate", func(t *testing.T) {
				body := testutil.AssertFailure(t, rr, http.StatusOK)
				assert.Contains(t, body["error"], "already exists")
			})
		})

		testutil.When(t, "the status is checked", func(t *testing.T) {
			body := testutil.AssertSuccess(t, app.post(t, "/api/check-status", map[string]any{"mobile": "9000000001"}))

			testutil.Then(t, "add-ons are offered", func(t *testing.T) {
				assert.Equal(t, regID, body["existing_reg_id"])
				assert.NotEmpty(t, body["offers"])
			})
		})

		testutil.When(t, "the admin lists registrations", func(t *testing.T) {
			login := testutil.AssertSuccess(t, app.post(t, "/api/login", map[string]any{"username": "admin", "password": "admin123"}))
			req := testutil.NewRequest(t, http.MethodGet, "/api/registrations")
			req.Header.Set("Authorization", "Bearer "+login["token"].(string))
			body := testutil.AssertSuccess(t, testutil.DoRequest(app.router, req))

			testutil.Then(t, "the paid registration is listed", func(t *testing.T) {
				data := body["data"].([]any)
				require.Len(t, data, 1)
				assert.Equal(t, regID, data[0].(map[string]any)["reg_id"])
			})
		})
	})
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := newTestApp(t)
	req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/webhook/razorpay", `{"event":"payment.captured"}`)
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	testutil.AssertFailure(t, testutil.DoRequest(app.router, req), http.StatusBadRequest)
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t)

	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		testutil.When(t, "calling GET /health", func(t *testing.T) {
			rr := testutil.DoRequest(app.router, testutil.NewRequest(t, http.MethodGet, "/health"))
			testutil.Then(t, "it reports healthy", func(t *testing.T) {
				testutil.AssertSuccess(t, rr)
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(app.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
			testutil.Then(t, "it serves prometheus text", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
			})
		})

		testutil.When(t, "fetching a rendered card", func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(app.dir, "TGSDC_D1.png"), []byte("png"), 0o644))
			rr := testutil.DoRequest(app.router, testutil.NewRequest(t, http.MethodGet, "/qrcodes/TGSDC_D1.png"))
			testutil.Then(t, "the file is served", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "png", rr.Body.String())
			})
		})

		testutil.When(t, "preflighting from the browser", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodOptions, "/api/register")
			req.Header.Set("Origin", "https://tgsdc.example")
			rr := testutil.DoRequest(app.router, req)
			testutil.Then(t, "CORS headers are returned", func(t *testing.T) {
				assert.Equal(t, http.StatusNoContent, rr.Code)
				assert.Equal(t, "https://tgsdc.example", rr.Header().Get("Access-Control-Allow-Origin"))
			})
		})
	})
}
