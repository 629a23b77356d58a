package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"confreg/internal/notification"
	"confreg/internal/payment/razorpay"
	"confreg/internal/platform/config"
	"confreg/internal/platform/logger"
	"confreg/internal/registration/handler/mocks"
	"confreg/internal/registration/models"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service WebhookVerifier

const webhookSecret = "whsec_test"

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (string, error) {
	if token != "good" {
		return "", errors.New("bad token")
	}
	return "admin", nil
}

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	gateway := razorpay.New(config.GatewayConfig{WebhookSecret: webhookSecret, KeyID: "rzp_test_key", Timeout: time.Second})

	s.router = chi.NewRouter()
	New(s.service, gateway, staticValidator{}, gateway.KeyID(), logger.Discard()).Register(s.router)
}

func (s *HandlerSuite) TestRegister() {
	s.Run("provisional registration returns the reg id", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req models.SubmitRequest) (*models.SubmitResult, error) {
				s.Equal("Delegate", req.Category)
				s.Equal("9000000001", req.Mobile)
				return &models.SubmitResult{RegistrationID: "D1700000000123"}, nil
			})

		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/register",
			`{"reg_type":"Delegate","name":"Asha","mobile":"9000000001","email":"a@example.com","amount":2000}`)
		rr := testutil.DoRequest(s.router, req)
		body := testutil.AssertSuccess(s.T(), rr)
		s.Equal("D1700000000123", body["reg_id"])
		s.Equal(msgProvisional, body["message"])
		s.NotContains(body, "registration")
	})

	s.Run("settled cash registration returns the record", func() {
		rec := &models.Registration{RegistrationID: "TR1", PaymentStatus: models.PaymentCompleted}
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(&models.SubmitResult{RegistrationID: "TR1", Settled: true, Record: rec}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]any{"reg_type": "Trader"}))
		body := testutil.AssertSuccess(s.T(), rr)
		s.Equal(msgSettled, body["message"])
		s.Contains(body, "registration")
	})

	s.Run("validation failure is a 200 envelope", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "A registration with this Phone Number already exists."))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]any{}))
		body := testutil.AssertFailure(s.T(), rr, http.StatusOK)
		s.Contains(body["error"], "already exists")
	})

	s.Run("malformed json", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/register", "{"))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestCheckStatus() {
	rec := &models.Registration{RegistrationID: "D1", Category: "Delegate"}
	s.service.EXPECT().CheckStatus(gomock.Any(), "9000000001").
		Return(&models.StatusResult{Record: rec, Offers: []models.Offer{{Label: "Banquet Pass (Add-on)", Amount: 1500}}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/check-status", CheckStatusRequest{Mobile: "9000000001"}))
	body := testutil.AssertSuccess(s.T(), rr)
	s.Equal("D1", body["existing_reg_id"])
	s.Len(body["offers"], 1)
}

func (s *HandlerSuite) TestCreateOrder() {
	s.service.EXPECT().CreateOrder(gomock.Any(), "D1", int64(2000)).
		Return(&models.Order{ID: "order_1", Amount: 200000, Currency: "INR", Receipt: "D1"}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/create-order", CreateOrderRequest{RegistrationID: "D1", Amount: 2000}))
	body := testutil.AssertSuccess(s.T(), rr)
	order := body["order"].(map[string]any)
	s.Equal("order_1", order["id"])
}

func (s *HandlerSuite) TestVerifyPayment() {
	s.Run("client completion", func() {
		s.service.EXPECT().Complete(gomock.Any(), models.CompleteRequest{
			OrderID:                "order_1",
			PaymentID:              "pay_1",
			Signature:              "sig",
			FallbackRegistrationID: "D1",
			Source:                 models.SourceClient,
		}).Return(&models.CompleteResult{Record: &models.Registration{RegistrationID: "D1"}}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify-payment",
			`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig","reg_id":"D1"}`))
		body := testutil.AssertSuccess(s.T(), rr)
		s.Equal(msgPaymentVerified, body["message"])
	})

	s.Run("replay", func() {
		s.service.EXPECT().Complete(gomock.Any(), gomock.Any()).
			Return(&models.CompleteResult{Record: &models.Registration{RegistrationID: "D1"}, Replayed: true}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify-payment", `{}`))
		body := testutil.AssertSuccess(s.T(), rr)
		s.Equal(msgAlreadyVerified, body["message"])
	})

	s.Run("bad client signature is a 400", func() {
		s.service.EXPECT().Complete(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeSignatureInvalid, "invalid signature"))

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify-payment", `{}`))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) webhook(body string, signature string) *http.Request {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/webhook/razorpay", body)
	req.Header.Set(signatureHeader, signature)
	return req
}

const capturedEvent = `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","amount":150000,"notes":{"reg_id":"DB1700000000123"}}}}}`

func (s *HandlerSuite) TestWebhook() {
	s.Run("bad signature is rejected before any mutation", func() {
		// No service expectations: any call fails the test.
		rr := testutil.DoRequest(s.router, s.webhook(capturedEvent, razorpay.Sign("wrong-secret", []byte(capturedEvent))))
		body := testutil.AssertFailure(s.T(), rr, http.StatusBadRequest)
		s.Equal("invalid signature", body["error"])
	})

	s.Run("missing signature is rejected", func() {
		rr := testutil.DoRequest(s.router, s.webhook(capturedEvent, ""))
		testutil.AssertFailure(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("payment.captured completes with the notes reg id as fallback", func() {
		s.service.EXPECT().Complete(gomock.Any(), models.CompleteRequest{
			OrderID:                "order_9",
			PaymentID:              "pay_9",
			FallbackRegistrationID: "DB1700000000123",
			Source:                 models.SourceWebhook,
		}).Return(&models.CompleteResult{Record: &models.Registration{RegistrationID: "DB1700000000123"}}, nil)

		rr := testutil.DoRequest(s.router, s.webhook(capturedEvent, razorpay.Sign(webhookSecret, []byte(capturedEvent))))
		testutil.AssertSuccess(s.T(), rr)
	})

	s.Run("completion failure is still acknowledged", func() {
		s.service.EXPECT().Complete(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "session not found"))

		rr := testutil.DoRequest(s.router, s.webhook(capturedEvent, razorpay.Sign(webhookSecret, []byte(capturedEvent))))
		testutil.AssertSuccess(s.T(), rr)
	})

	s.Run("other events are acknowledged without completion", func() {
		evt := `{"event":"payment.failed","payload":{}}`
		rr := testutil.DoRequest(s.router, s.webhook(evt, razorpay.Sign(webhookSecret, []byte(evt))))
		testutil.AssertSuccess(s.T(), rr)
	})

	s.Run("verified but unparseable payload is acknowledged", func() {
		evt := `not json`
		rr := testutil.DoRequest(s.router, s.webhook(evt, razorpay.Sign(webhookSecret, []byte(evt))))
		testutil.AssertSuccess(s.T(), rr)
	})
}

func (s *HandlerSuite) TestGetKey() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/get-razorpay-key"))
	body := testutil.AssertSuccess(s.T(), rr)
	s.Equal("rzp_test_key", body["key"])
}

func (s *HandlerSuite) TestResend() {
	id := uuid.New()

	s.Run("requires an admin token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/resend-email", ResendRequest{ID: id.String()}))
		testutil.AssertFailure(s.T(), rr, http.StatusUnauthorized)
	})

	routes := map[string]notification.Kind{
		"/resend-email":     notification.KindEmail,
		"/resend-whatsapp":  notification.KindWhatsApp,
		"/send-certificate": notification.KindCertificate,
	}
	for path, kind := range routes {
		s.Run(path, func() {
			s.service.EXPECT().Resend(gomock.Any(), id, kind).Return(nil)
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, ResendRequest{ID: id.String()})
			req.Header.Set("Authorization", "Bearer good")
			testutil.AssertSuccess(s.T(), testutil.DoRequest(s.router, req))
		})
	}

	s.Run("invalid id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/resend-email", ResendRequest{ID: "nope"})
		req.Header.Set("Authorization", "Bearer good")
		testutil.AssertFailure(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)
	})

	s.Run("unknown registration", func() {
		s.service.EXPECT().Resend(gomock.Any(), id, notification.KindEmail).
			Return(dErrors.New(dErrors.CodeNotFound, "Registration not found"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/resend-email", ResendRequest{ID: id.String()})
		req.Header.Set("Authorization", "Bearer good")
		body := testutil.AssertFailure(s.T(), testutil.DoRequest(s.router, req), http.StatusOK)
		s.Equal("Registration not found", body["error"])
	})
}
