package validator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/123qassim/mumbso/internal/api/contract"
	"github.com/123qassim/mumbso/internal/api/validator"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/metrics"
	playground "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentRequest struct {
	PhoneNumber      string `json:"phone_number" validate:"required,msisdn"`
	AccountReference string `json:"account_reference" validate:"omitempty,account_ref"`
}

func TestXValidator_Validate(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	x, err := validator.NewXValidator(playground.New(), m)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		request paymentRequest
		failed  []string
	}{
		{name: "local number", request: paymentRequest{PhoneNumber: "0712345678"}},
		{name: "international with separators", request: paymentRequest{PhoneNumber: "+254 712-345-678", AccountReference: "MUMBSO-1"}},
		{name: "missing phone", request: paymentRequest{}, failed: []string{"phone_number"}},
		{name: "letters in phone", request: paymentRequest{PhoneNumber: "07abc"}, failed: []string{"phone_number"}},
		{name: "plus in the middle", request: paymentRequest{PhoneNumber: "07+12"}, failed: []string{"phone_number"}},
		{name: "symbols in reference", request: paymentRequest{PhoneNumber: "0712345678", AccountReference: "ref;drop"}, failed: []string{"account_reference"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := x.Validate(&tc.request)

			var failed []string
			for _, e := range errs {
				assert.True(t, e.Error)
				failed = append(failed, e.FailedField)
			}
			assert.Equal(t, tc.failed, failed)
		})
	}
}

func TestXValidator_Validator(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	x, err := validator.NewXValidator(playground.New(), m)
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var request paymentRequest
		return c.JSON(x.Validator(&request, constants.MessageErrorFormat, c))
	})

	send := func(body string) (*http.Response, contract.Response) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		var out contract.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp, out
	}

	t.Run("invalid field", func(t *testing.T) {
		resp, out := send(`{"phone_number":"nope"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "The 'phone_number' format is invalid", out.Message)
		assert.NotEmpty(t, out.Code)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ValidationErrors.WithLabelValues("phone_number", validator.MSISDNTag)))
	})

	t.Run("unparseable body", func(t *testing.T) {
		resp, out := send(`{"phone_number":`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, out.Code)
	})

	t.Run("valid body", func(t *testing.T) {
		resp, out := send(`{"phone_number":"0712345678"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, out.Code)
	})
}
