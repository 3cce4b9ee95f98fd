package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Name: "a"}))

	err := ValidateRequest(sampleRequest{Email: "nope"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "Name", verr.Fields[0].Field)
	assert.Contains(t, err.Error(), "Name is required")
	assert.Contains(t, err.Error(), "Email must be a valid email address")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/validation", func(c *fiber.Ctx) error { return ValidateRequest(sampleRequest{}) })
	app.Get("/notfound", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "session not found") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(SuccessResponse("done", 42)) })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/validation", 400, "Name is required"},
		{"/notfound", 404, "session not found"},
		{"/boom", 500, "boom"},
		{"/ok", 200, "done"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.status == 200, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}
