package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCreateOrderRequest_Valid(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		PickupLocation:    json.RawMessage(`{"lat":1.0,"lng":2.0}`),
		DeliveryLocations: json.RawMessage(`[{"lat":3.0,"lng":4.0}]`),
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCreateOrderRequest_MissingFields(t *testing.T) {
	v := New()

	req := CreateOrderRequest{
		PickupLocation: json.RawMessage(`{}`),
	}
	err := v.Struct(req)
	if err == nil {
		t.Fatal("expected validation error for missing delivery_locations, got nil")
	}
	if got := Message(err); got != "Missing required field: delivery_locations" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestCreateOrderRequest_NullCountsAsPresent(t *testing.T) {
	var req CreateOrderRequest
	if err := json.Unmarshal([]byte(`{"pickup_location":null,"delivery_locations":[]}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := New().Struct(req); err != nil {
		t.Fatalf("expected present-but-null field to pass, got %v", err)
	}
}

func TestSignupRequest_BlankEmail(t *testing.T) {
	err := New().Struct(SignupRequest{Email: "   ", Password: "x"})
	if err == nil {
		t.Fatal("expected error for blank email")
	}
	if got := Message(err); got != "Missing required field: email" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUpdateOrderRequest_StatusTooLong(t *testing.T) {
	long := strings.Repeat("x", 65)
	err := New().Struct(UpdateOrderRequest{Status: &long})
	if err == nil {
		t.Fatal("expected error for oversized status")
	}
	if got := Message(err); got != "Invalid field: status" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestBindAndValidate_WritesBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	cases := map[string]string{
		"malformed": `{"email":`,
		"missing":   `{"email":"a@example.com"}`,
		"empty":     ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req LoginRequest
			if err := BindAndValidate(c, &req, v); err == nil {
				t.Fatal("expected error")
			}
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body is not json: %v", err)
			}
			if _, ok := resp["error"]; !ok {
				t.Fatalf("missing error key: %s", w.Body.String())
			}
		})
	}
}

func TestBindAndValidate_KeepsRawBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := `{"email":"a@example.com","password":"pw"}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req LoginRequest
	if err := BindAndValidate(c, &req, New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(RawBody(c)); got != body {
		t.Fatalf("raw body = %q", got)
	}
	if req.Email != "a@example.com" {
		t.Fatalf("email = %q", req.Email)
	}
}
