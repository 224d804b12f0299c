package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	checkoutsvc "github.com/angelboost/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func requestWithURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

type stubCheckoutService struct {
	receipt *checkoutsvc.Receipt
	err     error
	owner   string
}

func (s *stubCheckoutService) Commit(_ context.Context, ownerKey string) (*checkoutsvc.Receipt, error) {
	s.owner = ownerKey
	return s.receipt, s.err
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	receipt := &checkoutsvc.Receipt{
		BatchID:     uuid.New(),
		PurchasedAt: time.Now().UTC(),
		LineCount:   2,
		ItemCount:   3,
		GrandTotal:  decimal.RequireFromString("948.80"),
	}
	svc := &stubCheckoutService{receipt: receipt}

	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), "owner-1")
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.owner != "owner-1" {
		t.Fatalf("unexpected owner %s", svc.owner)
	}

	var body struct {
		Data struct {
			BatchID   string `json:"batchId"`
			LineCount int    `json:"lineCount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if body.Data.BatchID != receipt.BatchID.String() || body.Data.LineCount != 2 {
		t.Fatalf("unexpected receipt payload %+v", body.Data)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "nothing to check out")}
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), "owner-1")
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeEmptyCart) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCheckoutDanglingProduct(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDanglingProduct, "cart references a missing product")}
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), "owner-1")
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCheckoutStorageFailureIsRetryable(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStorage, "tx failed")}
	req := withOwner(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil), "owner-1")
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
