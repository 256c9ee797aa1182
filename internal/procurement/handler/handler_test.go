package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	notifier *testutil.RecordingNotifier
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	svc := service.NewServices(repository.NewRepositories(db), service.NewLocalLocker(), notifier, zap.NewNop(), service.Options{})

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	NewHandlers(svc, nil).RegisterRoutes(api)

	return &testEnv{db: db, router: router, notifier: notifier}
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data
}

func codeOf(body map[string]interface{}) int {
	code, _ := body["code"].(float64)
	return int(code)
}

func TestOrderFlowOverHTTP(t *testing.T) {
	env := setupHandlerTest(t)
	testutil.SeedVendor(t, env.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, env.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, env.db, "M1", 4, 10, "Sheets")

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"vendor_id": "V1",
		"line_items": []map[string]interface{}{
			{"material_id": "M1", "quantity": 10, "unit": "Sheets", "rate": 100, "gst": 18},
		},
	}, testutil.PurchaserToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	po := dataOf(t, testutil.ParseResponse(w))
	id, _ := po["id"].(string)
	if po["status"] != "AwaitingApproval" || po["display_status"] != "AwaitingApproval" {
		t.Fatalf("unexpected status %v / %v", po["status"], po["display_status"])
	}
	if po["total"] != "1180" {
		t.Fatalf("expected total 1180, got %v", po["total"])
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders/"+id+"/approve", nil, testutil.PurchaserToken())
	if w.Code != http.StatusForbidden || codeOf(testutil.ParseResponse(w)) != CodeForbidden {
		t.Fatalf("purchaser approve: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders/"+id+"/approve", nil, testutil.ManagerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if dataOf(t, testutil.ParseResponse(w))["status"] != "Pending" {
		t.Fatalf("approved order should be Pending: %s", w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders/"+id+"/deliver", nil, testutil.InventoryManagerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("deliver: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders/"+id+"/deliver", nil, testutil.ManagerToken())
	if w.Code != http.StatusConflict || codeOf(testutil.ParseResponse(w)) != CodeInvalidTransition {
		t.Fatalf("second delivery: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/inventory/M1", nil, testutil.ManagerToken())
	item := dataOf(t, testutil.ParseResponse(w))
	if item["quantity"] != float64(14) || item["low_stock"] != false {
		t.Fatalf("expected 14 in stock and not low, got %v", item)
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/activity?entity_type=order&entity_id="+id, nil, testutil.ManagerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("activity: expected 200, got %d", w.Code)
	}
	logs := dataOf(t, testutil.ParseResponse(w))
	if items, _ := logs["items"].([]interface{}); len(items) != 3 {
		t.Fatalf("expected create/approve/deliver entries, got %v", logs["items"])
	}
}

func TestErrorMapping(t *testing.T) {
	env := setupHandlerTest(t)
	testutil.SeedVendor(t, env.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, env.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedStock(t, env.db, "M1", 2, 1, "Nos.")

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"vendor_id": "V1",
		"line_items": []map[string]interface{}{
			{"material_id": "M1", "quantity": 1, "unit": "Nos.", "rate": 10},
		},
	}, testutil.ManagerToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("seed order: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		token  string
		status int
		code   int
	}{
		{"validation", http.MethodPost, "/api/v1/orders", map[string]interface{}{"vendor_id": "V1"}, testutil.ManagerToken(), 400, CodeValidation},
		{"malformed body", http.MethodPost, "/api/v1/vendors", "not-json-object", testutil.ManagerToken(), 400, CodeValidation},
		{"not found", http.MethodGet, "/api/v1/orders/PO-404", nil, testutil.ManagerToken(), 404, CodeNotFound},
		{"referenced vendor", http.MethodDelete, "/api/v1/vendors/V1", nil, testutil.ManagerToken(), 409, CodeReferentialIntegrity},
		{"insufficient stock", http.MethodPost, "/api/v1/issuances", map[string]interface{}{
			"material_id": "M1", "quantity": 3, "issued_to_site": "Alpha",
		}, testutil.InventoryManagerToken(), 422, CodeInsufficientStock},
		{"forbidden issue", http.MethodPost, "/api/v1/issuances", map[string]interface{}{
			"material_id": "M1", "quantity": 1, "issued_to_site": "Alpha",
		}, testutil.PurchaserToken(), 403, CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.router, tt.method, tt.path, tt.body, tt.token)
			if w.Code != tt.status {
				t.Fatalf("expected HTTP %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if got := codeOf(testutil.ParseResponse(w)); got != tt.code {
				t.Fatalf("expected code %d, got %d", tt.code, got)
			}
		})
	}
}

func TestRequiresToken(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/materials", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/materials", nil, "garbage")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", w.Code)
	}
	guest := testutil.GenerateTestToken("u-guest", "Guest", "guest")
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/materials", nil, guest)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unknown role, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/materials", nil, testutil.PurchaserToken())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a purchaser, got %d", w.Code)
	}
}

func TestIntentAndIssuanceOverHTTP(t *testing.T) {
	env := setupHandlerTest(t)
	testutil.SeedVendor(t, env.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, env.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, env.db, "M1", 10, 2, "Sheets")

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/intents", map[string]interface{}{
		"notes":      "kitchen order",
		"line_items": []map[string]interface{}{{"material_id": "M1", "quantity": 6}},
	}, testutil.InventoryManagerToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("raise: %d %s", w.Code, w.Body.String())
	}
	intentID, _ := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/intents/"+intentID+"/reject", map[string]interface{}{}, testutil.PurchaserToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: expected 400, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/intents/"+intentID+"/approve", nil, testutil.PurchaserToken())
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/intents/"+intentID+"/convert", nil, testutil.PurchaserToken())
	if w.Code != http.StatusOK {
		t.Fatalf("convert: %d %s", w.Code, w.Body.String())
	}
	draft := dataOf(t, testutil.ParseResponse(w))
	if draft["intent_id"] != intentID {
		t.Fatalf("draft should reference the intent, got %v", draft["intent_id"])
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/issuances", map[string]interface{}{
		"material_id": "M1", "quantity": 9, "issued_to_site": "Alpha",
	}, testutil.InventoryManagerToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("issue: %d %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/inventory?low_stock=true", nil, testutil.ManagerToken())
	list := dataOf(t, testutil.ParseResponse(w))
	items, _ := list["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected one low-stock item, got %v", list["items"])
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/inventory/M1/reorder-draft", nil, testutil.ManagerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("reorder draft: %d %s", w.Code, w.Body.String())
	}
	if d := dataOf(t, testutil.ParseResponse(w)); d["auto_generated"] != true {
		t.Fatalf("reorder draft should be auto-generated, got %v", d)
	}
}
