package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/designatore/internal/middleware"
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "designatore-test-jwt-secret"

// Test users, one per role
const (
	ManagerID          = "u-manager"
	ManagerName        = "Meera Manager"
	PurchaserID        = "u-purchaser"
	PurchaserName      = "Pranav Purchaser"
	OtherPurchaserID   = "u-purchaser-2"
	OtherPurchaserName = "Priya Purchaser"
	StoreKeeperID      = "u-store"
	StoreKeeperName    = "Imran Inventory"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens a file-backed sqlite database in the test's temp dir and
// runs the real migration list against it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		filepath.Join(t.TempDir(), "test.db"))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := entity.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"uid":  userID,
		"name": name,
		"role": role,
		"iss":  "designatore",
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

func ManagerToken() string {
	return GenerateTestToken(ManagerID, ManagerName, entity.RoleManager)
}

func PurchaserToken() string {
	return GenerateTestToken(PurchaserID, PurchaserName, entity.RolePurchaser)
}

func InventoryManagerToken() string {
	return GenerateTestToken(StoreKeeperID, StoreKeeperName, entity.RoleInventoryManager)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedMaterial creates a material
func SeedMaterial(t *testing.T, db *gorm.DB, id, name, unit string) *entity.Material {
	t.Helper()
	m := &entity.Material{ID: id, Name: name, Unit: unit}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}

// SeedVendor creates a vendor
func SeedVendor(t *testing.T, db *gorm.DB, id, name string) *entity.Vendor {
	t.Helper()
	v := &entity.Vendor{ID: id, Name: name}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed vendor: %v", err)
	}
	return v
}

// SeedSite creates a site
func SeedSite(t *testing.T, db *gorm.DB, id, name string) *entity.Site {
	t.Helper()
	s := &entity.Site{ID: id, Name: name}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed site: %v", err)
	}
	return s
}

// SeedStock creates or overwrites the ledger row for a material
func SeedStock(t *testing.T, db *gorm.DB, materialID string, qty, threshold float64, unit string) *entity.InventoryItem {
	t.Helper()
	item := &entity.InventoryItem{MaterialID: materialID, Quantity: qty, Threshold: threshold, Unit: unit}
	if err := db.Save(item).Error; err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}
	return item
}

// StockOf reads the current ledger quantity, -1 when the row is missing
func StockOf(t *testing.T, db *gorm.DB, materialID string) float64 {
	t.Helper()
	var item entity.InventoryItem
	if err := db.Where("material_id = ?", materialID).First(&item).Error; err != nil {
		return -1
	}
	return item.Quantity
}

// Notification is one captured notifier call
type Notification struct {
	Kind    string
	Message string
}

// RecordingNotifier captures notifications for assertions
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *RecordingNotifier) Notify(kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Kind: kind, Message: message})
}

// All returns a copy of the captured notifications
func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Last returns the most recent notification
func (n *RecordingNotifier) Last() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}, false
	}
	return n.items[len(n.items)-1], true
}
