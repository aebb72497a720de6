package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/brewhaus/app/controllers"
	"github.com/shashiranjanraj/brewhaus/app/models"
	"github.com/shashiranjanraj/brewhaus/app/routes"
	"github.com/shashiranjanraj/brewhaus/app/services"
	"github.com/shashiranjanraj/brewhaus/pkg/auth"
	"github.com/shashiranjanraj/brewhaus/pkg/router"
)

// ─── In-memory fakes ─────────────────────────────────────────────────────────

type memUsers struct {
	byEmail map[string]models.User
}

func (m *memUsers) All(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.byEmail))
	for _, u := range m.byEmail {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memUsers) RoleByEmail(_ context.Context, email string) (models.Role, error) {
	return m.byEmail[email].Role, nil
}

func (m *memUsers) Insert(_ context.Context, u models.User) (string, error) {
	m.byEmail[u.Email] = u
	return primitive.NewObjectID().Hex(), nil
}

func (m *memUsers) Update(context.Context, string, string, string, models.Role) (int64, error) {
	return 1, nil
}

func (m *memUsers) Delete(context.Context, string) (int64, error) { return 1, nil }

type memCarts struct {
	byEmail map[string][]models.CartEntry
}

func (m *memCarts) ByEmail(_ context.Context, email string) ([]models.CartEntry, error) {
	return m.byEmail[email], nil
}

func (m *memCarts) Insert(_ context.Context, e models.CartEntry) (string, error) {
	m.byEmail[e.Email] = append(m.byEmail[e.Email], e)
	return primitive.NewObjectID().Hex(), nil
}

func (m *memCarts) Delete(context.Context, string) (int64, error) { return 1, nil }

type memOrders struct {
	placed []models.Order
}

func (m *memOrders) All(context.Context) ([]models.Order, error) { return m.placed, nil }

func (m *memOrders) ByEmail(_ context.Context, email string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.placed {
		if o.Email == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) Insert(_ context.Context, o models.Order) (string, error) {
	m.placed = append(m.placed, o)
	return primitive.NewObjectID().Hex(), nil
}

func (m *memOrders) MarkDone(context.Context, string) (int64, error) { return 1, nil }

func (m *memOrders) DeleteByCoffee(context.Context, string, string) (int64, error) {
	return 1, nil
}

type memPayments struct {
	byEmail map[string][]models.Payment
}

func (m *memPayments) ByEmail(_ context.Context, email string) ([]models.Payment, error) {
	return m.byEmail[email], nil
}

type fakeReconciler struct {
	claim  string
	sub    services.Submission
	result services.SettlementResult
	err    error
}

func (f *fakeReconciler) Settle(_ context.Context, claim string, sub services.Submission) (services.SettlementResult, error) {
	f.claim, f.sub = claim, sub
	if f.err != nil {
		return services.SettlementResult{}, f.err
	}
	return f.result, nil
}

type fakeIntentCreator struct {
	secret string
	err    error
}

func (f fakeIntentCreator) Create(context.Context, float64) (string, error) {
	return f.secret, f.err
}

type memCoffee struct {
	items []models.Coffee
}

func (m *memCoffee) All(context.Context) ([]models.Coffee, error) { return m.items, nil }

func (m *memCoffee) Find(context.Context, string) (*models.Coffee, error) {
	if len(m.items) == 0 {
		return nil, nil
	}
	return &m.items[0], nil
}

func (m *memCoffee) Insert(_ context.Context, item models.Coffee) (string, error) {
	m.items = append(m.items, item)
	return primitive.NewObjectID().Hex(), nil
}

func (m *memCoffee) Update(context.Context, string, models.Coffee) (int64, error) { return 1, nil }
func (m *memCoffee) SetImage(context.Context, string, string) (int64, error)      { return 1, nil }
func (m *memCoffee) Delete(context.Context, string) (int64, error)                { return 1, nil }

type memDisk struct {
	files map[string][]byte
}

func (d *memDisk) Put(path string, content []byte) error {
	d.files[path] = content
	return nil
}

func (d *memDisk) PutStream(path string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, b)
}

func (d *memDisk) Get(path string) ([]byte, error) { return d.files[path], nil }
func (d *memDisk) Exists(path string) bool         { _, ok := d.files[path]; return ok }
func (d *memDisk) URL(path string) string          { return "http://localhost/storage/" + path }
func (d *memDisk) Delete(path string) error        { delete(d.files, path); return nil }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// ─── Harness ─────────────────────────────────────────────────────────────────

type api struct {
	handler    http.Handler
	tokens     *auth.TokenService
	reconciler *fakeReconciler
}

func newAPI(t *testing.T) *api {
	t.Helper()

	users := &memUsers{byEmail: map[string]models.User{
		"admin@example.com":  {Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
		"milton@example.com": {Name: "Milton", Email: "milton@example.com", Role: models.RoleCustomer},
	}}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	reconciler := &fakeReconciler{result: services.SettlementResult{
		PaymentID:     "p1",
		CartsDeleted:  2,
		OrdersSettled: 1,
	}}

	r := router.New()
	routes.Register(r, routes.Controllers{
		Auth:   controllers.NewAuthController(tokens),
		Users:  controllers.NewUserController(users),
		Coffee: controllers.NewCoffeeController(&memCoffee{}, nil, time.Minute, &memDisk{files: map[string][]byte{}}),
		Carts: controllers.NewCartController(&memCarts{byEmail: map[string][]models.CartEntry{
			"milton@example.com": {{Email: "milton@example.com", Name: "Americano", Price: 3.5}},
		}}),
		Orders:  controllers.NewOrderController(&memOrders{}),
		Payment: controllers.NewPaymentController(&memPayments{byEmail: map[string][]models.Payment{}}, fakeIntentCreator{secret: "pi_secret"}, reconciler),
		Health:  controllers.NewHealthController(okPinger{}),
	}, routes.NewGuards(tokens, users))

	return &api{handler: r.Handler(), tokens: tokens, reconciler: reconciler}
}

func (a *api) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) token(t *testing.T, email string) string {
	t.Helper()
	token, err := a.tokens.Issue(email)
	require.NoError(t, err)
	return token
}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestIssueToken(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/jwt", "", map[string]string{"email": "milton@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	email, err := a.tokens.Verify(body["token"])
	require.NoError(t, err)
	assert.Equal(t, "milton@example.com", email)
}

func TestIssueTokenRejectsBadEmail(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/jwt", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/orders/milton@example.com", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"unauthorized access"}`, rec.Body.String())
}

func TestAdminRouteAsCustomer(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/allUsers", a.token(t, "milton@example.com"), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestAdminRouteAsAdmin(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/allUsers", a.token(t, "admin@example.com"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminUpdatesCatalogItem(t *testing.T) {
	a := newAPI(t)
	id := primitive.NewObjectID().Hex()

	rec := a.do(t, http.MethodPatch, "/coffee/"+id, a.token(t, "admin@example.com"), map[string]interface{}{
		"name":     "Americano",
		"chef":     "Dipa Roy",
		"supplier": "Bengal Beans",
		"taste":    "Bitter",
		"category": "Espresso",
		"price":    4.25,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"modifiedCount":1}`, rec.Body.String())
}

func TestCustomerCannotUpdateCatalogItem(t *testing.T) {
	a := newAPI(t)
	id := primitive.NewObjectID().Hex()

	rec := a.do(t, http.MethodPatch, "/coffee/"+id, a.token(t, "milton@example.com"), map[string]interface{}{
		"name":  "Americano",
		"price": 4.25,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestCustomerCannotDeleteUser(t *testing.T) {
	a := newAPI(t)
	id := primitive.NewObjectID().Hex()

	rec := a.do(t, http.MethodDelete, "/allUsers/"+id, a.token(t, "milton@example.com"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestAdminDeletesUser(t *testing.T) {
	a := newAPI(t)
	id := primitive.NewObjectID().Hex()

	rec := a.do(t, http.MethodDelete, "/allUsers/"+id, a.token(t, "admin@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deletedCount":1}`, rec.Body.String())
}

func TestAdminProbe(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/allUsers/admin/admin@example.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":true}`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/allUsers/admin/milton@example.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"admin":false}`, rec.Body.String())
}

func TestCatalogIsPublic(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/coffee", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartOwnerBinding(t *testing.T) {
	a := newAPI(t)
	token := a.token(t, "milton@example.com")

	rec := a.do(t, http.MethodGet, "/cart/milton@example.com", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/cart/other@example.com", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestCreateIntent(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/create-payment-intent", a.token(t, "milton@example.com"),
		map[string]float64{"price": 19.99})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_secret"}`, rec.Body.String())
}

func TestCreateIntentUnauthenticated(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/create-payment-intent", "", map[string]float64{"price": 19.99})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitPayment(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/payments", a.token(t, "milton@example.com"), map[string]interface{}{
		"email":                  "milton@example.com",
		"amount":                 12.5,
		"idempotencyKey":         "key-1",
		"cartIds":                []string{"c1", "c2"},
		"pendingPaymentCoffeIds": []string{"o1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		PaymentResult struct {
			InsertedID string `json:"insertedId"`
			Duplicate  bool   `json:"duplicate"`
		} `json:"paymentResult"`
		DeleteResult struct {
			DeletedCount int64 `json:"deletedCount"`
		} `json:"deleteResult"`
		UpdateResult struct {
			ModifiedCount int64 `json:"modifiedCount"`
		} `json:"updateResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "p1", body.PaymentResult.InsertedID)
	assert.False(t, body.PaymentResult.Duplicate)
	assert.Equal(t, int64(2), body.DeleteResult.DeletedCount)
	assert.Equal(t, int64(1), body.UpdateResult.ModifiedCount)

	assert.Equal(t, "milton@example.com", a.reconciler.claim, "the verified claim reaches the reconciler")
}

func TestSubmitPaymentForeignEmail(t *testing.T) {
	a := newAPI(t)
	a.reconciler.err = services.ErrNotOwner

	rec := a.do(t, http.MethodPost, "/payments", a.token(t, "milton@example.com"), map[string]interface{}{
		"email":                  "other@example.com",
		"amount":                 12.5,
		"idempotencyKey":         "key-1",
		"cartIds":                []string{"c1"},
		"pendingPaymentCoffeIds": []string{"o1"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestSubmitPaymentMissingIdempotencyKey(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/payments", a.token(t, "milton@example.com"), map[string]interface{}{
		"email":                  "milton@example.com",
		"amount":                 12.5,
		"cartIds":                []string{"c1"},
		"pendingPaymentCoffeIds": []string{"o1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitPaymentPartialFailure(t *testing.T) {
	a := newAPI(t)
	a.reconciler.err = &services.SettlementError{
		Step:      services.StepCartCleanup,
		PaymentID: "p1",
		Err:       fmt.Errorf("cart store down"),
	}

	rec := a.do(t, http.MethodPost, "/payments", a.token(t, "milton@example.com"), map[string]interface{}{
		"email":                  "milton@example.com",
		"amount":                 12.5,
		"idempotencyKey":         "key-1",
		"cartIds":                []string{"c1"},
		"pendingPaymentCoffeIds": []string{"o1"},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
