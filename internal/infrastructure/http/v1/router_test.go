package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/category"
	"shopledger/internal/domain/catalogs/party"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/expense"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/domain/reports"
	"shopledger/internal/infrastructure/http/v1/middleware"
	"shopledger/internal/infrastructure/storage/memory"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s := memory.New()

	categories := category.NewService(s.Categories(), s)
	svc := Services{
		Ledger: ledger.NewService(ledger.Deps{
			TxManager:        s,
			Products:         s.Products(),
			Batches:          s.Batches(),
			Parties:          s.Parties(),
			Sales:            s.Sales(),
			Purchases:        s.Purchases(),
			Payments:         s.Payments(),
			SupplierPayments: s.SupplierPayments(),
			Numerator:        s.Numerator(),
			Publisher:        s,
		}),
		Products:   product.NewService(s.Products(), s.Batches(), categories, s),
		Parties:    party.NewService(s.Parties(), s),
		Categories: categories,
		Expenses:   expense.NewService(s.Expenses(), s, s.Numerator(), nil),
		Reports:    reports.NewService(s.Products(), s.Parties(), s.Sales(), s.Purchases(), s.Expenses()),
	}

	router := NewRouter(RouterConfig{
		Services:    svc,
		Idempotency: s.Idempotency(),
		Mode:        gin.TestMode,
		CORSOrigins: []string{"https://till.example"},
	})
	return &testAPI{t: t, router: router, store: s}
}

func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// mustDo performs a request and decodes the response into out.
func (a *testAPI) mustDo(method, path string, body any, wantStatus int, out any) {
	a.t.Helper()
	w := a.do(method, path, body)
	require.Equal(a.t, wantStatus, w.Code, w.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out))
	}
}

type idBody struct {
	ID string `json:"id"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func (a *testAPI) createProduct(name string, tracked bool) string {
	var p idBody
	a.mustDo(http.MethodPost, "/api/v1/products", gin.H{
		"name":           name,
		"sellPrice":      "12.50",
		"isBatchTracked": tracked,
	}, http.StatusCreated, &p)
	return p.ID
}

func (a *testAPI) createParty(path, name string) string {
	var p idBody
	a.mustDo(http.MethodPost, "/api/v1/"+path, gin.H{"name": name}, http.StatusCreated, &p)
	return p.ID
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, types.MustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memory")
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestPurchaseThenSale_BatchTracked(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct("Yogurt", true)
	supplierID := api.createParty("suppliers", "Dairy Co")

	var purchase struct {
		ID         string      `json:"id"`
		GrandTotal types.Money `json:"grandTotal"`
		DueAmount  types.Money `json:"dueAmount"`
		Lines      []struct {
			BatchID string `json:"batchId"`
		} `json:"lines"`
	}
	api.mustDo(http.MethodPost, "/api/v1/purchases", gin.H{
		"supplierId": supplierID,
		"paidAmount": "40",
		"lines": []gin.H{
			{"productId": productID, "quantity": 10, "buyPrice": "4", "batchNumber": "B1"},
		},
	}, http.StatusCreated, &purchase)
	assertMoney(t, "40", purchase.GrandTotal)
	assertMoney(t, "0", purchase.DueAmount)
	require.Len(t, purchase.Lines, 1)
	batchID := purchase.Lines[0].BatchID
	require.NotEmpty(t, batchID)

	var supplier struct {
		CurrentBalance types.Money `json:"currentBalance"`
	}
	api.mustDo(http.MethodGet, "/api/v1/suppliers/"+supplierID, nil, http.StatusOK, &supplier)
	assertMoney(t, "0", supplier.CurrentBalance)

	// A batch-tracked product needs a batch on every sale line.
	w := api.do(http.MethodPost, "/api/v1/sales", gin.H{
		"lines": []gin.H{{"productId": productID, "quantity": 1, "unitPrice": "12.50"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var errResp errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeBatchRequired, errResp.Code)

	api.mustDo(http.MethodPost, "/api/v1/sales", gin.H{
		"lines": []gin.H{{"productId": productID, "batchId": batchID, "quantity": 3, "unitPrice": "12.50"}},
	}, http.StatusCreated, nil)

	var prod struct {
		Stock    int64       `json:"stock"`
		BuyPrice types.Money `json:"buyPrice"`
	}
	api.mustDo(http.MethodGet, "/api/v1/products/"+productID, nil, http.StatusOK, &prod)
	assert.Equal(t, int64(7), prod.Stock)
	assertMoney(t, "4", prod.BuyPrice)

	var batches struct {
		Items []struct {
			BatchNumber  string `json:"batchNumber"`
			CurrentStock int64  `json:"currentStock"`
		} `json:"items"`
	}
	api.mustDo(http.MethodGet, "/api/v1/products/"+productID+"/batches", nil, http.StatusOK, &batches)
	require.Len(t, batches.Items, 1)
	assert.Equal(t, "B1", batches.Items[0].BatchNumber)
	assert.Equal(t, int64(7), batches.Items[0].CurrentStock)
}

func TestCustomerCreditAndPayment(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct("Rice", false)
	customerID := api.createParty("customers", "Ann")

	api.mustDo(http.MethodPost, "/api/v1/products/"+productID+"/stock-adjustments", gin.H{
		"delta": 100, "reason": "opening count",
	}, http.StatusOK, nil)

	var sale struct {
		ID        string      `json:"id"`
		Total     types.Money `json:"total"`
		DueAmount types.Money `json:"dueAmount"`
	}
	api.mustDo(http.MethodPost, "/api/v1/sales", gin.H{
		"customerId": customerID,
		"dueAmount":  "500",
		"lines":      []gin.H{{"productId": productID, "quantity": 50, "unitPrice": "10"}},
	}, http.StatusCreated, &sale)
	assertMoney(t, "500", sale.Total)

	api.mustDo(http.MethodPost, "/api/v1/customers/"+customerID+"/payments", gin.H{
		"amount": "200", "type": "received",
	}, http.StatusCreated, nil)

	var view struct {
		Balance types.Money `json:"balance"`
		InSync  bool        `json:"inSync"`
		Entries []struct {
			Kind           string      `json:"kind"`
			RunningBalance types.Money `json:"runningBalance"`
		} `json:"entries"`
	}
	api.mustDo(http.MethodGet, "/api/v1/customers/"+customerID+"/ledger", nil, http.StatusOK, &view)
	assertMoney(t, "300", view.Balance)
	assert.True(t, view.InSync)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "payment", view.Entries[0].Kind)
	assertMoney(t, "300", view.Entries[0].RunningBalance)

	var list struct {
		Items      []idBody `json:"items"`
		TotalCount int64    `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/sales?customerId="+customerID, nil, http.StatusOK, &list)
	assert.Equal(t, int64(1), list.TotalCount)
	require.Len(t, list.Items, 1)
	assert.Equal(t, sale.ID, list.Items[0].ID)

	// Reversing the sale takes the due amount back off the balance.
	api.mustDo(http.MethodPost, "/api/v1/sales/"+sale.ID+"/reverse", nil, http.StatusCreated, nil)
	w := api.do(http.MethodPost, "/api/v1/sales/"+sale.ID+"/reverse", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var customer struct {
		CurrentBalance types.Money `json:"currentBalance"`
	}
	api.mustDo(http.MethodGet, "/api/v1/customers/"+customerID, nil, http.StatusOK, &customer)
	assertMoney(t, "-200", customer.CurrentBalance)
}

func TestSale_InsufficientStock(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct("Salt", false)

	w := api.do(http.MethodPost, "/api/v1/sales", gin.H{
		"lines": []gin.H{{"productId": productID, "quantity": 2, "unitPrice": "1"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var errResp errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, apperror.CodeInsufficientStock, errResp.Code)

	var list struct {
		TotalCount int64 `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/sales", nil, http.StatusOK, &list)
	assert.Zero(t, list.TotalCount)
}

func TestParties_KindIsolation(t *testing.T) {
	api := newTestAPI(t)
	supplierID := api.createParty("suppliers", "Mill")

	w := api.do(http.MethodGet, "/api/v1/customers/"+supplierID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/v1/customers/"+supplierID+"/payments", gin.H{"amount": "5", "type": "received"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var list struct {
		TotalCount int64 `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/customers", nil, http.StatusOK, &list)
	assert.Zero(t, list.TotalCount)
	api.mustDo(http.MethodGet, "/api/v1/suppliers", nil, http.StatusOK, &list)
	assert.Equal(t, int64(1), list.TotalCount)
}

func TestParty_OpeningBalanceAndUpdate(t *testing.T) {
	api := newTestAPI(t)

	var created struct {
		ID             string      `json:"id"`
		Version        int         `json:"version"`
		CurrentBalance types.Money `json:"currentBalance"`
	}
	api.mustDo(http.MethodPost, "/api/v1/customers", gin.H{
		"name": "Bea", "openingBalance": "75",
	}, http.StatusCreated, &created)
	assertMoney(t, "75", created.CurrentBalance)

	var updated struct {
		Name           string      `json:"name"`
		CurrentBalance types.Money `json:"currentBalance"`
	}
	api.mustDo(http.MethodPut, "/api/v1/customers/"+created.ID, gin.H{
		"name": "Bea Smith", "version": created.Version,
	}, http.StatusOK, &updated)
	assert.Equal(t, "Bea Smith", updated.Name)
	assertMoney(t, "75", updated.CurrentBalance)

	// A stale version is rejected.
	w := api.do(http.MethodPut, "/api/v1/customers/"+created.ID, gin.H{
		"name": "Bea S", "version": created.Version,
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var rec struct {
		Drift types.Money `json:"drift"`
	}
	api.mustDo(http.MethodPost, "/api/v1/customers/"+created.ID+"/reconcile", nil, http.StatusOK, &rec)
	assertMoney(t, "0", rec.Drift)
}

func TestValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid id", http.MethodGet, "/api/v1/products/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown product", http.MethodGet, "/api/v1/products/0190a6e4-7b7e-7c1a-8000-000000000001", nil, http.StatusNotFound},
		{"missing name", http.MethodPost, "/api/v1/products", gin.H{"sellPrice": "1"}, http.StatusBadRequest},
		{"empty sale", http.MethodPost, "/api/v1/sales", gin.H{"lines": []gin.H{}}, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/expenses?dateFrom=yesterday", nil, http.StatusBadRequest},
		{"zero expense", http.MethodPost, "/api/v1/expenses", gin.H{"category": "rent", "amount": "0"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var errResp errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Code)
		})
	}
}

func TestIdempotency_Replay(t *testing.T) {
	api := newTestAPI(t)
	body := gin.H{"name": "Cid"}

	first := api.do(http.MethodPost, "/api/v1/customers", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := api.do(http.MethodPost, "/api/v1/customers", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	var a, b idBody
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)

	var list struct {
		TotalCount int64 `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/customers", nil, http.StatusOK, &list)
	assert.Equal(t, int64(1), list.TotalCount)

	// Same key, different body.
	w := api.do(http.MethodPost, "/api/v1/customers", gin.H{"name": "Other"}, middleware.HeaderIdempotencyKey, "k-1")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotency_ReplaysErrors(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct("Tea", false)
	body := gin.H{"lines": []gin.H{{"productId": productID, "quantity": 1, "unitPrice": "1"}}}

	first := api.do(http.MethodPost, "/api/v1/sales", body, middleware.HeaderIdempotencyKey, "k-2")
	require.Equal(t, http.StatusUnprocessableEntity, first.Code)

	second := api.do(http.MethodPost, "/api/v1/sales", body, middleware.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, http.StatusUnprocessableEntity, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestCategoriesAndExpenses(t *testing.T) {
	api := newTestAPI(t)

	var cat idBody
	api.mustDo(http.MethodPost, "/api/v1/categories", gin.H{"name": "Dairy"}, http.StatusCreated, &cat)

	w := api.do(http.MethodPost, "/api/v1/categories", gin.H{"name": "dairy"})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	api.mustDo(http.MethodPost, "/api/v1/products", gin.H{
		"name": "Cheese", "sellPrice": "8", "categoryId": cat.ID,
	}, http.StatusCreated, nil)

	w = api.do(http.MethodPost, "/api/v1/products", gin.H{
		"name": "Butter", "sellPrice": "8", "categoryId": "0190a6e4-7b7e-7c1a-8000-000000000002",
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	var exp struct {
		Number string `json:"number"`
	}
	api.mustDo(http.MethodPost, "/api/v1/expenses", gin.H{"category": "Rent", "amount": "1200"}, http.StatusCreated, &exp)
	assert.NotEmpty(t, exp.Number)

	var list struct {
		TotalCount int64 `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/expenses?search=rent", nil, http.StatusOK, &list)
	assert.Equal(t, int64(1), list.TotalCount)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct("Oil", false)
	customerID := api.createParty("customers", "Dee")

	api.mustDo(http.MethodPost, "/api/v1/products/"+productID+"/stock-adjustments", gin.H{"delta": 4}, http.StatusOK, nil)
	api.mustDo(http.MethodPost, "/api/v1/sales", gin.H{
		"customerId": customerID,
		"dueAmount":  "25",
		"lines":      []gin.H{{"productId": productID, "quantity": 1, "unitPrice": "25"}},
	}, http.StatusCreated, nil)

	var stock struct {
		TotalItems int   `json:"totalItems"`
		TotalStock int64 `json:"totalStock"`
	}
	api.mustDo(http.MethodGet, "/api/v1/reports/stock-balance", nil, http.StatusOK, &stock)
	assert.Equal(t, 1, stock.TotalItems)
	assert.Equal(t, int64(3), stock.TotalStock)

	var balances struct {
		Owed types.Money `json:"owed"`
	}
	api.mustDo(http.MethodGet, "/api/v1/reports/party-balances?kind=customer", nil, http.StatusOK, &balances)
	assertMoney(t, "25", balances.Owed)

	w := api.do(http.MethodGet, "/api/v1/reports/summary", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var summary struct {
		Sales struct {
			Count int         `json:"count"`
			Total types.Money `json:"total"`
		} `json:"sales"`
	}
	api.mustDo(http.MethodGet, "/api/v1/reports/summary?dateFrom=2000-01-01&dateTo=2999-12-31", nil, http.StatusOK, &summary)
	assert.Equal(t, 1, summary.Sales.Count)
	assertMoney(t, "25", summary.Sales.Total)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/products", nil, "Origin", "https://till.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://till.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = api.do(http.MethodGet, "/api/v1/products", nil, "Origin", "https://elsewhere.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
