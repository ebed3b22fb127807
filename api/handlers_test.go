/*
handlers_test.go - HTTP-level tests over the full wiring

Tests for:
- Earn/redeem round trip including the insufficient-balance response
- Report date-range validation
- Campaign audience preview
- Client, reward, category, and promotion CRUD statuses
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/segment"
	"github.com/minimart/backoffice/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	service := loyalty.NewService(store, store, store, decimal.Decimal{})
	resolver := segment.NewResolver(store, store, segment.Tiers{SilverMin: 200, GoldMin: 500, VIPMin: 1000}, 90)
	aggregator := finance.NewAggregator(store, store, store, logger)
	dispatcher := campaign.NewDispatcher(resolver, &campaign.LogSender{Log: logger}, 50, 0, logger)

	h := &Handler{
		Loyalty:    service,
		Clients:    store,
		Rewards:    store,
		Resolver:   resolver,
		Aggregator: aggregator,
		Finance:    store,
		Categories: store,
		Dispatcher: dispatcher,
		Promotions: store,
		Log:        logger,
	}
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func seedClientAndReward(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, loyalty.Client{
		ID:         "c-1",
		Name:       "Ana Silva",
		Email:      "ana@example.com",
		EmailOptIn: true,
		CreatedAt:  time.Now().UTC(),
	}))
	require.NoError(t, store.SaveReward(ctx, loyalty.Reward{
		ID:             "rw-coffee",
		Name:           "Free Coffee",
		PointsRequired: 30,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}))
}

// =============================================================================
// LOYALTY FLOW TESTS
// =============================================================================

func TestAPI_EarnRedeemRoundTrip(t *testing.T) {
	// GIVEN: A client and a 30-point reward
	// WHEN: Earning for 250.00 and 75.00, redeeming, and redeeming again
	// THEN: Balance goes 25 -> 32 -> 2; the retry is a 400 with
	//       code insufficient_balance and available/required detail

	server, store := newTestServer(t)
	seedClientAndReward(t, store)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/add",
		EarnRequest{ClientID: "c-1", Amount: 250})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var earn EarnResponseDTO
	decodeBody(t, resp, &earn)
	assert.Equal(t, 25, earn.Balance)
	assert.Equal(t, "earn", earn.Entry.Kind)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/add",
		EarnRequest{ClientID: "c-1", Amount: 75})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &earn)
	assert.Equal(t, 32, earn.Balance)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/redeem",
		RedeemRequest{ClientID: "c-1", RewardID: "rw-coffee"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var redeem RedeemResponseDTO
	decodeBody(t, resp, &redeem)
	assert.Equal(t, 2, redeem.Balance)
	assert.Equal(t, "Free Coffee", redeem.Reward.Name)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/redeem",
		RedeemRequest{ClientID: "c-1", RewardID: "rw-coffee"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Details struct {
			Available int `json:"available"`
			Required  int `json:"required"`
		} `json:"details"`
	}
	decodeBody(t, resp, &errResp)
	assert.Equal(t, "insufficient_balance", errResp.Code)
	assert.Equal(t, 2, errResp.Details.Available)
	assert.Equal(t, 30, errResp.Details.Required)

	// The failed attempt wrote nothing
	resp = doJSON(t, http.MethodGet, server.URL+"/api/loyalty/points/c-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance BalanceDTO
	decodeBody(t, resp, &balance)
	assert.Equal(t, 2, balance.Points)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/loyalty/history/c-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []LedgerEntryDTO
	decodeBody(t, resp, &history)
	assert.Len(t, history, 3)
}

func TestAPI_Earn_Validation(t *testing.T) {
	server, store := newTestServer(t)
	seedClientAndReward(t, store)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/add",
		EarnRequest{ClientID: "c-1", Amount: -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/add",
		EarnRequest{ClientID: "ghost", Amount: 100})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/points/add",
		EarnRequest{Amount: 100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Balance_UnknownClient(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/loyalty/points/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// REWARD CRUD TESTS
// =============================================================================

func TestAPI_Reward_CRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/loyalty/rewards",
		CreateRewardRequest{Name: "Free Pastry", PointsRequired: 50})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created RewardDTO
	decodeBody(t, resp, &created)
	assert.True(t, created.Active)

	points := 60
	resp = doJSON(t, http.MethodPut, server.URL+"/api/loyalty/rewards/"+created.ID,
		UpdateRewardRequest{PointsRequired: &points})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated RewardDTO
	decodeBody(t, resp, &updated)
	assert.Equal(t, 60, updated.PointsRequired)
	assert.Equal(t, "Free Pastry", updated.Name)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/loyalty/rewards/"+created.ID,
		UpdateRewardRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/loyalty/rewards",
		CreateRewardRequest{Name: "X", PointsRequired: 50})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/loyalty/rewards/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/loyalty/rewards/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CLIENT CRUD TESTS
// =============================================================================

func TestAPI_Client_CRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/clients",
		ClientRequest{Name: "Rui Gomes", Email: "rui@example.com", BirthDate: "1988-02-29"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ClientDTO
	decodeBody(t, resp, &created)
	assert.True(t, created.EmailOptIn)
	assert.Equal(t, "1988-02-29", created.BirthDate)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/clients",
		ClientRequest{Name: "No Email", Email: "not-an-address"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	optOut := false
	resp = doJSON(t, http.MethodPut, server.URL+"/api/clients/"+created.ID,
		ClientRequest{Name: "Rui G.", Email: "rui@example.com", EmailOptIn: &optOut})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated ClientDTO
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Rui G.", updated.Name)
	assert.False(t, updated.EmailOptIn)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/clients/ghost",
		ClientRequest{Name: "X Y", Email: "x@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/clients/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// REPORT TESTS
// =============================================================================

func TestAPI_Summary(t *testing.T) {
	// GIVEN: Credits of 100 and 10 and a debit of 40 in March
	// WHEN: Querying the March summary
	// THEN: {110, 40, 70}

	server, store := newTestServer(t)
	ctx := context.Background()
	for i, tx := range []finance.Transaction{
		{Amount: decimal.NewFromInt(100), Type: finance.TypeCredit},
		{Amount: decimal.NewFromInt(40), Type: finance.TypeDebit},
		{Amount: decimal.NewFromInt(10), Type: finance.TypeCredit},
	} {
		tx.ID = fmt.Sprintf("t-%d", i)
		tx.TransactionDate = time.Date(2025, time.March, 5+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.SaveTransaction(ctx, tx))
	}

	resp := doJSON(t, http.MethodGet,
		server.URL+"/api/reports/summary?start_date=2025-03-01&end_date=2025-03-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary SummaryDTO
	decodeBody(t, resp, &summary)
	assert.Equal(t, 110.0, summary.TotalCredit)
	assert.Equal(t, 40.0, summary.TotalDebit)
	assert.Equal(t, 70.0, summary.Balance)
}

func TestAPI_Summary_DateValidation(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []string{
		"",
		"?start_date=2025-03-01",
		"?start_date=03/01/2025&end_date=2025-03-31",
		"?start_date=2025-04-01&end_date=2025-03-01", // inverted
	}
	for _, qs := range cases {
		resp := doJSON(t, http.MethodGet, server.URL+"/api/reports/summary"+qs, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", qs)
		resp.Body.Close()
	}
}

func TestAPI_SummaryByCategory_ExpandNames(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCategory(ctx, finance.Category{ID: "cat-sales", Name: "Sales"}))
	require.NoError(t, store.SaveTransaction(ctx, finance.Transaction{
		ID: "t-1", Amount: decimal.NewFromInt(100), Type: finance.TypeCredit,
		TransactionDate: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), CategoryID: "cat-sales",
	}))
	require.NoError(t, store.SaveTransaction(ctx, finance.Transaction{
		ID: "t-2", Amount: decimal.NewFromInt(7), Type: finance.TypeDebit,
		TransactionDate: time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC),
	}))

	resp := doJSON(t, http.MethodGet,
		server.URL+"/api/reports/summary-by-category?start_date=2025-03-01&end_date=2025-03-31&expand=names", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups []CategorySummaryDTO
	decodeBody(t, resp, &groups)
	require.Len(t, groups, 2)

	names := make(map[string]bool)
	for _, g := range groups {
		require.NotNil(t, g.CategoryName)
		names[*g.CategoryName] = true
	}
	assert.True(t, names["Sales"])
	assert.True(t, names[finance.UncategorizedLabel])
}

// =============================================================================
// TRANSACTION CRUD TESTS
// =============================================================================

func TestAPI_Transaction_Validation(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []TransactionRequest{
		{Amount: 10, Type: "transfer", TransactionDate: "2025-03-01"},
		{Amount: 0, Type: "credit", TransactionDate: "2025-03-01"},
		{Amount: 10, Type: "credit", TransactionDate: "yesterday"},
	}
	for i, req := range cases {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/transactions", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %d", i)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/transactions",
		TransactionRequest{Amount: 12.5, Type: "debit", TransactionDate: "2025-03-01", Description: "Supplies"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created TransactionDTO
	decodeBody(t, resp, &created)
	assert.Equal(t, 12.5, created.Amount)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/transactions/ghost",
		TransactionRequest{Amount: 1, Type: "credit", TransactionDate: "2025-03-01"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CATEGORY TESTS
// =============================================================================

func TestAPI_Category_CreateAndList(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/categories",
		CategoryRequest{Name: "Sales"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created CategoryDTO
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Sales", created.Name)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/categories",
		CategoryRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/categories",
		CategoryRequest{Name: "Rent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []CategoryDTO
	decodeBody(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Rent", list[0].Name)
	assert.Equal(t, "Sales", list[1].Name)
}

// =============================================================================
// CAMPAIGN TESTS
// =============================================================================

func TestAPI_CampaignAudienceAndSend(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveClient(ctx, loyalty.Client{
			ID:         fmt.Sprintf("c-%d", i),
			Name:       fmt.Sprintf("Client %d", i),
			Email:      fmt.Sprintf("c%d@example.com", i),
			EmailOptIn: true,
			CreatedAt:  time.Now().UTC(),
		}))
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/api/campaigns/audience?segment=all", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview campaign.Preview
	decodeBody(t, resp, &preview)
	assert.Equal(t, 3, preview.Count)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/campaigns/audience?segment=platinum", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/campaigns/send",
		SendCampaignRequest{Segment: "ALL", Subject: "Hello", Message: "Spring offers"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result campaign.Result
	decodeBody(t, resp, &result)
	assert.Equal(t, 3, result.Recipients)
	assert.Equal(t, 1, result.Batches)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/campaigns/send",
		SendCampaignRequest{Segment: "ALL"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// PROMOTION CRUD TESTS
// =============================================================================

func TestAPI_Promotion_CRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/promotions",
		CreatePromotionRequest{
			Title:       "Summer Kickoff",
			Description: "Double points on weekends",
			Type:        "points_based",
			StartDate:   "2025-06-01",
			EndDate:     "2025-06-30",
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created PromotionDTO
	decodeBody(t, resp, &created)
	assert.Equal(t, "points_based", created.Type)
	assert.True(t, created.Active)
	assert.Equal(t, "2025-06-01", created.StartDate)
	assert.Equal(t, "2025-06-30", created.EndDate)

	// Type defaults to general when omitted
	resp = doJSON(t, http.MethodPost, server.URL+"/api/promotions",
		CreatePromotionRequest{Title: "Welcome", Description: "New client offer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var general PromotionDTO
	decodeBody(t, resp, &general)
	assert.Equal(t, "general", general.Type)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/promotions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched PromotionDTO
	decodeBody(t, resp, &fetched)
	assert.Equal(t, "Summer Kickoff", fetched.Title)

	active := false
	resp = doJSON(t, http.MethodPut, server.URL+"/api/promotions/"+created.ID,
		UpdatePromotionRequest{Active: &active})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated PromotionDTO
	decodeBody(t, resp, &updated)
	assert.False(t, updated.Active)
	assert.Equal(t, "Summer Kickoff", updated.Title)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/promotions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []PromotionDTO
	decodeBody(t, resp, &list)
	assert.Len(t, list, 2)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/promotions/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/promotions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Promotion_Validation(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []CreatePromotionRequest{
		{Description: "missing title"},
		{Title: "No description"},
		{Title: "Bad type", Description: "x", Type: "percent"},
		{Title: "Bad date", Description: "x", StartDate: "06/01/2025"},
		{Title: "Inverted", Description: "x", StartDate: "2025-06-30", EndDate: "2025-06-01"},
	}
	for i, req := range cases {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/promotions", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %d", i)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/api/promotions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
