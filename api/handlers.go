/*
handlers.go - HTTP API handlers for the back-office core

PURPOSE:
  Exposes the loyalty ledger, segmentation, campaigns, and financial
  reports via REST. Handles HTTP request/response and JSON serialization,
  and delegates everything else to the domain packages.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (before any store access)
  3. Call domain logic (service, resolver, aggregator, dispatcher)
  4. Serialize response
  5. Map domain errors to statuses

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient balance
  - 404: Client/reward/transaction not found
  - 500: Internal/store errors
  Every 4xx names the failing field or precondition; no bare
  "internal error" for client-caused failures.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/segment"
)

const dayFormat = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Loyalty    *loyalty.Service
	Clients    loyalty.ClientStore
	Rewards    loyalty.RewardStore
	Resolver   *segment.Resolver
	Aggregator *finance.Aggregator
	Finance    finance.TransactionStore
	Categories finance.CategoryStore
	Dispatcher *campaign.Dispatcher
	Promotions campaign.PromotionStore
	Log        *logrus.Logger
}

// =============================================================================
// LOYALTY ENDPOINTS
// =============================================================================

// GetBalance returns the derived point balance.
// GET /api/loyalty/points/{clientID}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	points, err := h.Loyalty.Balance(r.Context(), clientID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{ClientID: clientID, Points: points})
}

// AddEarn converts a purchase amount to points.
// POST /api/loyalty/points/add
func (h *Handler) AddEarn(w http.ResponseWriter, r *http.Request) {
	var req EarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}

	result, err := h.Loyalty.Earn(r.Context(), req.ClientID, decimal.NewFromFloat(req.Amount), req.Description)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EarnResponseDTO{
		Entry:   toEntryDTO(result.Entry),
		Balance: result.Balance,
	})
}

// Redeem spends points on a reward.
// POST /api/loyalty/points/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientID == "" || req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "client_id and reward_id are required", nil)
		return
	}

	result, err := h.Loyalty.Redeem(r.Context(), req.ClientID, req.RewardID, req.Description)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RedeemResponseDTO{
		Entry:   toEntryDTO(result.Entry),
		Reward:  toRewardDTO(result.Reward),
		Balance: result.Balance,
	})
}

// GetHistory returns a client's ledger entries, most recent first.
// GET /api/loyalty/history/{clientID}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	entries, err := h.Loyalty.History(r.Context(), clientID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// REWARD CATALOG ENDPOINTS
// =============================================================================

// ListRewards returns the catalog, newest first.
// GET /api/loyalty/rewards
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.Rewards.ListRewards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rewards", err)
		return
	}
	dtos := make([]RewardDTO, len(rewards))
	for i, rw := range rewards {
		dtos[i] = toRewardDTO(rw)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateReward adds a catalog entry.
// POST /api/loyalty/rewards
func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req CreateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		writeError(w, http.StatusBadRequest, "name must be at least 2 characters", nil)
		return
	}
	if req.PointsRequired < 1 {
		writeError(w, http.StatusBadRequest, "points_required must be at least 1", nil)
		return
	}

	rw := loyalty.Reward{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Rewards.SaveReward(r.Context(), rw); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRewardDTO(rw))
}

// GetReward returns one catalog entry.
// GET /api/loyalty/rewards/{id}
func (h *Handler) GetReward(w http.ResponseWriter, r *http.Request) {
	rw, err := h.Rewards.GetReward(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reward", err)
		return
	}
	if rw == nil {
		writeError(w, http.StatusNotFound, "Reward not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(*rw))
}

// UpdateReward applies a partial patch.
// PUT /api/loyalty/rewards/{id}
func (h *Handler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	var req UpdateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == nil && req.Description == nil && req.PointsRequired == nil && req.Active == nil {
		writeError(w, http.StatusBadRequest, "at least one field must be provided", nil)
		return
	}
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < 2 {
		writeError(w, http.StatusBadRequest, "name must be at least 2 characters", nil)
		return
	}
	if req.PointsRequired != nil && *req.PointsRequired < 1 {
		writeError(w, http.StatusBadRequest, "points_required must be at least 1", nil)
		return
	}

	rw, err := h.Rewards.UpdateReward(r.Context(), chi.URLParam(r, "id"), loyalty.RewardPatch{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Active:         req.Active,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update reward", err)
		return
	}
	if rw == nil {
		writeError(w, http.StatusNotFound, "Reward not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(*rw))
}

// DeleteReward removes a catalog entry. Past redemptions keep their
// reward_id reference; history is never rewritten.
// DELETE /api/loyalty/rewards/{id}
func (h *Handler) DeleteReward(w http.ResponseWriter, r *http.Request) {
	err := h.Rewards.DeleteReward(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, loyalty.ErrRewardNotFound) {
		writeError(w, http.StatusNotFound, "Reward not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete reward", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// =============================================================================
// CLIENT ENDPOINTS
// =============================================================================

// ListClients returns all clients.
// GET /api/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Clients.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
// GET /api/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Clients.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// CreateClient registers a client.
// POST /api/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, errMsg := clientFromRequest(req, uuid.NewString(), time.Now().UTC())
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, nil)
		return
	}

	if err := h.Clients.SaveClient(r.Context(), *c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(*c))
}

// UpdateClient replaces a client's mutable fields.
// PUT /api/clients/{id}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Clients.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, errMsg := clientFromRequest(req, id, existing.CreatedAt)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, nil)
		return
	}

	if err := h.Clients.UpdateClient(r.Context(), *c); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// DeleteClient removes a client from the registry. Ledger history is
// left in place.
// DELETE /api/clients/{id}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	err := h.Clients.DeleteClient(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, loyalty.ErrClientNotFound) {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete client", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func clientFromRequest(req ClientRequest, id string, createdAt time.Time) (*loyalty.Client, string) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, "name is required"
	}
	if !strings.Contains(req.Email, "@") {
		return nil, "email must be a valid address"
	}
	c := loyalty.Client{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Phone:      req.Phone,
		EmailOptIn: true,
		CreatedAt:  createdAt,
	}
	if req.EmailOptIn != nil {
		c.EmailOptIn = *req.EmailOptIn
	}
	if req.BirthDate != "" {
		d, err := time.Parse(dayFormat, req.BirthDate)
		if err != nil {
			return nil, "birth_date must be YYYY-MM-DD"
		}
		c.BirthDate = &d
	}
	return &c, ""
}

// =============================================================================
// FINANCIAL TRANSACTION ENDPOINTS
// =============================================================================

// ListTransactions returns financial transactions, optionally filtered
// by category_id and type.
// GET /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txType := finance.TxType(r.URL.Query().Get("type"))
	if txType != "" && txType != finance.TypeCredit && txType != finance.TypeDebit {
		writeError(w, http.StatusBadRequest, "type must be credit or debit", nil)
		return
	}

	txs, err := h.Finance.ListTransactions(r.Context(), r.URL.Query().Get("category_id"), txType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTransaction records a financial transaction.
// POST /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, errMsg := transactionFromRequest(w, r, uuid.NewString())
	if tx == nil {
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg, nil)
		}
		return
	}
	if err := h.Finance.SaveTransaction(r.Context(), *tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// UpdateTransaction replaces a financial transaction.
// PUT /api/transactions/{id}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, errMsg := transactionFromRequest(w, r, chi.URLParam(r, "id"))
	if tx == nil {
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg, nil)
		}
		return
	}
	updated, err := h.Finance.UpdateTransaction(r.Context(), *tx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update transaction", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*updated))
}

// DeleteTransaction removes a financial transaction.
// DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Finance.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// transactionFromRequest parses and validates the canonical transaction
// schema. It writes the 400 itself only for body decode failures; other
// validation errors are returned as a message for the caller to write.
func transactionFromRequest(w http.ResponseWriter, r *http.Request, id string) (*finance.Transaction, string) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, ""
	}
	txType := finance.TxType(req.Type)
	if txType != finance.TypeCredit && txType != finance.TypeDebit {
		return nil, "type must be credit or debit"
	}
	if req.Amount <= 0 {
		return nil, "amount must be positive"
	}
	date, err := time.Parse(dayFormat, req.TransactionDate)
	if err != nil {
		return nil, "transaction_date must be YYYY-MM-DD"
	}
	return &finance.Transaction{
		ID:              id,
		Description:     req.Description,
		// Money is cent-denominated; sub-cent input is rounded at the door.
		Amount:          decimal.NewFromFloat(req.Amount).Round(2),
		Type:            txType,
		TransactionDate: date,
		CategoryID:      req.CategoryID,
	}, ""
}

// =============================================================================
// CATEGORY ENDPOINTS
// =============================================================================

// ListCategories returns all transaction categories, ordered by name.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory adds a transaction category.
// POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	c := finance.Category{ID: uuid.NewString(), Name: strings.TrimSpace(req.Name)}
	if err := h.Categories.SaveCategory(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetSummary returns the financial roll-up for an inclusive date window.
// GET /api/reports/summary?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseDateRange(w, r)
	if !ok {
		return
	}

	summary, err := h.Aggregator.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(*summary))
}

// GetSummaryByCategory returns the per-category breakdown.
// GET /api/reports/summary-by-category?start_date=...&end_date=...&expand=names
func (h *Handler) GetSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseDateRange(w, r)
	if !ok {
		return
	}
	expandNames := r.URL.Query().Get("expand") == "names"

	groups, err := h.Aggregator.SummaryByCategory(r.Context(), from, to, expandNames)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}
	dtos := make([]CategorySummaryDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toCategorySummaryDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// parseDateRange validates start_date/end_date before any store access.
// The aggregator itself does not validate inversion; this is the place.
func (h *Handler) parseDateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	startRaw := r.URL.Query().Get("start_date")
	endRaw := r.URL.Query().Get("end_date")
	if startRaw == "" || endRaw == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required", nil)
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(dayFormat, startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dayFormat, endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD", nil)
		return time.Time{}, time.Time{}, false
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// =============================================================================
// CAMPAIGN ENDPOINTS
// =============================================================================

// GetAudience previews the audience for a segment without sending.
// GET /api/campaigns/audience?segment=VIP
func (h *Handler) GetAudience(w http.ResponseWriter, r *http.Request) {
	seg, err := segment.Parse(r.URL.Query().Get("segment"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	preview, err := h.Dispatcher.Preview(r.Context(), seg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve audience", err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// SendCampaign dispatches a message to a segment in batches.
// POST /api/campaigns/send
func (h *Handler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	var req SendCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	seg, err := segment.Parse(req.Segment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required", nil)
		return
	}

	result, err := h.Dispatcher.Send(r.Context(), seg, campaign.Message{
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to dispatch campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// PROMOTION CATALOG ENDPOINTS
// =============================================================================

// ListPromotions returns the promotions catalog, newest first.
// GET /api/promotions
func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.Promotions.ListPromotions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list promotions", err)
		return
	}
	dtos := make([]PromotionDTO, len(promos))
	for i, p := range promos {
		dtos[i] = toPromotionDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePromotion adds a promotion to the catalog.
// POST /api/promotions
func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "title and description are required", nil)
		return
	}
	promoType, err := campaign.ParsePromotionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	start, errMsg := parseOptionalDay(req.StartDate, "start_date")
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, nil)
		return
	}
	end, errMsg := parseOptionalDay(req.EndDate, "end_date")
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, nil)
		return
	}
	if start != nil && end != nil && start.After(*end) {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date", nil)
		return
	}

	now := time.Now().UTC()
	p := campaign.Promotion{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        promoType,
		Active:      true,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.Promotions.SavePromotion(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create promotion", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromotionDTO(p))
}

// GetPromotion returns one promotion.
// GET /api/promotions/{id}
func (h *Handler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	p, err := h.Promotions.GetPromotion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get promotion", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Promotion not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPromotionDTO(*p))
}

// UpdatePromotion applies a partial patch.
// PUT /api/promotions/{id}
func (h *Handler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	var req UpdatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := campaign.PromotionPatch{
		Description: req.Description,
		Active:      req.Active,
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			writeError(w, http.StatusBadRequest, "title must not be empty", nil)
			return
		}
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.Type != nil {
		promoType, err := campaign.ParsePromotionType(*req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		patch.Type = &promoType
	}
	if req.StartDate != nil {
		d, errMsg := parseOptionalDay(*req.StartDate, "start_date")
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg, nil)
			return
		}
		patch.StartDate = d
	}
	if req.EndDate != nil {
		d, errMsg := parseOptionalDay(*req.EndDate, "end_date")
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg, nil)
			return
		}
		patch.EndDate = d
	}
	if patch.StartDate != nil && patch.EndDate != nil && patch.StartDate.After(*patch.EndDate) {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date", nil)
		return
	}

	p, err := h.Promotions.UpdatePromotion(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update promotion", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Promotion not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPromotionDTO(*p))
}

// DeletePromotion removes a promotion from the catalog.
// DELETE /api/promotions/{id}
func (h *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	err := h.Promotions.DeletePromotion(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrPromotionNotFound) {
		writeError(w, http.StatusNotFound, "Promotion not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete promotion", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func parseOptionalDay(raw, field string) (*time.Time, string) {
	if raw == "" {
		return nil, ""
	}
	d, err := time.Parse(dayFormat, raw)
	if err != nil {
		return nil, field + " must be YYYY-MM-DD"
	}
	return &d, ""
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps loyalty errors onto HTTP statuses. Unknown
// errors are store failures and surface as 500 with a log line; client
// errors carry enough detail to render a specific message.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *loyalty.InsufficientBalanceError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Insufficient balance",
			Code:  "insufficient_balance",
			Details: map[string]int{
				"available": insufficient.Available,
				"required":  insufficient.Required,
			},
		})
	case loyalty.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case loyalty.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		if h.Log != nil {
			h.Log.WithError(err).Error("request failed")
		}
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
