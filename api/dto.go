/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers. Each operation has exactly one canonical request schema;
  there is no field-alias guessing.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/loyalty"
)

// =============================================================================
// LOYALTY
// =============================================================================

// LedgerEntryDTO represents one ledger entry in API responses.
type LedgerEntryDTO struct {
	ID          string   `json:"id"`
	ClientID    string   `json:"client_id"`
	Kind        string   `json:"kind"`
	Points      int      `json:"points"`
	Amount      *float64 `json:"amount,omitempty"`
	Description string   `json:"description,omitempty"`
	RewardID    string   `json:"reward_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// EarnRequest is the canonical request to add points for a purchase.
type EarnRequest struct {
	ClientID    string  `json:"client_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// RedeemRequest is the canonical request to spend points on a reward.
type RedeemRequest struct {
	ClientID    string `json:"client_id"`
	RewardID    string `json:"reward_id"`
	Description string `json:"description,omitempty"`
}

// EarnResponseDTO is returned after a successful earn.
type EarnResponseDTO struct {
	Entry   LedgerEntryDTO `json:"entry"`
	Balance int            `json:"balance"`
}

// RedeemResponseDTO is returned after a successful redemption.
type RedeemResponseDTO struct {
	Entry   LedgerEntryDTO `json:"entry"`
	Reward  RewardDTO      `json:"reward"`
	Balance int            `json:"balance"`
}

// BalanceDTO is the derived point balance.
type BalanceDTO struct {
	ClientID string `json:"client_id"`
	Points   int    `json:"points"`
}

// =============================================================================
// REWARDS
// =============================================================================

// RewardDTO represents a catalog reward.
type RewardDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointsRequired int    `json:"points_required"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateRewardRequest is the request to create a reward.
type CreateRewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointsRequired int    `json:"points_required"`
}

// UpdateRewardRequest is a partial reward update. Absent fields are left
// unchanged.
type UpdateRewardRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	PointsRequired *int    `json:"points_required,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	EmailOptIn bool   `json:"email_opt_in"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ClientRequest is the request to create or update a client.
type ClientRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"` // YYYY-MM-DD
	EmailOptIn *bool  `json:"email_opt_in,omitempty"`
}

// =============================================================================
// FINANCE
// =============================================================================

// TransactionDTO represents a financial transaction.
type TransactionDTO struct {
	ID              string  `json:"id"`
	Description     string  `json:"description,omitempty"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	TransactionDate string  `json:"transaction_date"`
	CategoryID      string  `json:"category_id,omitempty"`
}

// TransactionRequest is the request to create or update a financial
// transaction.
type TransactionRequest struct {
	Description     string  `json:"description,omitempty"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	TransactionDate string  `json:"transaction_date"` // YYYY-MM-DD
	CategoryID      string  `json:"category_id,omitempty"`
}

// SummaryDTO is the financial roll-up over a date window.
type SummaryDTO struct {
	TotalCredit float64 `json:"total_credit"`
	TotalDebit  float64 `json:"total_debit"`
	Balance     float64 `json:"balance"`
}

// CategorySummaryDTO is one group of the by-category breakdown.
type CategorySummaryDTO struct {
	CategoryID   *string `json:"category_id"`
	CategoryName *string `json:"category_name,omitempty"`
	TotalCredit  float64 `json:"total_credit"`
	TotalDebit   float64 `json:"total_debit"`
	Balance      float64 `json:"balance"`
}

// CategoryDTO represents a transaction category.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRequest is the request to create a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

// PromotionDTO represents a stored promotion.
type PromotionDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreatePromotionRequest is the request to create a promotion. Type
// defaults to general; Active defaults to true.
type CreatePromotionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
	Active      *bool  `json:"active,omitempty"`
	StartDate   string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// UpdatePromotionRequest is a partial promotion update. Absent fields
// are left unchanged.
type UpdatePromotionRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

// SendCampaignRequest is the request to dispatch a campaign.
type SendCampaignRequest struct {
	Segment string `json:"segment"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(e loyalty.LedgerEntry) LedgerEntryDTO {
	dto := LedgerEntryDTO{
		ID:          e.ID,
		ClientID:    e.ClientID,
		Kind:        string(e.Kind),
		Points:      e.Points,
		Description: e.Description,
		RewardID:    e.RewardID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.Amount != nil {
		f, _ := e.Amount.Float64()
		dto.Amount = &f
	}
	return dto
}

func toEntryDTOs(entries []loyalty.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toRewardDTO(rw loyalty.Reward) RewardDTO {
	return RewardDTO{
		ID:             rw.ID,
		Name:           rw.Name,
		Description:    rw.Description,
		PointsRequired: rw.PointsRequired,
		Active:         rw.Active,
		CreatedAt:      rw.CreatedAt.Format(time.RFC3339),
	}
}

func toClientDTO(c loyalty.Client) ClientDTO {
	dto := ClientDTO{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		EmailOptIn: c.EmailOptIn,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
	if c.BirthDate != nil {
		dto.BirthDate = c.BirthDate.Format("2006-01-02")
	}
	return dto
}

func toTransactionDTO(tx finance.Transaction) TransactionDTO {
	amount, _ := tx.Amount.Float64()
	return TransactionDTO{
		ID:              tx.ID,
		Description:     tx.Description,
		Amount:          amount,
		Type:            string(tx.Type),
		TransactionDate: tx.TransactionDate.Format("2006-01-02"),
		CategoryID:      tx.CategoryID,
	}
}

func toCategoryDTO(c finance.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name}
}

func toPromotionDTO(p campaign.Promotion) PromotionDTO {
	dto := PromotionDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Type:        string(p.Type),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
	if p.StartDate != nil {
		dto.StartDate = p.StartDate.Format("2006-01-02")
	}
	if p.EndDate != nil {
		dto.EndDate = p.EndDate.Format("2006-01-02")
	}
	return dto
}

func toSummaryDTO(s finance.Summary) SummaryDTO {
	credit, _ := s.TotalCredit.Float64()
	debit, _ := s.TotalDebit.Float64()
	balance, _ := s.Balance.Float64()
	return SummaryDTO{TotalCredit: credit, TotalDebit: debit, Balance: balance}
}

func toCategorySummaryDTO(g finance.CategorySummary) CategorySummaryDTO {
	credit, _ := g.TotalCredit.Float64()
	debit, _ := g.TotalDebit.Float64()
	balance, _ := g.Balance.Float64()
	return CategorySummaryDTO{
		CategoryID:   g.CategoryID,
		CategoryName: g.CategoryName,
		TotalCredit:  credit,
		TotalDebit:   debit,
		Balance:      balance,
	}
}
