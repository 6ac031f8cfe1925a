package bind

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/api"
	"github.com/screwyprof/liquidstake/web/paging"
)

// Default query values
const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

// Sentinel errors for request binding
var (
	ErrInvalidBody    = errors.New("invalid request body")
	ErrInvalidAmount  = errors.New("invalid amount parameter")
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")
	ErrInvalidLimit   = errors.New("invalid limit parameter")
	ErrInvalidStatus  = errors.New("invalid status parameter")

	// Specific amount validation errors
	ErrAmountEmpty      = errors.New("amount is required")
	ErrAmountNotDecimal = errors.New("amount must be a non-negative base-10 integer")
	ErrAmountTooLarge   = errors.New("amount exceeds 256 bits")

	// Specific page validation errors
	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	// Specific per_page validation errors
	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")

	// Specific limit validation errors
	ErrLimitNotNumeric  = errors.New("limit must be numeric")
	ErrLimitOutOfRange  = errors.New("limit must be between 1 and 100")
	ErrStatusNotAllowed = errors.New("status must be one of pending, completed, cancelled")
)

// Stake carries a delegator, a validator and an amount
type Stake struct {
	DelegatorID string
	ValidatorID string
	Amount      uint256.Int
}

// Transfer carries a receipt transfer
type Transfer struct {
	From   string
	To     string
	Amount uint256.Int
}

// Rewards carries a reward distribution
type Rewards struct {
	ValidatorID string
	Amount      uint256.Int
}

// Pagination carries page query parameters
type Pagination struct {
	Page    paging.Page
	PerPage paging.PerPage
}

// RegisterValidatorRequest binds POST /validators
func RegisterValidatorRequest(r *http.Request) (string, ledger.ProfileParams, error) {
	var req api.RegisterValidatorRequest
	if err := decode(r, &req); err != nil {
		return "", ledger.ProfileParams{}, err
	}

	return req.ValidatorID, ledger.ProfileParams{
		CommissionRateBps: req.CommissionRateBps,
		Description:       req.Description,
		Website:           req.Website,
	}, nil
}

// DelegateRequest binds POST /delegations
func DelegateRequest(r *http.Request) (Stake, error) {
	var req api.DelegateRequest
	if err := decode(r, &req); err != nil {
		return Stake{}, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Stake{}, err
	}

	return Stake{DelegatorID: req.DelegatorID, ValidatorID: req.ValidatorID, Amount: amount}, nil
}

// UndelegateRequest binds POST /undelegations
func UndelegateRequest(r *http.Request) (Stake, error) {
	var req api.UndelegateRequest
	if err := decode(r, &req); err != nil {
		return Stake{}, err
	}

	amount, err := parseAmount(req.ReceiptAmount)
	if err != nil {
		return Stake{}, err
	}

	return Stake{DelegatorID: req.DelegatorID, ValidatorID: req.ValidatorID, Amount: amount}, nil
}

// WithdrawRequest binds POST /withdrawals
func WithdrawRequest(r *http.Request) (Stake, error) {
	var req api.WithdrawRequest
	if err := decode(r, &req); err != nil {
		return Stake{}, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Stake{}, err
	}

	return Stake{DelegatorID: req.DelegatorID, ValidatorID: req.ValidatorID, Amount: amount}, nil
}

// CancelUndelegationRequest binds POST /undelegations/{id}/cancel and returns the caller
func CancelUndelegationRequest(r *http.Request) (string, error) {
	var req api.CancelUndelegationRequest
	if err := decode(r, &req); err != nil {
		return "", err
	}
	return req.CallerID, nil
}

// TransferRequest binds POST /transfers
func TransferRequest(r *http.Request) (Transfer, error) {
	var req api.TransferRequest
	if err := decode(r, &req); err != nil {
		return Transfer{}, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Transfer{}, err
	}

	return Transfer{From: req.From, To: req.To, Amount: amount}, nil
}

// DistributeRewardsRequest binds POST /rewards/distribute
func DistributeRewardsRequest(r *http.Request) (Rewards, error) {
	var req api.DistributeRewardsRequest
	if err := decode(r, &req); err != nil {
		return Rewards{}, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return Rewards{}, err
	}

	return Rewards{ValidatorID: req.ValidatorID, Amount: amount}, nil
}

// ClaimRewardsRequest binds POST /rewards/claim
func ClaimRewardsRequest(r *http.Request) (api.ClaimRewardsRequest, error) {
	var req api.ClaimRewardsRequest
	if err := decode(r, &req); err != nil {
		return api.ClaimRewardsRequest{}, err
	}
	return req, nil
}

// PaginationQuery binds page and per_page with defaults
func PaginationQuery(r *http.Request) (Pagination, error) {
	p := Pagination{Page: paging.DefaultPage, PerPage: paging.DefaultPerPage}

	query := r.URL.Query()

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePageNumber(pageParam)
		if err != nil {
			return p, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		p.Page = paging.ParsePage(page)
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return p, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		p.PerPage = perPage
	}

	return p, nil
}

// LimitQuery binds the limit of GET /validators/top
func LimitQuery(r *http.Request) (int, error) {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return DefaultTopLimit, nil
	}

	limit, err := strconv.Atoi(limitParam)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLimit, ErrLimitNotNumeric)
	}

	if limit < 1 || limit > MaxTopLimit {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLimit, ErrLimitOutOfRange)
	}

	return limit, nil
}

// StatusQuery binds the optional status filter. Empty means any status.
func StatusQuery(r *http.Request) (ledger.UndelegationStatus, error) {
	status := ledger.UndelegationStatus(r.URL.Query().Get("status"))
	if status == "" || status.Valid() {
		return status, nil
	}
	return "", fmt.Errorf("%w: %w", ErrInvalidStatus, ErrStatusNotAllowed)
}

func decode(r *http.Request, v any) error {
	if err := httpkit.DecodeJSON(r, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

// parseAmount validates a base-10 integer string that fits 256 bits
func parseAmount(s string) (uint256.Int, error) {
	if s == "" {
		return uint256.Int{}, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountEmpty)
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return uint256.Int{}, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountNotDecimal)
		}
	}

	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountTooLarge)
	}

	return *amount, nil
}

// parsePageNumber validates that the page parameter is a positive integer
func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}

	if page == 0 {
		return 0, ErrPageNotPositive
	}

	return page, nil
}

// parsePerPageLimit validates that the per_page parameter is within acceptable limits
func parsePerPageLimit(perPageParam string) (paging.PerPage, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}

	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}

	return paging.ParsePerPage(perPage)
}
