package handler

import (
	"net/http"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/api"
	"github.com/screwyprof/liquidstake/web/paging"
)

// Routes
const (
	RegisterValidatorRoute      = http.MethodPost + " /validators"
	ListValidatorsRoute         = http.MethodGet + " /validators"
	TopValidatorsRoute          = http.MethodGet + " /validators/top"
	GetValidatorRoute           = http.MethodGet + " /validators/{id}"
	ValidatorDelegatorsRoute    = http.MethodGet + " /validators/{id}/delegators"
	DelegateRoute               = http.MethodPost + " /delegations"
	GetDelegationRoute          = http.MethodGet + " /delegations/{delegator}/{validator}"
	DelegatorDelegationsRoute   = http.MethodGet + " /delegators/{id}/delegations"
	DelegatorUndelegationsRoute = http.MethodGet + " /delegators/{id}/undelegations"
	RequestUndelegationRoute    = http.MethodPost + " /undelegations"
	GetUndelegationRoute        = http.MethodGet + " /undelegations/{id}"
	CompleteUndelegationRoute   = http.MethodPost + " /undelegations/{id}/complete"
	CancelUndelegationRoute     = http.MethodPost + " /undelegations/{id}/cancel"
	WithdrawRoute               = http.MethodPost + " /withdrawals"
	TransferRoute               = http.MethodPost + " /transfers"
	ReceiptBalanceRoute         = http.MethodGet + " /balances/{address}"
	DistributeRewardsRoute      = http.MethodPost + " /rewards/distribute"
	ClaimRewardsRoute           = http.MethodPost + " /rewards/claim"
	PoolRoute                   = http.MethodGet + " /pool"
	StatsRoute                  = http.MethodGet + " /stats"
)

// Ledger exposes ledger operations over HTTP/JSON
type Ledger struct {
	ledger *ledger.Ledger
}

func NewLedger(l *ledger.Ledger) *Ledger {
	return &Ledger{
		ledger: l,
	}
}

func (h *Ledger) AddRoutes(m *http.ServeMux) {
	routes := map[string]httpkit.HandlerFunc{
		RegisterValidatorRoute:      h.RegisterValidator,
		ListValidatorsRoute:         h.ListValidators,
		TopValidatorsRoute:          h.TopValidators,
		GetValidatorRoute:           h.GetValidator,
		ValidatorDelegatorsRoute:    h.ValidatorDelegators,
		DelegateRoute:               h.Delegate,
		GetDelegationRoute:          h.GetDelegation,
		DelegatorDelegationsRoute:   h.DelegatorDelegations,
		DelegatorUndelegationsRoute: h.DelegatorUndelegations,
		RequestUndelegationRoute:    h.RequestUndelegation,
		GetUndelegationRoute:        h.GetUndelegation,
		CompleteUndelegationRoute:   h.CompleteUndelegation,
		CancelUndelegationRoute:     h.CancelUndelegation,
		WithdrawRoute:               h.Withdraw,
		TransferRoute:               h.Transfer,
		ReceiptBalanceRoute:         h.ReceiptBalance,
		DistributeRewardsRoute:      h.DistributeRewards,
		ClaimRewardsRoute:           h.ClaimRewards,
		PoolRoute:                   h.Pool,
		StatsRoute:                  h.Stats,
	}

	for pattern, fn := range routes {
		m.Handle(pattern, fn)
	}
}

// ledgerError maps a ledger failure to its HTTP response
func ledgerError(err error) http.HandlerFunc {
	return httpkit.JsonError(api.FromLedger(err))
}

// badRequest reports a binding failure
func badRequest(err error) http.HandlerFunc {
	return httpkit.JsonError(api.BadRequest(err))
}

// notFound reports a missing entity
func notFound(err error) http.HandlerFunc {
	return httpkit.JsonError(api.NotFound(err))
}

// created answers 201 for new entities and 200 for updates
func created(isNew bool, data any) http.HandlerFunc {
	if isNew {
		return httpkit.JSONStatus(http.StatusCreated, data)
	}
	return httpkit.JSON(data)
}

// page writes a Link header for w and returns its items
func page[T any](rw http.ResponseWriter, r *http.Request, w paging.Window[T]) []T {
	if linkHeader := paging.Links(w, r.URL); linkHeader != "" {
		rw.Header().Set("Link", linkHeader)
	}
	return w.Items
}
