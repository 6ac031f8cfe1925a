package handler

import (
	"fmt"
	"net/http"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
	"github.com/screwyprof/liquidstake/web/paging"
)

func (h *Ledger) Delegate(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	stake, err := bind.DelegateRequest(r)
	if err != nil {
		return badRequest(err)
	}

	res, err := h.ledger.Delegate(stake.DelegatorID, stake.ValidatorID, stake.Amount)
	if err != nil {
		return ledgerError(err)
	}

	return created(res.Created, bind.DelegateResponse(res))
}

func (h *Ledger) GetDelegation(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	delegatorID, validatorID := r.PathValue("delegator"), r.PathValue("validator")

	d, ok := h.ledger.GetDelegation(delegatorID, validatorID)
	if !ok {
		return notFound(fmt.Errorf("%w: %s with %s", ledger.ErrNoDelegation, delegatorID, validatorID))
	}

	return httpkit.JSON(bind.DelegationResponse(d))
}

func (h *Ledger) DelegatorDelegations(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return httpkit.JSON(bind.DelegationsResponse(h.ledger.GetDelegatorDelegations(r.PathValue("id"))))
}

func (h *Ledger) DelegatorUndelegations(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	status, err := bind.StatusQuery(r)
	if err != nil {
		return badRequest(err)
	}

	p, err := bind.PaginationQuery(r)
	if err != nil {
		return badRequest(err)
	}

	requests := h.ledger.GetUndelegationRequests(r.PathValue("id"), status)
	return httpkit.JSON(bind.UndelegationsResponse(page(w, r, paging.Slice(requests, p.Page, p.PerPage))))
}
