package handler

import (
	"fmt"
	"net/http"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
)

func (h *Ledger) RequestUndelegation(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	stake, err := bind.UndelegateRequest(r)
	if err != nil {
		return badRequest(err)
	}

	req, err := h.ledger.RequestUndelegate(stake.DelegatorID, stake.ValidatorID, stake.Amount)
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSONStatus(http.StatusCreated, bind.UndelegationResponse(req))
}

func (h *Ledger) GetUndelegation(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	requestID := r.PathValue("id")

	req, ok := h.ledger.GetUndelegationRequest(requestID)
	if !ok {
		return notFound(fmt.Errorf("%w: %s", ledger.ErrRequestNotFound, requestID))
	}

	return httpkit.JSON(bind.UndelegationResponse(req))
}

func (h *Ledger) CompleteUndelegation(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := h.ledger.CompleteUndelegate(r.PathValue("id"))
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.UndelegationResponse(req))
}

func (h *Ledger) CancelUndelegation(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	callerID, err := bind.CancelUndelegationRequest(r)
	if err != nil {
		return badRequest(err)
	}

	req, err := h.ledger.CancelUndelegate(r.PathValue("id"), callerID)
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.UndelegationResponse(req))
}
