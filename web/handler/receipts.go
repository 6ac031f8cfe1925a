package handler

import (
	"net/http"

	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
)

func (h *Ledger) Withdraw(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	stake, err := bind.WithdrawRequest(r)
	if err != nil {
		return badRequest(err)
	}

	if err := h.ledger.WithdrawFromDelegation(stake.DelegatorID, stake.ValidatorID, stake.Amount); err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.WithdrawalResponse(stake))
}

func (h *Ledger) Transfer(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	transfer, err := bind.TransferRequest(r)
	if err != nil {
		return badRequest(err)
	}

	if err := h.ledger.TransferReceipt(transfer.From, transfer.To, transfer.Amount); err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.TransferResponse(transfer))
}

func (h *Ledger) ReceiptBalance(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	balance, err := h.ledger.GetReceiptBalance(r.PathValue("address"))
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.ReceiptBalanceResponse(balance))
}
