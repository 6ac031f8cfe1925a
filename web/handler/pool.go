package handler

import (
	"net/http"

	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
)

func (h *Ledger) Pool(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	return httpkit.JSON(bind.PoolResponse(h.ledger.GetExchangeRate()))
}

func (h *Ledger) Stats(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	stats, err := h.ledger.GetDelegationStats()
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.StatsResponse(stats))
}
