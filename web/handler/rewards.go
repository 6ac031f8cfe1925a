package handler

import (
	"net/http"

	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
)

func (h *Ledger) DistributeRewards(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	rewards, err := bind.DistributeRewardsRequest(r)
	if err != nil {
		return badRequest(err)
	}

	d, err := h.ledger.DistributeRewards(rewards.ValidatorID, rewards.Amount)
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.DistributionResponse(d))
}

func (h *Ledger) ClaimRewards(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.ClaimRewardsRequest(r)
	if err != nil {
		return badRequest(err)
	}

	claimed, err := h.ledger.ClaimRewards(req.DelegatorID, req.ValidatorID)
	if err != nil {
		return ledgerError(err)
	}

	return httpkit.JSON(bind.ClaimResponse(req.DelegatorID, req.ValidatorID, claimed))
}
