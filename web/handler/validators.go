package handler

import (
	"fmt"
	"net/http"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/httpkit"
	"github.com/screwyprof/liquidstake/web/handler/bind"
	"github.com/screwyprof/liquidstake/web/paging"
)

func (h *Ledger) RegisterValidator(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	validatorID, params, err := bind.RegisterValidatorRequest(r)
	if err != nil {
		return badRequest(err)
	}

	_, existed := h.ledger.GetProfile(validatorID)

	profile, err := h.ledger.RegisterOrUpdate(validatorID, params)
	if err != nil {
		return ledgerError(err)
	}

	return created(!existed, bind.ValidatorResponse(profile))
}

func (h *Ledger) ListValidators(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	p, err := bind.PaginationQuery(r)
	if err != nil {
		return badRequest(err)
	}

	profiles := page(w, r, paging.Slice(h.ledger.GetAllProfiles(), p.Page, p.PerPage))
	return httpkit.JSON(bind.ValidatorsResponse(profiles))
}

func (h *Ledger) TopValidators(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	limit, err := bind.LimitQuery(r)
	if err != nil {
		return badRequest(err)
	}

	return httpkit.JSON(bind.ValidatorsResponse(h.ledger.GetTopValidatorsByDelegation(limit)))
}

func (h *Ledger) GetValidator(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	validatorID := r.PathValue("id")

	profile, ok := h.ledger.GetProfile(validatorID)
	if !ok {
		return notFound(fmt.Errorf("%w: %s", ledger.ErrUnknownValidator, validatorID))
	}

	return httpkit.JSON(bind.ValidatorResponse(profile))
}

func (h *Ledger) ValidatorDelegators(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	validatorID := r.PathValue("id")

	if _, ok := h.ledger.GetProfile(validatorID); !ok {
		return notFound(fmt.Errorf("%w: %s", ledger.ErrUnknownValidator, validatorID))
	}

	p, err := bind.PaginationQuery(r)
	if err != nil {
		return badRequest(err)
	}

	ids := page(w, r, paging.Slice(h.ledger.GetValidatorDelegators(validatorID), p.Page, p.PerPage))
	return httpkit.JSON(bind.DelegatorsResponse(ids))
}
