package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	crm "github.com/pgalanos/crm-api"
	"github.com/pgalanos/crm-api/auth"
	"go.uber.org/zap"
)

type LeadHandler struct {
	service  crm.LeadService
	log      *zap.SugaredLogger
	validate *validator.Validate
}

func NewLeadHandler(service crm.LeadService, log *zap.SugaredLogger) *LeadHandler {
	return &LeadHandler{
		service:  service,
		log:      log,
		validate: validator.New(),
	}
}

type leadRequest struct {
	Name         string  `json:"name" validate:"required"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Status       *string `json:"status"`
	CustomerID   *int64  `json:"customerId"`
	FollowUpDate *string `json:"followUpDate"`
	Notes        *string `json:"notes"`
}

// checkLead validates the request in the order the client depends on: name
// first, then the status enum, date parsing last. The customer ownership
// check happens in the store.
func (lh LeadHandler) checkLead(req leadRequest) (status *string, followUp *time.Time, err error) {
	if err := lh.validate.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}

	if req.Status != nil {
		normalized, err := crm.NormalizeStatus(*req.Status)
		if err != nil {
			return nil, nil, errors.New("Invalid status")
		}
		status = &normalized
	}

	if req.FollowUpDate != nil && *req.FollowUpDate != "" {
		parsed, err := parseFollowUpDate(*req.FollowUpDate)
		if err != nil {
			return nil, nil, errors.New("Invalid follow-up date")
		}
		followUp = &parsed
	}

	return status, followUp, nil
}

func (lh LeadHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := lh.service.List(ctx, auth.UserID(ctx))
	if err != nil {
		lh.log.Errorw("List", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Failed to fetch leads"))
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"leads": leads,
	})
}

func (lh LeadHandler) Count(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := lh.service.Count(ctx, auth.UserID(ctx))
	if err != nil {
		lh.log.Errorw("Count", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Failed to fetch lead count"))
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"count": count,
	})
}

func (lh LeadHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req leadRequest
	if err := decode(r, &req); err != nil {
		lh.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	status, followUp, err := lh.checkLead(req)
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	nl := crm.NewLead{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       crm.StatusNew,
		CustomerID:   req.CustomerID,
		FollowUpDate: followUp,
		Notes:        req.Notes,
	}
	if status != nil {
		nl.Status = *status
	}

	lead, err := lh.service.Create(ctx, auth.UserID(ctx), nl)
	if err != nil {
		lh.log.Errorw("Create", "error", err.Error())
		switch err {
		case crm.ErrCustomerNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Failed to create lead"))
		}
		return
	}

	respond(ctx, rw, http.StatusCreated, map[string]interface{}{
		"lead": lead,
	})
}

func (lh LeadHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(ctx, rw, http.StatusNotFound, errors.New("Lead not found"))
		return
	}

	var req leadRequest
	if err := decode(r, &req); err != nil {
		lh.log.Errorw("Update", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	status, followUp, err := lh.checkLead(req)
	if err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	// An absent customerId detaches the customer and an absent followUpDate
	// clears the date; this mirrors the behavior clients already rely on.
	ul := crm.UpdateLead{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       status,
		CustomerID:   req.CustomerID,
		FollowUpDate: followUp,
		Notes:        req.Notes,
	}

	lead, err := lh.service.Update(ctx, auth.UserID(ctx), id, ul)
	if err != nil {
		lh.log.Errorw("Update", "error", err.Error())
		switch err {
		case crm.ErrCustomerNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		case crm.ErrLeadNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Lead not found"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Failed to update lead"))
		}
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"lead": lead,
	})
}

func (lh LeadHandler) Delete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(ctx, rw, http.StatusNotFound, errors.New("Lead not found"))
		return
	}

	if err := lh.service.Delete(ctx, auth.UserID(ctx), id); err != nil {
		lh.log.Errorw("Delete", "error", err.Error())
		switch err {
		case crm.ErrLeadNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Lead not found"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Failed to delete lead"))
		}
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"message": "Lead deleted successfully",
	})
}
