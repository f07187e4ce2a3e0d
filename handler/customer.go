package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	crm "github.com/pgalanos/crm-api"
	"github.com/pgalanos/crm-api/auth"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	service  crm.CustomerService
	log      *zap.SugaredLogger
	validate *validator.Validate
}

func NewCustomerHandler(service crm.CustomerService, log *zap.SugaredLogger) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		log:      log,
		validate: validator.New(),
	}
}

// customerRequest is the body for both create and update. Only name is
// validated server-side; email and phone formats are left to the client.
type customerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

func (cr customerRequest) input() crm.CustomerInput {
	return crm.CustomerInput{
		Name:    cr.Name,
		Email:   cr.Email,
		Phone:   cr.Phone,
		Company: cr.Company,
	}
}

func (ch CustomerHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := ch.service.List(ctx, auth.UserID(ctx))
	if err != nil {
		ch.log.Errorw("List", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"message":   "Customers retrieved successfully",
		"customers": customers,
	})
}

func (ch CustomerHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req customerRequest
	if err := decode(r, &req); err != nil {
		ch.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := ch.validate.Struct(req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, validationError(err))
		return
	}

	customer, err := ch.service.Create(ctx, auth.UserID(ctx), req.input())
	if err != nil {
		ch.log.Errorw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		return
	}

	respond(ctx, rw, http.StatusCreated, map[string]interface{}{
		"message":  "Customer created successfully",
		"customer": customer,
	})
}

func (ch CustomerHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		return
	}

	var req customerRequest
	if err := decode(r, &req); err != nil {
		ch.log.Errorw("Update", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := ch.validate.Struct(req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, validationError(err))
		return
	}

	customer, err := ch.service.Update(ctx, auth.UserID(ctx), id, req.input())
	if err != nil {
		ch.log.Errorw("Update", "error", err.Error())
		switch err {
		case crm.ErrCustomerNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		}
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"message":  "Customer updated successfully",
		"customer": customer,
	})
}

func (ch CustomerHandler) Delete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		return
	}

	if err := ch.service.Delete(ctx, auth.UserID(ctx), id); err != nil {
		ch.log.Errorw("Delete", "error", err.Error())
		switch err {
		case crm.ErrCustomerNotFound:
			respondErr(ctx, rw, http.StatusNotFound, errors.New("Customer not found"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		}
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"message": "Customer deleted successfully",
	})
}
