package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleMe handles GET /v1/me
//
//	@Summary		Current account
//	@Description	Returns the profile of the account the session token belongs to.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"Profile"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing session token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Account not found"
//	@Router			/v1/me [get].
func (h *AccountsHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	acct, err := h.AccountService.GetByID(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		Success: true,
		User:    toProfile(acct.Profile()),
	})
}

// HandleCreate handles POST /v1/accounts
//
//	@Summary		Register an account
//	@Description	Creates an account with no second factor. Admin only.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateAccountRequest	true	"Account details"
//	@Success		201		{object}	authsdk.CreateAccountResponse	"Created account"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing session token"
//	@Failure		403		{object}	authsdk.ErrorResponse			"Caller is not an admin"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Email already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/accounts [post].
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidation(w, errs)
		return
	}

	acct, err := h.AccountService.Register(r.Context(), domain.NewAccount{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		Phone:    req.Phone,
		Address:  req.Address,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.CreateAccountResponse{
		Success: true,
		User:    toProfile(acct.Profile()),
	})
}
