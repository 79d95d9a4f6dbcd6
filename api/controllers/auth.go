package controllers

import (
	"net"
	"net/http"

	"github.com/mfigueroa/retailhub-backend/api/middleware"
	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/api/validators"
	"github.com/mfigueroa/retailhub-backend/internal/auth"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Kind     int    `json:"kind"`

	Gender         string `json:"gender,omitempty"`
	Age            int    `json:"age,omitempty"`
	MarriageStatus int    `json:"marriage_status,omitempty"`
	Income         int64  `json:"income,omitempty"`

	CompanyName string `json:"company_name,omitempty"`
	Category    string `json:"category,omitempty"`
	GrossIncome int64  `json:"gross_income,omitempty"`
}

// AuthRegister opens a customer account.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), auth.RegisterInput{
			Name:           body.Name,
			Email:          body.Email,
			Password:       body.Password,
			Kind:           body.Kind,
			IP:             clientIP(r),
			Gender:         body.Gender,
			Age:            body.Age,
			MarriageStatus: body.MarriageStatus,
			Income:         body.Income,
			CompanyName:    body.CompanyName,
			Category:       body.Category,
			GrossIncome:    body.GrossIncome,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthLogin exchanges credentials for a bearer token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginInput{
			Email:    body.Email,
			Password: body.Password,
			IP:       clientIP(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthProfile returns the caller's own profile.
func AuthProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		if accountID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		profile, err := svc.Profile(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

type updateProfileRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8"`
	CurrentPassword *string `json:"current_password,omitempty"`

	Gender         *string `json:"gender,omitempty"`
	Age            *int    `json:"age,omitempty"`
	MarriageStatus *int    `json:"marriage_status,omitempty"`
	Income         *int64  `json:"income,omitempty"`

	CompanyName *string `json:"company_name,omitempty"`
	Category    *string `json:"category,omitempty"`
	GrossIncome *int64  `json:"gross_income,omitempty"`
}

// AuthUpdateProfile applies self-service profile mutations.
func AuthUpdateProfile(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		if accountID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.UpdateProfile(r.Context(), accountID, auth.UpdateProfileInput{
			Name:            body.Name,
			Email:           body.Email,
			Password:        body.Password,
			CurrentPassword: body.CurrentPassword,
			Gender:          body.Gender,
			Age:             body.Age,
			MarriageStatus:  body.MarriageStatus,
			Income:          body.Income,
			CompanyName:     body.CompanyName,
			Category:        body.Category,
			GrossIncome:     body.GrossIncome,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
