package controllers

import (
	"net/http"

	"github.com/mfigueroa/retailhub-backend/api/middleware"
	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/api/validators"
	"github.com/mfigueroa/retailhub-backend/internal/employees"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
)

// EmployeeList returns the staff visible to the caller's scope.
func EmployeeList(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employee service unavailable"))
			return
		}

		storeID, err := validators.ParseQueryOptionalInt64(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := employees.ListInput{
			Search: r.URL.Query().Get("search"),
			Page:   page,
		}
		if storeID != nil {
			input.StoreID = *storeID
		}

		fact := middleware.FactFromContext(r.Context())
		result, err := svc.List(r.Context(), fact, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createEmployeeRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	JobTitle      string `json:"job_title" validate:"required"`
	Salary        int64  `json:"salary" validate:"gte=0"`
	IsSalesperson bool   `json:"is_salesperson,omitempty"`
	StoreID       int64  `json:"store_id,omitempty"`
	IsManager     bool   `json:"is_manager,omitempty"`
}

// EmployeeCreate hires a staff member. Store managers hire into their own
// store; region managers pick the store and may grant the manager facet.
func EmployeeCreate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employee service unavailable"))
			return
		}

		var body createEmployeeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		employeeID, err := svc.Create(r.Context(), fact, employees.CreateInput{
			Name:          body.Name,
			Email:         body.Email,
			Password:      body.Password,
			JobTitle:      body.JobTitle,
			Salary:        body.Salary,
			IsSalesperson: body.IsSalesperson,
			StoreID:       body.StoreID,
			IsManager:     body.IsManager,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{"employee_id": employeeID})
	}
}

type updateEmployeeRequest struct {
	JobTitle *string `json:"job_title,omitempty"`
	Salary   *int64  `json:"salary,omitempty" validate:"omitempty,gte=0"`

	IsSalesperson *bool  `json:"is_salesperson,omitempty"`
	StoreID       *int64 `json:"store_id,omitempty"`
	IsManager     *bool  `json:"is_manager,omitempty"`
}

func EmployeeUpdate(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employee service unavailable"))
			return
		}

		employeeID, err := validators.PathInt64(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEmployeeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		err = svc.Update(r.Context(), fact, employeeID, employees.UpdateInput{
			JobTitle:      body.JobTitle,
			Salary:        body.Salary,
			IsSalesperson: body.IsSalesperson,
			StoreID:       body.StoreID,
			IsManager:     body.IsManager,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

func EmployeeDelete(svc employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employee service unavailable"))
			return
		}

		employeeID, err := validators.PathInt64(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		if err := svc.Delete(r.Context(), fact, employeeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
