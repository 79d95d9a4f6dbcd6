package controllers

import (
	"net/http"

	"github.com/mfigueroa/retailhub-backend/api/middleware"
	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/api/validators"
	"github.com/mfigueroa/retailhub-backend/internal/customers"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// CustomerList returns the customers visible to the caller's scope.
func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		kind, err := validators.ParseQueryOptionalInt(r, "kind")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		result, err := svc.List(r.Context(), fact, customers.ListInput{
			Kind:   kind,
			Search: r.URL.Query().Get("search"),
			Page:   page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func CustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		customerID, err := validators.PathInt64(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		customer, err := svc.Get(r.Context(), fact, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

type updateCustomerRequest struct {
	Address *addressPayload `json:"address,omitempty"`

	Gender         *string `json:"gender,omitempty"`
	Age            *int    `json:"age,omitempty"`
	MarriageStatus *int    `json:"marriage_status,omitempty"`
	Income         *int64  `json:"income,omitempty"`

	CompanyName *string `json:"company_name,omitempty"`
	Category    *string `json:"category,omitempty"`
	GrossIncome *int64  `json:"gross_income,omitempty"`

	SalesID    *int64 `json:"sales_id,omitempty"`
	ClearSales bool   `json:"clear_sales,omitempty"`
}

// CustomerUpdate applies staff edits to a customer record, including the
// sales assignment.
func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		customerID, err := validators.PathInt64(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := customers.UpdateInput{
			Gender:         body.Gender,
			Age:            body.Age,
			MarriageStatus: body.MarriageStatus,
			Income:         body.Income,
			CompanyName:    body.CompanyName,
			Category:       body.Category,
			GrossIncome:    body.GrossIncome,
		}
		if body.Address != nil {
			input.Address = &customers.AddressInput{
				Address1: body.Address.Address1,
				Address2: body.Address.Address2,
				City:     body.Address.City,
				State:    body.Address.State,
				Zipcode:  body.Address.Zipcode,
			}
		}
		if body.ClearSales {
			input.SetSales = true
		} else if body.SalesID != nil {
			input.SetSales = true
			input.SalesID = body.SalesID
		}

		fact := middleware.FactFromContext(r.Context())
		if err := svc.Update(r.Context(), fact, customerID, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

// CustomerSalesOptions lists the salespeople the caller may assign customers
// to.
func CustomerSalesOptions(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		fact := middleware.FactFromContext(r.Context())
		refs, err := svc.SalesList(r.Context(), fact)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, refs)
	}
}
