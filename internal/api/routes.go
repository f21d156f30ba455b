package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/rowett/primedigitsum/internal/search"
)

// DSValue is a known ds(n)
type DSValue struct {
	N         uint32   `json:"n"`
	Radix     uint32   `json:"radix"`
	Value     uint64   `json:"value"`
	DigitSums []uint64 `json:"digitSums"`
}

// BaseSum is the digit sum of a value in one base
type BaseSum struct {
	Radix uint32 `json:"radix"`
	Sum   uint64 `json:"sum"`
	Prime bool   `json:"prime"`
}

// DigitSumReport describes a value's digit sums in bases 2..MaxRadix
type DigitSumReport struct {
	Value     uint64    `json:"value"`
	Prime     bool      `json:"prime"`
	MaxRadix  uint32    `json:"maxRadix"`
	AllPrime  bool      `json:"allPrime"`
	Qualifies bool      `json:"qualifies"`
	Sums      []BaseSum `json:"sums"`
}

// SearchResponse is a finished search and the run it was stored under
type SearchResponse struct {
	RunID string `json:"runId,omitempty"`
	search.Outcome
}

// GetDigitSumsParams defines parameters for GetDigitSums
type GetDigitSumsParams struct {
	MaxRadix *uint32 `form:"maxRadix,omitempty" json:"maxRadix,omitempty"`
}

// ServerInterface represents all server handlers
type ServerInterface interface {
	// Known ds(n) values
	// (GET /ds)
	ListKnown(w http.ResponseWriter, r *http.Request)
	// Known ds(n)
	// (GET /ds/{n})
	GetKnown(w http.ResponseWriter, r *http.Request, n uint32)
	// Digit sums of a value
	// (GET /digitsums/{value})
	GetDigitSums(w http.ResponseWriter, r *http.Request, value uint64, params GetDigitSumsParams)
	// Run a bounded search
	// (POST /search)
	RunSearch(w http.ResponseWriter, r *http.Request)
	// Prometheus metrics
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError is passed to the error handler when a parameter does not bind
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper converts requests to parameters
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// ListKnown operation middleware
func (siw *ServerInterfaceWrapper) ListKnown(w http.ResponseWriter, r *http.Request) {
	siw.Handler.ListKnown(w, r)
}

// GetKnown operation middleware
func (siw *ServerInterfaceWrapper) GetKnown(w http.ResponseWriter, r *http.Request) {
	var n uint32

	err := runtime.BindStyledParameterWithOptions("simple", "n", chi.URLParam(r, "n"), &n,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "n", Err: err})
		return
	}

	siw.Handler.GetKnown(w, r, n)
}

// GetDigitSums operation middleware
func (siw *ServerInterfaceWrapper) GetDigitSums(w http.ResponseWriter, r *http.Request) {
	var value uint64

	err := runtime.BindStyledParameterWithOptions("simple", "value", chi.URLParam(r, "value"), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "value", Err: err})
		return
	}

	var params GetDigitSumsParams

	err = runtime.BindQueryParameter("form", true, false, "maxRadix", r.URL.Query(), &params.MaxRadix)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "maxRadix", Err: err})
		return
	}

	siw.Handler.GetDigitSums(w, r, value, params)
}

// RunSearch operation middleware
func (siw *ServerInterfaceWrapper) RunSearch(w http.ResponseWriter, r *http.Request) {
	siw.Handler.RunSearch(w, r)
}

// GetMetrics operation middleware
func (siw *ServerInterfaceWrapper) GetMetrics(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetMetrics(w, r)
}

// ChiServerOptions configures HandlerWithOptions
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerFromMux creates http.Handler with routing matching the API on r
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			writeJSON(w, http.StatusBadRequest, Error{Error: err.Error()})
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/ds", wrapper.ListKnown)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/ds/{n}", wrapper.GetKnown)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/digitsums/{value}", wrapper.GetDigitSums)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/search", wrapper.RunSearch)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.GetMetrics)
	})

	return r
}
