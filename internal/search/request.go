package search

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rowett/primedigitsum/internal/digitsum"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
)

// Request describes one search: the value range and the radixes to solve
type Request struct {
	Start    uint64 `json:"start" yaml:"start" validate:"ltefield=End"`
	End      uint64 `json:"end" yaml:"end"`
	MinRadix uint32 `json:"minRadix" yaml:"minRadix" validate:"min=2,max=50"`
	MaxRadix uint32 `json:"maxRadix" yaml:"maxRadix" validate:"min=2,max=50"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request before any tables are built.
// Failures carry ErrorCodeValidation and the offending JSON field.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid search request")
	}

	fe := verrs[0]
	field := jsonField(fe.Field())
	if fe.Field() == "Start" {
		return perr.WithField(perr.Validationf("start %d must not be greater than end %d", r.Start, r.End), field)
	}
	return perr.WithField(perr.Validationf("bases must be in the range %d to %d", digitsum.MinRadix, digitsum.MaxRadix), field)
}

// jsonField lowers the first letter of a struct field name
func jsonField(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
