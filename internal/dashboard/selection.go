package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lumethik/tablero/internal/data"
)

// ErrInvalidSelection is returned for selector values outside their lists.
var ErrInvalidSelection = errors.New("invalid selection")

// Default selector values.
const (
	DefaultArea   = "Ventas"
	DefaultPeriod = "Mensual"
)

// Selection carries the dropdown values of the indicator, sheet and talent
// views. Values are labels only and never persisted.
type Selection struct {
	Area     string `validate:"area"`
	Period   string `validate:"period"`
	Column   string `validate:"max=128"`
	Category string `validate:"omitempty,talent"`
}

var selectionValidator = newSelectionValidator()

func newSelectionValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("area", func(fl validator.FieldLevel) bool {
		return data.ValidArea(fl.Field().String())
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return data.ValidPeriod(fl.Field().String())
	})
	_ = v.RegisterValidation("talent", func(fl validator.FieldLevel) bool {
		_, ok := data.TalentCategoryLabel(fl.Field().String())
		return ok
	})
	return v
}

// ParseSelection reads area, periodo, columna and categoria from a query string,
// applying defaults for absent values.
func ParseSelection(q url.Values) (Selection, error) {
	sel := Selection{
		Area:     strings.TrimSpace(q.Get("area")),
		Period:   strings.TrimSpace(q.Get("periodo")),
		Column:   strings.TrimSpace(q.Get("columna")),
		Category: strings.TrimSpace(q.Get("categoria")),
	}
	sel = sel.withDefaults()
	if err := selectionValidator.Struct(sel); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Selection{}, fmt.Errorf("%w: %s", ErrInvalidSelection, strings.ToLower(verrs[0].Field()))
		}
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	return sel, nil
}

// Query encodes the selection back into query parameters.
func (s Selection) Query() url.Values {
	q := url.Values{}
	if s.Area != "" {
		q.Set("area", s.Area)
	}
	if s.Period != "" {
		q.Set("periodo", s.Period)
	}
	if s.Column != "" {
		q.Set("columna", s.Column)
	}
	if s.Category != "" {
		q.Set("categoria", s.Category)
	}
	return q
}

func (s Selection) withDefaults() Selection {
	if s.Area == "" {
		s.Area = DefaultArea
	}
	if s.Period == "" {
		s.Period = DefaultPeriod
	}
	return s
}
