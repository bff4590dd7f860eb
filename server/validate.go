package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// validate is shared by all decodes. validator.Validate caches struct metadata and is safe for concurrent use.
var validate = newValidator()

// presence marks a sub-table that exists in a document, whatever its contents.
type presence struct{}

// modes records which listener sub-tables a document contains. Exactly one must be set.
type modes struct {
	HTTP  *presence `key:"http" validate:"required_without=HTTPS,excluded_with=HTTPS"`
	HTTPS *presence `key:"https" validate:"required_without=HTTP"`
}

type httpFields struct {
	TCPPort *uint16 `key:"tcp_port" validate:"required"`
}

type httpsFields struct {
	TCPPort             *uint16 `key:"tcp_port" validate:"required"`
	TCPPortHTTPRedirect *uint16 `key:"tcp_port_http_redirect"`
	UDPPort             *uint16 `key:"udp_port"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report document keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("key"), ",")
		if name == "" {
			return f.Name
		}

		return name
	})

	return v
}

// checkModes enforces that listen holds exactly one of the http and https sub-tables.
func checkModes(listen map[string]any) error {
	m := modes{}
	if _, ok := listen[modeHTTP]; ok {
		m.HTTP = &presence{}
	}
	if _, ok := listen[modeHTTPS]; ok {
		m.HTTPS = &presence{}
	}

	fieldErrs, err := structErrors(&m)
	if err != nil {
		return err
	}

	for _, e := range fieldErrs {
		if e.Tag() == "excluded_with" {
			return ErrBothModes
		}
	}

	if len(fieldErrs) > 0 {
		return ErrNoMode
	}

	return nil
}

// requireFields returns a SchemaError for every required field of s that was not present in the table at path.
func requireFields(path string, s any) error {
	fieldErrs, err := structErrors(s)
	if err != nil {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		errs = append(errs, missingField(join(path, e.Field())))
	}

	return multierr.Combine(errs...)
}

func structErrors(s any) (validator.ValidationErrors, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		return valErrs, nil
	}

	return nil, errors.Wrap(err, "validating document")
}
