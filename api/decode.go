package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/errs"
)

const maxBodySize int64 = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// body ids follow the same rule as path ids, so upper case is accepted
	if err := v.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// decodeBody reads a JSON body of at most maxBodySize bytes into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return errs.NewMaxBodySizeExceededError(maxBodySize)
		}
		if errors.Is(err, io.EOF) {
			return errs.NewMalformedPayloadError("empty", err)
		}
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

// validateStruct turns the first failed constraint into a field error
func validateStruct(src any) error {
	err := validate.Struct(src)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return errs.NewValidationError(fieldPath(fe), fe.Tag(), fe.Param())
	}
	return errs.NewBadRequestError(err.Error())
}

// fieldPath drops the root struct name, e.g. createProjectRequest.features[0].text
func fieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return fe.Field()
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeBody(w, r, dst); err != nil {
		return err
	}
	return validateStruct(dst)
}

// uuidParam parses a UUID path parameter
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewInvalidFieldError(name, "must be a valid UUID")
	}
	return id, nil
}

// parseUUIDs converts already validated UUID strings
func parseUUIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, uuid.MustParse(s))
	}
	return ids
}

// searchQuery returns the q parameter, which must be present
func searchQuery(r *http.Request) (string, error) {
	q := r.URL.Query().Get("q")
	if q == "" {
		return "", errs.NewMissingRequiredFieldError("q")
	}
	return q, nil
}

// boolQuery parses an optional boolean query parameter
func boolQuery(r *http.Request, name string, defaultValue bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errs.NewInvalidFieldError(name, "must be true or false")
	}
	return value, nil
}
