// Package extract decodes request input into typed values and validates them.
//
// Every extractor runs in two phases. A decoding failure is a BadRequest
// carrying the decoder's diagnostic. A decoded value that violates its rules
// is an UnprocessableEntity carrying every violation. Callers receive either
// a fully valid value or an *apierror.Error, never both.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/validate"
)

// Body decodes a JSON request body into T and validates it.
func Body[T validate.Validatable](r *http.Request) (T, error) {
	var zero, v T

	if ct := r.Header.Get("Content-Type"); !isJSON(ct) {
		return zero, apierror.BadRequest("Expected request with `Content-Type: application/json`")
	}
	if r.Body == nil {
		return zero, apierror.BadRequest("Failed to parse the request body as JSON: empty body")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, apierror.BadRequest("Failed to parse the request body as JSON: empty body").WithCause(err)
		}
		return zero, bodyError(err)
	}

	// The body must hold exactly one JSON value.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing characters after JSON value")
		}
		return zero, bodyError(err)
	}

	return check(v)
}

func bodyError(err error) *apierror.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierror.BadRequest(fmt.Sprintf("Failed to buffer the request body: length limit of %d bytes exceeded", tooLarge.Limit)).WithCause(err)
	}
	return apierror.BadRequest("Failed to parse the request body as JSON: " + err.Error()).WithCause(err)
}

// Query decodes the URL query string into T and validates it.
// Keys map to fields through their json tags.
func Query[T validate.Validatable](r *http.Request) (T, error) {
	var zero, v T

	if err := decodeValues(flatten(r.URL.Query()), &v); err != nil {
		return zero, apierror.BadRequest("Failed to deserialize query string: " + err.Error()).WithCause(err)
	}
	return check(v)
}

// Path decodes the matched chi route parameters into T and validates it.
func Path[T validate.Validatable](r *http.Request) (T, error) {
	var zero, v T

	rctx := chi.RouteContext(r.Context())
	if rctx == nil || len(rctx.URLParams.Keys) == 0 {
		return zero, apierror.InternalServerError(errors.New("no path parameters found for matched route"))
	}

	// chi matches on RawPath when the URL has one, leaving params escaped.
	// Otherwise it matches on the already decoded Path.
	escaped := r.URL.RawPath != ""

	params := make(map[string]interface{}, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		value := rctx.URLParams.Values[i]
		if escaped {
			unescaped, err := url.PathUnescape(value)
			if err != nil {
				return zero, apierror.BadRequest(fmt.Sprintf("Invalid URL: cannot parse `%s`", key)).WithCause(err)
			}
			value = unescaped
		}
		params[key] = value
	}

	if err := decodeValues(params, &v); err != nil {
		return zero, apierror.BadRequest("Failed to deserialize path params: " + err.Error()).WithCause(err)
	}
	return check(v)
}

func check[T validate.Validatable](v T) (T, error) {
	if errs := validate.Check(v); errs != nil {
		var zero T
		return zero, apierror.UnprocessableEntity(errs)
	}
	return v, nil
}

func decodeValues(input map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// flatten collapses single-valued keys to plain strings.
func flatten(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			out[key] = vs[0]
			continue
		}
		out[key] = vs
	}
	return out
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || (len(mediaType) > 5 && mediaType[len(mediaType)-5:] == "+json")
}
