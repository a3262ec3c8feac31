package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"go-inventory-sales/internal/model"

	"github.com/gofiber/fiber/v2"
)

// decodeStrict decodes the JSON body into v and rejects unknown keys.
func decodeStrict(c *fiber.Ctx, v interface{}) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return model.NewValidationError("", "request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(body, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.NewValidationError("", "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(body []byte, err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Field, "items."):
		return &model.InvalidItemStructureError{
			Index:  itemIndexAt(body, typeErr.Offset),
			Reason: strings.TrimPrefix(typeErr.Field, "items.") + " has the wrong type, expected " + typeErr.Type.String(),
		}
	case errors.As(err, &typeErr):
		return model.NewValidationError(typeErr.Field, "has the wrong type, expected "+typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return model.NewValidationError("", "Invalid JSON")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return model.NewValidationError(field, "is not an accepted field")
	default:
		return model.NewValidationError("", err.Error())
	}
}

// itemIndexAt returns the position of the "items" element that spans offset,
// or -1 when offset is outside the array.
func itemIndexAt(body []byte, offset int64) int {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return -1
	}

	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return -1
		}
		if key != "items" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return -1
			}
			continue
		}

		if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
			return -1
		}
		for i := 0; dec.More(); i++ {
			var elem json.RawMessage
			if err := dec.Decode(&elem); err != nil {
				return -1
			}
			if offset <= dec.InputOffset() {
				return i
			}
		}
		return -1
	}
	return -1
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}
