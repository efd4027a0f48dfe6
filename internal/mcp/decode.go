package mcp

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/remind/internal/errors"
)

// decode copies the tool call arguments into T. Unknown argument names and
// mistyped values come back as INVALID_REQUEST naming the offending field.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, errors.NewInvalidRequest(fmt.Sprintf("arguments: %v", err))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return out, errors.NewInvalidRequest(
				fmt.Sprintf("argument %q: got %s, want %s", typeErr.Field, typeErr.Value, typeErr.Type))
		}
		return out, errors.NewInvalidRequest(fmt.Sprintf("arguments: %v", err))
	}
	return out, nil
}
