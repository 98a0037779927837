package backup

import "errors"

// ErrInvalidPayload indicates the import data is not a JSON object.
var ErrInvalidPayload = errors.New("invalid payload")
