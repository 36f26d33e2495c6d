package odoo

import (
	"context"
	"errors"
)

// Record is a remote record as a mapping of field name to value.
type Record map[string]any

// NamePair is one (id, display name) result from name_search or name_get.
type NamePair struct {
	ID   int64
	Name string
}

// Client covers the remote model operations the upload pipeline consumes.
// Every call except Authenticate requires a prior successful Authenticate.
type Client interface {
	Authenticate(ctx context.Context) (int64, error)
	SearchRead(ctx context.Context, model string, domain []any, fields []string, limit int) ([]Record, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	NameGet(ctx context.Context, model string, ids []int64) ([]NamePair, error)
	NameSearch(ctx context.Context, model, name string, limit int) ([]NamePair, error)
	Create(ctx context.Context, model string, values Record) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values Record) (bool, error)
	Unlink(ctx context.Context, model string, ids []int64) (bool, error)
}

var (
	// ErrAuthentication is returned when the backend rejects the credentials.
	ErrAuthentication = errors.New("odoo authentication failed")
	// ErrNotAuthenticated is returned for model calls made before a
	// successful Authenticate.
	ErrNotAuthenticated = errors.New("odoo session not authenticated")
)

// AsInt64 coerces a decoded JSON value to an integer id.
func AsInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// ID returns the record's "id" field.
func (r Record) ID() (int64, bool) {
	return AsInt64(r["id"])
}

// Many2One unpacks a many2one field, which the backend serializes as an
// [id, display name] pair (or false when unset).
func (r Record) Many2One(field string) (int64, string, bool) {
	pair, ok := r[field].([]any)
	if !ok || len(pair) != 2 {
		return 0, "", false
	}
	id, ok := AsInt64(pair[0])
	if !ok {
		return 0, "", false
	}
	name, _ := pair[1].(string)
	return id, name, true
}
