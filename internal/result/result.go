// Package result holds the tagged outcome returned by every repository
// operation. Absence (NotFound) is a successful answer and is kept apart
// from validation, conflict and transport failures.
package result

import (
	"github.com/juju/errors"
)

// ErrConflict marks an update rejected because the row changed since it was read.
const ErrConflict = errors.ConstError("conflict")

// Kind identifies the variant of a Result.
type Kind int

const (
	Ok Kind = iota
	NotFound
	ValidationError
	TransportError
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case NotFound:
		return "not_found"
	case ValidationError:
		return "validation_error"
	case TransportError:
		return "transport_error"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Result is the outcome of a repository call.
type Result[T any] struct {
	Kind Kind
	Data *T
	Err  error
}

// Of wraps a found value.
func Of[T any](v *T) Result[T] {
	return Result[T]{Kind: Ok, Data: v}
}

// Absent reports a successful lookup that matched nothing.
func Absent[T any]() Result[T] {
	return Result[T]{Kind: NotFound}
}

// Fail classifies err into a failure variant.
func Fail[T any](err error) Result[T] {
	return Result[T]{Kind: Classify(err), Err: err}
}

// FromError returns Absent for NotFound errors and Fail otherwise.
func FromError[T any](err error) Result[T] {
	if Classify(err) == NotFound {
		return Absent[T]()
	}
	return Fail[T](err)
}

// Success is true for Ok and NotFound.
func (r Result[T]) Success() bool {
	return r.Kind == Ok || r.Kind == NotFound
}

// Found is true only when data is present.
func (r Result[T]) Found() bool {
	return r.Kind == Ok && r.Data != nil
}

// Unwrap converts the result to the (value, error) pair used by the
// hook layer. NotFound becomes (nil, nil).
func (r Result[T]) Unwrap() (*T, error) {
	if r.Success() {
		return r.Data, nil
	}
	return nil, r.Err
}

// Classify maps an error onto a Kind. nil is Ok; anything not recognised
// as not-found, validation or conflict is a transport error.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return Ok
	case errors.Is(err, errors.NotFound):
		return NotFound
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return ValidationError
	case errors.Is(err, ErrConflict), errors.Is(err, errors.AlreadyExists):
		return Conflict
	}
	return TransportError
}

// Page is a paginated list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPage fills the derived pagination fields.
func NewPage[T any](items []T, total, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
