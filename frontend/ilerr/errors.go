package ilerr

import (
	"fmt"
	"log/slog"
	"slices"
)

type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// WithCode lists the errors carrying code, in the order they were added
func (r *Errors) WithCode(code ErrCode) []IleError {
	var found []IleError
	for _, e := range r.Errors() {
		if e.Code() == code {
			found = append(found, e)
		}
	}
	return found
}

// Sorted returns the errors ordered by source position
func (r *Errors) Sorted() []IleError {
	sorted := slices.Clone(r.Errors())
	slices.SortStableFunc(sorted, func(a, b IleError) int {
		return int(a.Pos()) - int(b.Pos())
	})
	return sorted
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
