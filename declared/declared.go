// Package declared maps annotated view structs onto the resource store, so a
// render function can state its data needs declaratively:
//
//	type widgetsView struct {
//		Widgets *[]Widget      `resource:"/api/widgets"`
//		Stats   *Stats         `resource:"/api/stats" policy:"may-be-stale"`
//		Theme   declared.DontFetch
//	}
//
//	view, err := declared.Acquire[widgetsView](store)
//
// Tagged fields must be exported pointers; policy defaults to must-be-fresh.
// Fields typed DontFetch (or tagged `resource:"-"`) are skipped. Malformed
// declarations are programming errors and panic on first use.
package declared

import (
	"fmt"
	"reflect"
	"sync"

	fetcher "github.com/hulthe/seed-fetcher"
	"github.com/hulthe/seed-fetcher/codec"
)

// DontFetch marks a field the acquire functions leave alone. Useful when a
// view struct mixes fetched resources with locally computed state.
type DontFetch struct{}

type binding struct {
	name   string
	index  []int
	res    fetcher.Resource
	policy fetcher.CachePolicy
	elem   reflect.Type
}

var (
	descCache     sync.Map // reflect.Type -> []binding
	dontFetchType = reflect.TypeOf(DontFetch{})
)

// Acquire fills a T from the store, requesting fetches per field policy.
// Every field is acquired even when an earlier one fails, so all fetches are
// dispatched in one pass; the first availability error is returned and the
// zero T accompanies it. Re-acquire when ResourceFetched messages arrive.
func Acquire[T any](s *fetcher.Store) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	var firstErr error
	for _, b := range bindingsFor(rv.Type()) {
		v, err := s.AcquireAny(b.res, b.policy, decoderFor(b.elem))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		setField(rv, b, v)
	}
	if firstErr != nil {
		var zero T
		return zero, firstErr
	}
	return out, nil
}

// AcquireNow is the read-only Acquire: no fetches are requested and the
// first unavailable field fails the whole view.
func AcquireNow[T any](s *fetcher.Store) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	for _, b := range bindingsFor(rv.Type()) {
		v, err := s.AcquireAnyNow(b.res, b.policy)
		if err != nil {
			var zero T
			return zero, err
		}
		setField(rv, b, v)
	}
	return out, nil
}

// URLs reports the resources T declares, keyed by field name.
func URLs[T any]() map[string]fetcher.Resource {
	var t T
	bs := bindingsFor(reflect.TypeOf(t))
	out := make(map[string]fetcher.Resource, len(bs))
	for _, b := range bs {
		out[b.name] = b.res
	}
	return out
}

// Has reports whether T declares res. Handy in message handlers: only
// re-render a view when the fetched resource belongs to it.
func Has[T any](res fetcher.Resource) bool {
	var t T
	for _, b := range bindingsFor(reflect.TypeOf(t)) {
		if b.res == res {
			return true
		}
	}
	return false
}

func bindingsFor(t reflect.Type) []binding {
	if v, ok := descCache.Load(t); ok {
		return v.([]binding)
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("declared: %s is not a struct", t))
	}

	bs := make([]binding, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == dontFetchType {
			continue
		}
		res, ok := f.Tag.Lookup("resource")
		if !ok {
			panic(fmt.Sprintf("declared: %s.%s needs a resource tag (or type declared.DontFetch)", t, f.Name))
		}
		if res == "-" {
			continue
		}
		if res == "" {
			panic(fmt.Sprintf("declared: %s.%s has an empty resource tag", t, f.Name))
		}
		if !f.IsExported() {
			panic(fmt.Sprintf("declared: %s.%s must be exported", t, f.Name))
		}
		if f.Type.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("declared: %s.%s must be a pointer, got %s", t, f.Name, f.Type))
		}

		policy := fetcher.MustBeFresh
		if ptag, ok := f.Tag.Lookup("policy"); ok {
			p, ok := fetcher.ParseCachePolicy(ptag)
			if !ok {
				panic(fmt.Sprintf("declared: %s.%s has unknown policy %q", t, f.Name, ptag))
			}
			policy = p
		}

		bs = append(bs, binding{
			name:   f.Name,
			index:  f.Index,
			res:    res,
			policy: policy,
			elem:   f.Type.Elem(),
		})
	}

	actual, _ := descCache.LoadOrStore(t, bs)
	return actual.([]binding)
}

// decoderFor is the runtime twin of codec.DecoderFor, for types only known
// through reflection.
func decoderFor(elem reflect.Type) codec.DecodeFunc {
	return func(ct codec.ContentType, data []byte) (any, error) {
		v := reflect.New(elem)
		if err := codec.Unmarshal(ct, data, v.Interface()); err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
}

func setField(rv reflect.Value, b binding, v any) {
	fv := rv.FieldByIndex(b.index)
	pv := reflect.ValueOf(v)
	if !pv.Type().AssignableTo(fv.Type()) {
		panic(fmt.Sprintf("fetcher: resource %q holds %T, not %s", b.res, v, fv.Type()))
	}
	fv.Set(pv)
}
