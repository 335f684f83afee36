package registry

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"
)

type fakeResource struct {
	closed   int
	closeErr error
}

func (f *fakeResource) Close() error {
	f.closed++
	return f.closeErr
}

func TestRegisterRelease(t *testing.T) {

	r := New()
	res := &fakeResource{}

	id := r.Register("collection", res)
	AssertEqual(r.Len(), 1)

	found, ok := r.Lookup(id)
	AssertTrue(ok)
	AssertEqual(found, Resource(res))

	AssertNil(r.Release(id))
	AssertEqual(res.closed, 1)
	AssertEqual(r.Len(), 0)

	err := r.Release(id)
	AssertTrue(errors.Is(err, ErrUnknownHandle))
	AssertEqual(res.closed, 1)
}

func TestScoped(t *testing.T) {

	Alternative("scoped handle", func(a *A) {

		r := New()
		res := &fakeResource{}
		open := func(ctx context.Context) (*fakeResource, error) {
			return res, nil
		}

		a.Alternative("success", func(a *A) {
			err := Scoped(context.Background(), r, "collection", open, func(ctx context.Context, f *fakeResource) error {
				AssertEqual(r.Len(), 1)
				return nil
			})
			AssertNil(err)
			AssertEqual(r.Len(), 0)
			AssertEqual(res.closed, 1)
		})

		a.Alternative("fn fails", func(a *A) {
			expected := errors.New("boom")
			err := Scoped(context.Background(), r, "collection", open, func(ctx context.Context, f *fakeResource) error {
				return expected
			})
			AssertTrue(errors.Is(err, expected))
			AssertEqual(r.Len(), 0)
			AssertEqual(res.closed, 1)
		})

		a.Alternative("fn panics", func(a *A) {
			func() {
				defer func() {
					AssertNotNil(recover())
				}()
				Scoped(context.Background(), r, "collection", open, func(ctx context.Context, f *fakeResource) error {
					panic("unexpected")
				})
			}()
			AssertEqual(r.Len(), 0)
			AssertEqual(res.closed, 1)
		})

		a.Alternative("close fails", func(a *A) {
			res.closeErr = errors.New("close failed")
			err := Scoped(context.Background(), r, "collection", open, func(ctx context.Context, f *fakeResource) error {
				return nil
			})
			AssertTrue(errors.Is(err, res.closeErr))
		})

		a.Alternative("open fails", func(a *A) {
			err := Scoped(context.Background(), r, "collection", func(ctx context.Context) (*fakeResource, error) {
				return nil, errors.New("no such view")
			}, func(ctx context.Context, f *fakeResource) error {
				t.Fatal("fn must not run")
				return nil
			})
			AssertNotNil(err)
			AssertEqual(r.Len(), 0)
		})
	})
}

func TestCloseAll(t *testing.T) {

	r := New()
	a := &fakeResource{}
	b := &fakeResource{closeErr: errors.New("stuck")}
	r.Register("collection", a)
	r.Register("search", b)
	AssertEqual(len(r.List()), 2)

	err := r.CloseAll()
	AssertNotNil(err)
	AssertEqual(a.closed, 1)
	AssertEqual(b.closed, 1)
	AssertEqual(r.Len(), 0)
}

func TestDefault(t *testing.T) {
	AssertTrue(Default() == Default())
}
