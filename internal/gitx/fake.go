package gitx

import (
	"context"
	"fmt"
)

// FakeFetcher implements Fetcher by mapping locators to existing directories.
type FakeFetcher struct {
	Calls []FetchCall

	roots map[string]string
	errs  map[string]error
}

// FetchCall records one call to FakeFetcher.Fetch.
type FetchCall struct {
	Locator string
	Ref     string
}

// NewFakeFetcher creates a new FakeFetcher.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		roots: make(map[string]string),
		errs:  make(map[string]error),
	}
}

// SetRoot makes Fetch return root for locator.
func (f *FakeFetcher) SetRoot(locator, root string) {
	f.roots[locator] = root
}

// SetError makes Fetch fail for locator.
func (f *FakeFetcher) SetError(locator string, err error) {
	f.errs[locator] = err
}

// Fetch returns the configured root for locator.
func (f *FakeFetcher) Fetch(ctx context.Context, locator, ref string) (string, error) {
	f.Calls = append(f.Calls, FetchCall{Locator: locator, Ref: ref})

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.errs[locator]; ok {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "clone", Err: err}
	}
	root, ok := f.roots[locator]
	if !ok {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "clone", Err: fmt.Errorf("unknown repository")}
	}
	return root, nil
}
