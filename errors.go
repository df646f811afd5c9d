package prestatic

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindOutsideRoot
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindOutsideRoot:
		return "outside-root"
	}
	return "internal"
}

var ErrOutsideRoot = errors.New("path escapes from root")

// AssetError is returned by every filesystem step of the core. Hosts dispatch on Kind.
type AssetError struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// KindOf returns KindInternal for errors not produced by the core.
func KindOf(err error) ErrorKind {
	var ae *AssetError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
