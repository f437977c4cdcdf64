package executor

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gallerysync/internal/common"
)

// Kind is the type of a single remote store call.
type Kind int

const (
	KindPut Kind = iota
	KindDelete
	KindDeletePrefix
)

func (k Kind) String() string {
	switch k {
	case KindPut:
		return "put"
	case KindDelete:
		return "delete"
	case KindDeletePrefix:
		return "deletePrefix"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation is one remote call to run against the object store. For
// KindDeletePrefix, Key holds the prefix.
type Operation struct {
	Kind        Kind
	Key         string
	Body        []byte
	ContentType string
	PublicRead  bool
}

func Put(key string, body []byte, contentType string, publicRead bool) Operation {
	return Operation{Kind: KindPut, Key: key, Body: body, ContentType: contentType, PublicRead: publicRead}
}

func Delete(key string) Operation {
	return Operation{Kind: KindDelete, Key: key}
}

func DeletePrefix(prefix string) Operation {
	return Operation{Kind: KindDeletePrefix, Key: prefix}
}

var errUnknownKind = errors.New("unknown operation kind")

// Result is the settled outcome of an Operation. Err is nil on success and
// a *StoreOperationError otherwise.
type Result struct {
	Operation Operation
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

// StoreOperationError describes a failed store call.
type StoreOperationError struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *StoreOperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e *StoreOperationError) Unwrap() error { return e.Err }

// BatchError is returned by Run when every operation of a non-empty batch
// failed. It matches common.ErrBatchFailed.
type BatchError struct {
	Total int
	First error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("all %d store operations failed, first: %v", e.Total, e.First)
}

func (e *BatchError) Unwrap() error { return common.ErrBatchFailed }

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
