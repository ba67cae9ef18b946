package chat

import "github.com/aeolun/clicklite/pkg/clickup"

// Result is the outcome of an asynchronous call, handed back to the session
// owner as a value
type Result[T any] struct {
	Value T
	Err   error
}

func Success[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Kind classifies the failure, KindUnknown for a success or foreign error
func (r Result[T]) Kind() clickup.ErrorKind {
	if r.Err == nil {
		return clickup.KindUnknown
	}
	return clickup.KindOf(r.Err)
}

// Ticket identifies the channel selection a request was started for.
// Results carrying an outdated ticket are discarded.
type Ticket struct {
	ChannelID  string
	Generation uint64
}

// HistoryResult is the answer to a full load or a silent refresh
type HistoryResult struct {
	Ticket   Ticket
	Messages Result[[]clickup.Message]
}

// PendingSend describes an optimistic message whose send is in flight
type PendingSend struct {
	Ticket   Ticket
	TempID   string
	Content  string
	UserID   string
	UserName string
}

// SendResult is the answer to a send
type SendResult struct {
	Pending PendingSend
	Message Result[clickup.Message]
}
