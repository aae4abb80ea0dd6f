package crud

// State is the in-memory projection a Controller keeps for one resource.
// The zero Entity is the empty placeholder shown when nothing is focused.
type State[T any] struct {
	Entities      []T
	Entity        T
	Loading       bool
	Updating      bool
	UpdateSuccess bool
	TotalItems    int
	ErrorMessage  string
}

// InitialState is the state of a freshly constructed controller.
func InitialState[T any]() State[T] {
	return State[T]{Entities: []T{}}
}

// HasError reports whether the last operation failed.
func (s State[T]) HasError() bool { return s.ErrorMessage != "" }

func (s State[T]) clone() State[T] {
	out := s
	out.Entities = make([]T, len(s.Entities))
	copy(out.Entities, s.Entities)
	return out
}

// EventKind names a state transition.
type EventKind int

const (
	ListPending EventKind = iota + 1
	ListFulfilled
	ListRejected
	GetPending
	GetFulfilled
	GetRejected
	WritePending
	WriteFulfilled
	WriteRejected
	DeletePending
	DeleteFulfilled
	DeleteRejected
	Reset
)

var eventNames = map[EventKind]string{
	ListPending:     "list/pending",
	ListFulfilled:   "list/fulfilled",
	ListRejected:    "list/rejected",
	GetPending:      "get/pending",
	GetFulfilled:    "get/fulfilled",
	GetRejected:     "get/rejected",
	WritePending:    "write/pending",
	WriteFulfilled:  "write/fulfilled",
	WriteRejected:   "write/rejected",
	DeletePending:   "delete/pending",
	DeleteFulfilled: "delete/fulfilled",
	DeleteRejected:  "delete/rejected",
	Reset:           "reset",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event carries the payload of a transition. Only the fields relevant to
// Kind are read.
type Event[T any] struct {
	Kind     EventKind
	Entities []T
	Entity   T
	Total    int
	Err      error
}

// Reduce returns the state that follows s after ev. It never mutates s.
func Reduce[T any](s State[T], ev Event[T]) State[T] {
	var zero T
	next := s

	switch ev.Kind {
	case ListPending, GetPending:
		next.ErrorMessage = ""
		next.UpdateSuccess = false
		next.Loading = true

	case WritePending, DeletePending:
		next.ErrorMessage = ""
		next.UpdateSuccess = false
		next.Updating = true

	case ListFulfilled:
		next.Loading = false
		next.Entities = ev.Entities
		if next.Entities == nil {
			next.Entities = []T{}
		}
		next.TotalItems = ev.Total

	case GetFulfilled:
		next.Loading = false
		next.Entity = ev.Entity

	case WriteFulfilled:
		next.Updating = false
		next.Loading = false
		next.UpdateSuccess = true
		next.Entity = ev.Entity

	case DeleteFulfilled:
		next.Updating = false
		next.UpdateSuccess = true
		next.Entity = zero

	case ListRejected, GetRejected:
		next.Loading = false
		next.ErrorMessage = errorMessage(ev.Err)

	case WriteRejected, DeleteRejected:
		next.Updating = false
		next.UpdateSuccess = false
		next.ErrorMessage = errorMessage(ev.Err)

	case Reset:
		next.Entity = zero
		next.UpdateSuccess = false
	}
	return next
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
