// Package crud implements a generic entity controller: a per-resource
// state container that drives list/get/create/update/partial-update/delete
// calls against a REST collection and keeps a projection of the current
// list, the focused record and the UI-facing flags.
package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// TotalCountHeader carries the collection size on list responses.
	TotalCountHeader = "X-Total-Count"

	mergePatchJSON = "application/merge-patch+json"
	contentJSON    = "application/json"

	maxErrorBody = 64 << 10
)

// Entity is a server-owned record whose identity may not be assigned yet.
type Entity interface {
	GetID() *int64
}

// Doer is the HTTP transport collaborator. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resource names one REST collection, e.g. {Name: "customer", Path: "api/customers"}.
type Resource struct {
	Name string
	Path string
}

// ListParams are the paging inputs of List. Page is zero based; Sort is a
// "field,direction" token. Without Sort the request is an unsorted fetch.
type ListParams struct {
	Page int
	Size int
	Sort string
}

type readKind int

const (
	readList readKind = iota
	readGet
)

// Controller owns the State of one resource. All methods are safe for
// concurrent use; operations issued concurrently race and, unless
// WithResponseOrdering is set, the last completion wins.
type Controller[T Entity] struct {
	res     Resource
	base    string
	doer    Doer
	log     zerolog.Logger
	now     func() time.Time
	ordered bool

	mu      sync.Mutex
	state   State[T]
	issued  [2]uint64
	applied [2]uint64
	subs    map[int]chan State[T]
	nextSub int
}

// New builds a controller for res served under baseURL.
func New[T Entity](baseURL string, res Resource, doer Doer, opts ...Option) *Controller[T] {
	s := settings{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Controller[T]{
		res:     res,
		base:    strings.TrimRight(baseURL, "/"),
		doer:    doer,
		log:     s.log.With().Str("resource", res.Name).Logger(),
		now:     s.now,
		ordered: s.ordered,
		state:   InitialState[T](),
		subs:    make(map[int]chan State[T]),
	}
}

// Resource returns the collection this controller manages.
func (c *Controller[T]) Resource() Resource { return c.res }

// State returns a snapshot of the current projection.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel receiving a snapshot after every transition.
// A slow subscriber only ever misses intermediate snapshots, never the
// latest one. cancel releases the subscription.
func (c *Controller[T]) Subscribe() (updates <-chan State[T], cancel func()) {
	ch := make(chan State[T], 16)
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Reset clears the focused record and the success flag, before a
// "create new" form is shown.
func (c *Controller[T]) Reset() {
	c.dispatch(Event[T]{Kind: Reset})
}

// List fetches one page of the collection and replaces Entities.
func (c *Controller[T]) List(ctx context.Context, p ListParams) error {
	gen := c.beginRead(readList, ListPending)
	return c.completeList(ctx, gen, p)
}

// Get fetches a single record into Entity.
func (c *Controller[T]) Get(ctx context.Context, id int64) error {
	gen := c.beginRead(readGet, GetPending)
	if id <= 0 {
		err := c.invalid("get", fmt.Errorf("%w: %d", ErrMissingID, id))
		c.finishRead(readGet, gen, Event[T]{Kind: GetRejected, Err: err})
		return err
	}

	resp, err := c.send(ctx, "get", http.MethodGet, c.itemURL(id), nil, "")
	if err != nil {
		c.finishRead(readGet, gen, Event[T]{Kind: GetRejected, Err: err})
		return err
	}
	var entity T
	if err := c.decode("get", resp, &entity); err != nil {
		c.finishRead(readGet, gen, Event[T]{Kind: GetRejected, Err: err})
		return err
	}
	c.finishRead(readGet, gen, Event[T]{Kind: GetFulfilled, Entity: entity})
	return nil
}

// Create posts draft after cleaning it; any id on the draft is ignored.
func (c *Controller[T]) Create(ctx context.Context, draft T) error {
	c.dispatch(Event[T]{Kind: WritePending})
	body, err := cleanDraft(draft)
	if err != nil {
		return c.rejectWrite(c.invalid("create", err))
	}
	return c.write(ctx, "create", http.MethodPost, c.collectionURL(), body, contentJSON)
}

// Update replaces the record identified by record's id.
func (c *Controller[T]) Update(ctx context.Context, record T) error {
	return c.writeExisting(ctx, "update", http.MethodPut, record, contentJSON)
}

// PartialUpdate sends only the fields present on record.
func (c *Controller[T]) PartialUpdate(ctx context.Context, record T) error {
	return c.writeExisting(ctx, "partial update", http.MethodPatch, record, mergePatchJSON)
}

// Delete removes the record by id and clears Entity on success.
func (c *Controller[T]) Delete(ctx context.Context, id int64) error {
	c.dispatch(Event[T]{Kind: DeletePending})
	if id <= 0 {
		err := c.invalid("delete", fmt.Errorf("%w: %d", ErrMissingID, id))
		c.dispatch(Event[T]{Kind: DeleteRejected, Err: err})
		return err
	}

	resp, err := c.send(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, "")
	if err != nil {
		c.dispatch(Event[T]{Kind: DeleteRejected, Err: err})
		return err
	}
	drain(resp)

	gen := c.beginRead(readList, ListPending)
	c.dispatchMutation(Event[T]{Kind: DeleteFulfilled})
	c.refresh(ctx, gen)
	return nil
}

func (c *Controller[T]) writeExisting(ctx context.Context, op, method string, record T, contentType string) error {
	c.dispatch(Event[T]{Kind: WritePending})
	id := record.GetID()
	if id == nil || *id <= 0 {
		return c.rejectWrite(c.invalid(op, ErrMissingID))
	}
	body, err := Clean(record)
	if err != nil {
		return c.rejectWrite(c.invalid(op, err))
	}
	return c.write(ctx, op, method, c.itemURL(*id), body, contentType)
}

func (c *Controller[T]) write(ctx context.Context, op, method, target string, body []byte, contentType string) error {
	resp, err := c.send(ctx, op, method, target, body, contentType)
	if err != nil {
		return c.rejectWrite(err)
	}
	var saved T
	if err := c.decode(op, resp, &saved); err != nil {
		return c.rejectWrite(err)
	}

	// The refresh goes pending before the write is marked fulfilled so
	// UpdateSuccess is still set once this method returns.
	gen := c.beginRead(readList, ListPending)
	c.dispatchMutation(Event[T]{Kind: WriteFulfilled, Entity: saved})
	c.refresh(ctx, gen)
	return nil
}

func (c *Controller[T]) rejectWrite(err error) error {
	c.dispatch(Event[T]{Kind: WriteRejected, Err: err})
	return err
}

// refresh re-fetches the list with default parameters after a mutation.
// Its failure is recorded in the state but does not fail the mutation.
func (c *Controller[T]) refresh(ctx context.Context, gen uint64) {
	if err := c.completeList(ctx, gen, ListParams{}); err != nil {
		c.log.Warn().Err(err).Msg("list refresh after mutation failed")
	}
}

func (c *Controller[T]) completeList(ctx context.Context, gen uint64, p ListParams) error {
	resp, err := c.send(ctx, "list", http.MethodGet, c.listURL(p), nil, "")
	if err != nil {
		c.finishRead(readList, gen, Event[T]{Kind: ListRejected, Err: err})
		return err
	}

	total, totalErr := totalCount(resp.Header.Get(TotalCountHeader))
	var items []T
	if err := c.decode("list", resp, &items); err != nil {
		c.finishRead(readList, gen, Event[T]{Kind: ListRejected, Err: err})
		return err
	}
	if totalErr != nil {
		err := &Error{Kind: MalformedResponse, Resource: c.res.Name, Op: "list", Err: totalErr}
		c.finishRead(readList, gen, Event[T]{Kind: ListRejected, Err: err})
		return err
	}
	if total < 0 {
		total = len(items)
	}
	c.finishRead(readList, gen, Event[T]{Kind: ListFulfilled, Entities: items, Total: total})
	return nil
}

// totalCount parses the header value; a missing header yields -1.
func totalCount(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s header %q", TotalCountHeader, v)
	}
	return n, nil
}

func (c *Controller[T]) dispatch(ev Event[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(ev)
}

// dispatchMutation applies a fulfilled write or delete. With response
// ordering, every Get still in flight predates the server's answer and is
// dropped when it completes.
func (c *Controller[T]) dispatchMutation(ev Event[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ordered {
		c.applied[readGet] = c.issued[readGet] + 1
	}
	c.applyLocked(ev)
}

func (c *Controller[T]) applyLocked(ev Event[T]) {
	c.state = Reduce(c.state, ev)
	c.log.Debug().Stringer("event", ev.Kind).Msg("state transition")
	if len(c.subs) == 0 {
		return
	}
	snap := c.state.clone()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (c *Controller[T]) beginRead(kind readKind, pending EventKind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[kind]++
	c.applyLocked(Event[T]{Kind: pending})
	return c.issued[kind]
}

func (c *Controller[T]) finishRead(kind readKind, gen uint64, ev Event[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ordered && gen < c.applied[kind] {
		c.log.Debug().Uint64("generation", gen).Uint64("applied", c.applied[kind]).
			Stringer("event", ev.Kind).Msg("stale response dropped")
		return
	}
	c.applied[kind] = gen
	c.applyLocked(ev)
}

func (c *Controller[T]) send(ctx context.Context, op, method, target string, body []byte, contentType string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, &Error{Kind: TransportFailure, Resource: c.res.Name, Op: op, Err: err}
	}
	req.Header.Set("Accept", contentJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Debug().Str("op", op).Str("method", method).Str("url", target).Msg("request")
	resp, err := c.doer.Do(req)
	if err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("transport failure")
		return nil, &Error{Kind: TransportFailure, Resource: c.res.Name, Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail := readDetail(resp.Body)
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("detail", detail).Msg("server failure")
		return nil, &Error{Kind: ServerFailure, Resource: c.res.Name, Op: op, Status: resp.StatusCode, Detail: detail}
	}
	return resp, nil
}

func (c *Controller[T]) decode(op string, resp *http.Response, dst any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("malformed response")
		return &Error{Kind: MalformedResponse, Resource: c.res.Name, Op: op, Err: err}
	}
	return nil
}

func (c *Controller[T]) invalid(op string, err error) error {
	return &Error{Kind: InvalidArgument, Resource: c.res.Name, Op: op, Err: err}
}

func (c *Controller[T]) collectionURL() string {
	return c.base + "/" + strings.Trim(c.res.Path, "/")
}

func (c *Controller[T]) itemURL(id int64) string {
	return c.collectionURL() + "/" + strconv.FormatInt(id, 10)
}

func (c *Controller[T]) listURL(p ListParams) string {
	q := url.Values{}
	if p.Sort != "" {
		q.Set("page", strconv.Itoa(p.Page))
		q.Set("size", strconv.Itoa(p.Size))
		q.Set("sort", p.Sort)
	}
	q.Set("cacheBuster", strconv.FormatInt(c.now().UnixMilli(), 10))
	return c.collectionURL() + "?" + q.Encode()
}

// readDetail extracts a human-readable message from an error body.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Detail  string `json:"detail"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		for _, s := range []string{envelope.Detail, envelope.Message, envelope.Title} {
			if s != "" {
				return s
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

// Message returns the text a view should show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.NotFound() {
		return "not found"
	}
	return err.Error()
}
