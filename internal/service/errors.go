package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrReferenced is returned when deleting an entity other records still point to.
	ErrReferenced = errors.New("entity is still referenced")
)

// Error keys carried in the X-<app>-error header and the alert body.
const (
	KeyIDExists   = "idexists"
	KeyIDNull     = "idnull"
	KeyIDInvalid  = "idinvalid"
	KeyIDNotFound = "idnotfound"
)

// BadRequestError reports a broken id precondition or a dangling reference.
type BadRequestError struct {
	Entity  string
	Key     string
	Message string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Entity, e.Message, e.Key)
}

func badRequest(entity, key string) *BadRequestError {
	msg := map[string]string{
		KeyIDExists:   "A new " + entity + " cannot already have an ID",
		KeyIDNull:     "Invalid id",
		KeyIDInvalid:  "Invalid ID",
		KeyIDNotFound: "Entity not found",
	}[key]
	if msg == "" {
		msg = "Bad request"
	}
	return &BadRequestError{Entity: entity, Key: key, Message: msg}
}

// ValidationError lists fields that failed a required check the handler's
// struct tags cannot express (nested references).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}
