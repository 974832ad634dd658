// Package core defines the capability set every file connector offers the
// job layer and the lifecycle its configuration goes through.
package core

import (
	"context"
	"sync"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// Role tells readers and writers apart.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
)

// State is the configuration lifecycle of a connector.
type State string

const (
	StateUnvalidated State = "UNVALIDATED"
	StateValidating  State = "VALIDATING"
	StateValid       State = "VALID"
	StateInvalid     State = "INVALID"
)

// TableFilter selects the tables a job wants sub-tasks for.
type TableFilter func(table string) bool

// AllTables accepts every table.
func AllTables(string) bool { return true }

// Descriptor is the part shared by readers and writers.
type Descriptor interface {
	// Name returns the connector instance name.
	Name() string
	// Role returns whether the descriptor reads or writes.
	Role() Role
	// State returns the current lifecycle state.
	State() State
	// Validate checks the configuration, leaving the descriptor VALID or
	// INVALID. Field problems are returned together as *errors.FieldErrors.
	Validate(ctx context.Context) error
}

// Reader exposes the schema and the read sub-tasks of a source.
type Reader interface {
	Descriptor
	// SelectedSchema returns the parsed column specification.
	SelectedSchema() (*schema.TableSchema, error)
	// SubTasks enumerates the remote roots and returns one context per
	// file. Every call enumerates again.
	SubTasks(ctx context.Context, filter TableFilter) (*partition.Iterator, error)
}

// Writer exposes the write plan of a target.
type Writer interface {
	Descriptor
	// SubTask returns the plan writing mapping, manifest pre-task included
	// when configured.
	SubTask(mapping partition.TableMapping) (*partition.WritePlan, error)
}

// Lifecycle tracks the validation state machine. The zero value is
// UNVALIDATED and ready to use.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
	err   error
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state == "" {
		return StateUnvalidated
	}
	return l.state
}

// Err returns the error of the last failed validation.
func (l *Lifecycle) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Begin enters VALIDATING. Only one validation may run at a time.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateValidating {
		return errors.New(errors.ErrorTypeValidation, "validation already in progress")
	}
	l.state = StateValidating
	l.err = nil
	return nil
}

// Finish leaves VALIDATING for VALID when err is nil, INVALID otherwise.
func (l *Lifecycle) Finish(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = StateInvalid
		l.err = err
		return
	}
	l.state = StateValid
	l.err = nil
}

// RequireValid returns an error unless the state is VALID.
func (l *Lifecycle) RequireValid() error {
	if state := l.State(); state != StateValid {
		return errors.Newf(errors.ErrorTypeValidation, "connector is %s, validate it first", state).
			WithDetail("state", string(state))
	}
	return nil
}
