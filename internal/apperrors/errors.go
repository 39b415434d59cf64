package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrSplitInvalid indicates a malformed split annotation in an entry memo,
// e.g. a share above 100% or above the paid amount.
var ErrSplitInvalid = errors.New("split annotation invalid")

// ErrCursorMissing indicates that no server knowledge has been persisted yet
// for a user; a knowledge sync is required before reconciling.
var ErrCursorMissing = errors.New("server knowledge missing")

// ErrBudgetNotFound indicates that no budget with the given name exists.
var ErrBudgetNotFound = errors.New("budget not found")

// ErrAccountNotFound indicates that the shared account could not be found in
// the budget.
var ErrAccountNotFound = errors.New("account not found")
