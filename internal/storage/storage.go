// Package storage is the durable key-value persistence adapter. Each
// collection of the tracker lives under its own key as a JSON document.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Key names one persisted collection.
type Key string

const (
	KeyTransactions Key = "transactions"
	KeyBudgets      Key = "budgets"
	KeyGoals        Key = "goals"
	KeySettings     Key = "settings"
	KeyCategories   Key = "categories"
)

// DefaultPrefix namespaces keys so several applications can share a store.
const DefaultPrefix = "financeTrackerPro_"

// Keys lists every collection key in load order.
var Keys = []Key{KeyTransactions, KeyBudgets, KeyGoals, KeySettings, KeyCategories}

// ErrStorage matches every *Error through errors.Is.
var ErrStorage = errors.New("storage failure")

// Error reports a failed read or write of one key.
type Error struct {
	Op  string
	Key Key
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrStorage }

// KV is a synchronous durable key-value store. Get reports found=false for
// absent keys; callers substitute built-in defaults.
type KV interface {
	Get(ctx context.Context, key Key) (value []byte, found bool, err error)
	Set(ctx context.Context, key Key, value []byte) error
	Close() error
}

func prefixed(prefix string, key Key) string {
	return prefix + string(key)
}
