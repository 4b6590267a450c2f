// Package session owns the transaction collection accumulated between a
// fresh upload and a reset. Session values are immutable snapshots: every
// mutation returns a new value and the caller swaps it in wholesale, so
// there is no in-place cell mutation to lock around. Callers must not apply
// two merges derived from the same prior snapshot, or one will silently
// clobber the other's base state.
package session

import (
	"github.com/google/uuid"

	"github.com/finlens/ledgerscan/internal/model"
)

// Session is the in-memory state for one upload session.
type Session struct {
	ID             string                    `json:"id"`
	Transactions   []model.TransactionRecord `json:"transactions"`
	BankName       *string                   `json:"bankName"`
	Period         *string                   `json:"period"`
	FilesProcessed int                       `json:"filesProcessed"`
}

// New creates an empty session.
func New() Session {
	return Session{ID: uuid.NewString()}
}

// Merge appends one extraction batch: existing records first, then the
// batch in extraction order. Metadata is first-wins; a later batch never
// overrides a bankName or period that is already set.
func (s Session) Merge(batch *model.ExtractionResult) Session {
	next := s
	next.Transactions = make([]model.TransactionRecord, 0, len(s.Transactions)+len(batch.Transactions))
	next.Transactions = append(next.Transactions, s.Transactions...)
	next.Transactions = append(next.Transactions, batch.Transactions...)
	if next.BankName == nil {
		next.BankName = batch.BankName
	}
	if next.Period == nil {
		next.Period = batch.Period
	}
	return next
}

// Update applies a partial edit to the record with the given ID. Reports
// false when no record matches.
func (s Session) Update(id string, patch model.TransactionUpdate) (Session, bool) {
	next := s
	next.Transactions = append([]model.TransactionRecord(nil), s.Transactions...)
	for i := range next.Transactions {
		if next.Transactions[i].ID != id {
			continue
		}
		applyUpdate(&next.Transactions[i], patch)
		return next, true
	}
	return s, false
}

// Delete removes the record with the given ID.
func (s Session) Delete(id string) (Session, bool) {
	next := s
	next.Transactions = make([]model.TransactionRecord, 0, len(s.Transactions))
	found := false
	for _, t := range s.Transactions {
		if t.ID == id {
			found = true
			continue
		}
		next.Transactions = append(next.Transactions, t)
	}
	if !found {
		return s, false
	}
	return next, true
}

// Reset clears everything but the session identity.
func (s Session) Reset() Session {
	return Session{ID: s.ID}
}

func applyUpdate(rec *model.TransactionRecord, patch model.TransactionUpdate) {
	if patch.Date != nil {
		rec.Date = *patch.Date
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Debit != nil {
		rec.Debit = patch.Debit
	}
	if patch.Credit != nil {
		rec.Credit = patch.Credit
	}
	if patch.Balance != nil {
		rec.Balance = patch.Balance
	}
	if patch.Reference != nil {
		rec.Reference = *patch.Reference
	}
	if patch.Category != nil {
		rec.Category = *patch.Category
	}
	if patch.CostType != nil {
		rec.CostType = *patch.CostType
	}
}
