// Package model defines the domain types shared by the extraction pipeline,
// the session layer and the reporting code.
package model

// TransactionRecord is one ledger entry. Records are created only by the
// normalizer after a successful extraction call; the ID is a session-unique
// recovery key used for edit and delete targeting and carries no external
// meaning.
type TransactionRecord struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"` // YYYY-MM-DD intent, or empty
	Description string   `json:"description"`
	Debit       *float64 `json:"debit"`
	Credit      *float64 `json:"credit"`
	Balance     *float64 `json:"balance,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	Category    string   `json:"category"`
	CostType    string   `json:"costType"`
}

// DebitAmount returns the debit value, treating absent as zero.
func (r TransactionRecord) DebitAmount() float64 {
	if r.Debit == nil {
		return 0
	}
	return *r.Debit
}

// CreditAmount returns the credit value, treating absent as zero.
func (r TransactionRecord) CreditAmount() float64 {
	if r.Credit == nil {
		return 0
	}
	return *r.Credit
}

// ExtractionResult is the output of one extraction call. Transactions keep
// the service output order; a successful result is never empty.
type ExtractionResult struct {
	Transactions []TransactionRecord `json:"transactions"`
	BankName     *string             `json:"bankName"`
	Period       *string             `json:"period"`
}

// TransactionUpdate is a partial edit applied to a stored record, keyed by
// ID. Nil fields are left unchanged.
type TransactionUpdate struct {
	Date        *string  `json:"date,omitempty"`
	Description *string  `json:"description,omitempty"`
	Debit       *float64 `json:"debit,omitempty"`
	Credit      *float64 `json:"credit,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
	Reference   *string  `json:"reference,omitempty"`
	Category    *string  `json:"category,omitempty"`
	CostType    *string  `json:"costType,omitempty"`
}
