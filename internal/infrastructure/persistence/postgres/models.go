package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionModel is the row shape of payment_transactions. Amounts travel
// as text so no precision is lost on the way to NUMERIC.
type TransactionModel struct {
	ID                  int64
	Action              string
	PaymentMethod       string
	Amount              string
	Currency            string
	Active              bool
	Successful          bool
	Reference           string
	AccessToken         string
	EntityClass         string
	EntityIdentifier    string
	Response            []byte
	Options             []byte
	SourceTransactionID *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func toDBModel(tx *domain.PaymentTransaction) (TransactionModel, error) {
	response, err := json.Marshal(tx.Response)
	if err != nil {
		return TransactionModel{}, fmt.Errorf("encode response: %w", err)
	}
	options, err := json.Marshal(tx.Options)
	if err != nil {
		return TransactionModel{}, fmt.Errorf("encode options: %w", err)
	}

	return TransactionModel{
		ID:                  tx.ID,
		Action:              string(tx.Action),
		PaymentMethod:       tx.PaymentMethod,
		Amount:              tx.Amount.String(),
		Currency:            tx.Currency,
		Active:              tx.Active,
		Successful:          tx.Successful,
		Reference:           tx.Reference,
		AccessToken:         tx.AccessToken,
		EntityClass:         tx.EntityClass,
		EntityIdentifier:    tx.EntityIdentifier,
		Response:            response,
		Options:             options,
		SourceTransactionID: tx.SourceTransactionID,
		CreatedAt:           tx.CreatedAt,
		UpdatedAt:           tx.UpdatedAt,
	}, nil
}

func toDomainModel(m TransactionModel) (*domain.PaymentTransaction, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount of transaction %d: %w", m.ID, err)
	}

	tx := &domain.PaymentTransaction{
		ID:                  m.ID,
		Action:              domain.Action(m.Action),
		PaymentMethod:       m.PaymentMethod,
		Amount:              amount,
		Currency:            m.Currency,
		Active:              m.Active,
		Successful:          m.Successful,
		Reference:           m.Reference,
		AccessToken:         m.AccessToken,
		EntityClass:         m.EntityClass,
		EntityIdentifier:    m.EntityIdentifier,
		SourceTransactionID: m.SourceTransactionID,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}

	if len(m.Response) > 0 {
		if err := json.Unmarshal(m.Response, &tx.Response); err != nil {
			return nil, fmt.Errorf("decode response of transaction %d: %w", m.ID, err)
		}
	}
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &tx.Options); err != nil {
			return nil, fmt.Errorf("decode options of transaction %d: %w", m.ID, err)
		}
	}

	return tx, nil
}
