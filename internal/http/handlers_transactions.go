package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// transactionsView is the payload for transactions.html.
type transactionsView struct {
	Transactions []core.Transaction
	Filter       core.TransactionType
}

func (s *Server) handleShowAddTransaction(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "add_transaction.html", nil)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Invalid form submission.", "/add_transaction")
		return
	}

	cents, err := core.ParseDecimalToCents(r.PostFormValue("amount"))
	if err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Please enter a valid positive amount.", "/add_transaction")
		return
	}

	txType, err := core.ParseTransactionType(r.PostFormValue("transaction_type"))
	if err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Please choose income or expense.", "/add_transaction")
		return
	}

	tx := core.Transaction{
		Amount:      core.Money{Cents: cents},
		Category:    r.PostFormValue("category"),
		Description: r.PostFormValue("description"),
		Type:        txType,
	}

	if _, err := s.ledger.CreateTransaction(r.Context(), identity.UserID, tx); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			s.redirectWithFlash(w, r, auth.FlashDanger, "Please enter a valid positive amount.", "/add_transaction")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to record transaction",
			log.FieldUserID, identity.UserID, log.FieldError, err.Error())
		s.redirectWithFlash(w, r, auth.FlashDanger, "Could not save the transaction. Please try again.", "/add_transaction")
		return
	}

	s.redirectWithFlash(w, r, auth.FlashSuccess, "Transaction added successfully!", "/dashboard")
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	// "all" and an absent parameter both mean the unfiltered list.
	var filter core.TransactionType
	if raw := r.URL.Query().Get("type"); raw != "" && raw != "all" {
		parsed, err := core.ParseTransactionType(raw)
		if err != nil {
			s.redirectWithFlash(w, r, auth.FlashWarning, "Unknown transaction type filter.", "/transactions")
			return
		}
		filter = parsed
	}

	transactions, err := s.ledger.ListTransactions(r.Context(), identity.UserID, filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to list transactions",
			log.FieldUserID, identity.UserID, log.FieldError, err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "transactions.html", transactionsView{
		Transactions: transactions,
		Filter:       filter,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		s.redirectWithFlash(w, r, auth.FlashDanger, "Transaction not found.", "/dashboard")
		return
	}

	switch err := s.ledger.DeleteTransaction(r.Context(), identity.UserID, id); {
	case err == nil:
		s.redirectWithFlash(w, r, auth.FlashSuccess, "Transaction deleted.", "/dashboard")
	case errors.Is(err, core.ErrTransactionNotFound):
		s.redirectWithFlash(w, r, auth.FlashDanger, "Transaction not found.", "/dashboard")
	case errors.Is(err, core.ErrNotOwner):
		s.redirectWithFlash(w, r, auth.FlashDanger, "You cannot delete this transaction.", "/dashboard")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "failed to delete transaction",
			log.FieldUserID, identity.UserID, log.FieldTxID, id, log.FieldError, err.Error())
		s.redirectWithFlash(w, r, auth.FlashDanger, "Could not delete the transaction. Please try again.", "/dashboard")
	}
}
