package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func TestPostgresLedger_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	logger, _ := zap.NewDevelopment()
	l := NewPostgresLedgerFromDB(db, 0, logger)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance_cents FROM accounts").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(5000)))
	mock.ExpectExec("UPDATE accounts SET balance_cents").
		WithArgs(int64(17500), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(int64(1), int64(12500), int64(17500), "payout", "wager:42").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := l.Credit(context.Background(), 1, 12500, ReasonPayout, "wager:42")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 17500 {
		t.Errorf("expected balance 17500, got %d", balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresLedger_CreditCreatesAccountLazily(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	logger, _ := zap.NewDevelopment()
	l := NewPostgresLedgerFromDB(db, 0, logger)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance_cents FROM accounts").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"})) // no rows
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(int64(9), int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE accounts SET balance_cents").
		WithArgs(int64(100), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(int64(9), int64(100), int64(100), "refund", "wager:3").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := l.Credit(context.Background(), 9, 100, ReasonRefund, "wager:3")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 100 {
		t.Errorf("expected balance 100, got %d", balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresLedger_DebitInsufficientFundsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	logger, _ := zap.NewDevelopment()
	l := NewPostgresLedgerFromDB(db, 0, logger)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance_cents FROM accounts").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(int64(5000)))
	mock.ExpectRollback()

	balance, err := l.Debit(context.Background(), 1, 10000, ReasonStake, "wager:1")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if balance != 5000 {
		t.Errorf("expected reported balance 5000, got %d", balance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
