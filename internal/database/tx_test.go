package database

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestTxContext(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:txctx?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Run("absent", func(t *testing.T) {
		if _, ok := TxFrom(context.Background()); ok {
			t.Error("expected no transaction in a bare context")
		}
		if Conn(context.Background(), db).Statement.ConnPool != db.Statement.ConnPool {
			t.Error("expected Conn to fall back to the base handle")
		}
	})

	t.Run("nil_tx_is_ignored", func(t *testing.T) {
		ctx := WithTx(context.Background(), nil)
		if _, ok := TxFrom(ctx); ok {
			t.Error("expected nil tx not to be stored")
		}
	})

	t.Run("joins_transaction", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			ctx := WithTx(context.Background(), tx)
			got, ok := TxFrom(ctx)
			if !ok || got != tx {
				t.Error("expected stored transaction back")
			}
			if Conn(ctx, db).Statement.ConnPool != tx.Statement.ConnPool {
				t.Error("expected Conn to use the transaction")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("transaction: %v", err)
		}
	})
}

func TestConfigURL(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "app", Password: "p@ss", DBName: "audit", SSLMode: "disable"}
	want := "postgres://app:p%40ss@db:5432/audit?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
