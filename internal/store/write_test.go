package store

import (
	"context"
	"errors"
	"testing"
)

func TestPut_NewRecordStartsAtVersionOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(tx *Tx) {
		v, err := tx.Put(ctx, "transaction", "t1", testEntry{Payee: "Grocer", Amount: -1250})
		if err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
		if v != 1 {
			t.Errorf("version = %d, want 1", v)
		}
	})
}

func TestPut_ReplaceBumpsVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		withTx(t, s, func(tx *Tx) {
			v, err := tx.Put(ctx, "transaction", "t1", testEntry{Payee: "Grocer", Amount: -want})
			if err != nil {
				t.Fatalf("Put() failed: %v", err)
			}
			if v != want {
				t.Errorf("version = %d, want %d", v, want)
			}
		})
	}

	withTx(t, s, func(tx *Tx) {
		rec, err := tx.Get(ctx, "transaction", "t1")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		var e testEntry
		if err := rec.Decode(&e); err != nil {
			t.Fatalf("Decode() failed: %v", err)
		}
		if e.Amount != -3 {
			t.Errorf("amount = %d, want -3 (last write wins)", e.Amount)
		}
	})
}

func TestPut_InvalidKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(tx *Tx) {
		if _, err := tx.Put(ctx, "", "t1", testEntry{}); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("empty kind: err = %v, want ErrInvalidKey", err)
		}
		if _, err := tx.Put(ctx, "transaction", "   ", testEntry{}); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("blank id: err = %v, want ErrInvalidKey", err)
		}
	})
}

func TestPut_InvalidRawPayload(t *testing.T) {
	s := createTestStore(t)

	withTx(t, s, func(tx *Tx) {
		if _, err := tx.Put(context.Background(), "transaction", "t1", []byte("{not json")); err == nil {
			t.Error("expected error for invalid raw JSON")
		}
	})
}

func TestPut_NormalizesKeys(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	withTx(t, s, func(tx *Tx) {
		if _, err := tx.Put(ctx, "budget", composed, testEntry{Amount: 5000}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
		v, err := tx.Put(ctx, "budget", decomposed, testEntry{Amount: 6000})
		if err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
		if v != 2 {
			t.Errorf("decomposed key wrote a new record (version %d), want replacement", v)
		}
	})
}

func TestPutIfVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(tx *Tx) {
		v, err := tx.PutIfVersion(ctx, "budget", "rent", testEntry{Amount: 100000}, 0)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if v != 1 {
			t.Errorf("version = %d, want 1", v)
		}

		if _, err := tx.PutIfVersion(ctx, "budget", "rent", testEntry{Amount: 1}, 0); !errors.Is(err, ErrVersionConflict) {
			t.Errorf("stale create: err = %v, want ErrVersionConflict", err)
		}

		v, err = tx.PutIfVersion(ctx, "budget", "rent", testEntry{Amount: 110000}, 1)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if v != 2 {
			t.Errorf("version = %d, want 2", v)
		}
	})
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	withTx(t, s, func(tx *Tx) {
		if _, err := tx.Put(ctx, "recurring", "rent", testEntry{Amount: -90000}); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}

		deleted, err := tx.Delete(ctx, "recurring", "rent")
		if err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if !deleted {
			t.Error("Delete() = false, want true")
		}

		deleted, err = tx.Delete(ctx, "recurring", "rent")
		if err != nil {
			t.Fatalf("second Delete() failed: %v", err)
		}
		if deleted {
			t.Error("second Delete() = true, want false")
		}
	})
}
