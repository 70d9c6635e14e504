package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"voicebook/internal/amqp"
	"voicebook/internal/config"
	"voicebook/internal/core"
	"voicebook/internal/ledger/memory"
	"voicebook/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	got, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/x.db", AMQPURL: "amqp://localhost", AMQPExchange: "ex", AMQPQueue: "q"}
	if got != want {
		t.Errorf("FromAppConfig() = %+v, want %+v", got, want)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Errorf("Store = %T, want *memory.Store", res.Store)
	}
	if res.Notifier != nil {
		t.Error("Notifier should be nil without AMQP_URL")
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() = %v", err)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Fatalf("Store = %T, want *storage.SQLiteRepository", res.Store)
	}
	if _, err := res.Store.Insert(context.Background(), core.Record{Date: "2024-05-10", Var: core.Money{Cents: 100}}); err != nil {
		t.Errorf("Insert() = %v", err)
	}
}

func TestCreateBackend_AMQPUnavailable(t *testing.T) {
	f := &DefaultFactory{
		logger: NewFactory(nil).(*DefaultFactory).logger,
		dial: func(string, string, string) (*amqp.Client, error) {
			return nil, errors.New("connection refused")
		},
	}
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, AMQPURL: "amqp://localhost"})
	if err != nil {
		t.Fatalf("AMQP failure should not be fatal: %v", err)
	}
	if res.Notifier != nil {
		t.Error("Notifier should be nil when the broker is unreachable")
	}
}
