package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/menubot/core/config"
	coredatabase "github.com/m3rciful/menubot/core/database"
)

func TestRunWithoutDatabase(t *testing.T) {
	var loggerCalls int
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { loggerCalls++; return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not be called without a database config")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if loggerCalls != 1 {
		t.Errorf("logger init calls = %d, want 1", loggerCalls)
	}
	if res.DB != nil {
		t.Error("expected no database handle")
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("refused")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "nowhere"},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, boom)
	}
}

func TestRunNilConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("Run() should reject nil config")
	}
}
