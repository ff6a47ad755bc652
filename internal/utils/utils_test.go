package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		addr     string
		password string
		db       int
		wantErr  bool
	}{
		{name: "full", in: "redis://default:pw@host:6379/3", addr: "host:6379", password: "pw", db: 3},
		{name: "tls no db", in: "rediss://host:6380", addr: "host:6380"},
		{name: "wrong scheme", in: "http://host:6379", wantErr: true},
		{name: "missing host", in: "redis://", wantErr: true},
		{name: "bad db", in: "redis://host:6379/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, password, db, err := ParseRedisURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr != tt.addr || password != tt.password || db != tt.db {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)", addr, password, db, tt.addr, tt.password, tt.db)
			}
		})
	}
}

func TestIsPGInvalidInput(t *testing.T) {
	invalid := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	if !IsPGInvalidInput(invalid) {
		t.Error("expected 22P02 to be detected")
	}
	if !IsPGInvalidInput(fmt.Errorf("query: %w", invalid)) {
		t.Error("expected wrapped 22P02 to be detected")
	}
	if IsPGInvalidInput(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation is not invalid input")
	}
	if IsPGInvalidInput(errors.New("boom")) || IsPGInvalidInput(nil) {
		t.Error("non-pg errors are not invalid input")
	}
}
