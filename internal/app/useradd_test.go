package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrEthical07/tokenauth/password"
	"github.com/MrEthical07/tokenauth/userstore"
	"golang.org/x/crypto/bcrypt"
)

func cheapHash(raw string) (string, error) {
	h, err := password.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	return h.Hash(raw)
}

func TestParseUserAddConfigRequiresUsername(t *testing.T) {
	if _, err := ParseUserAddConfig(newFlagSet(), nil); err == nil {
		t.Fatal("expected missing username to fail")
	}
}

func TestRunUserAddCreatesAndUpdates(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "users.db")

	cfg, err := ParseUserAddConfig(newFlagSet(), []string{"-db", dsn, "-alg", "bcrypt", "-bcrypt-cost", "4", "-username", "alice"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var out bytes.Buffer
	if err := RunUserAdd(context.Background(), cfg, strings.NewReader("secret123\n"), &out); err != nil {
		t.Fatalf("RunUserAdd failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "created alice id=") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := RunUserAdd(context.Background(), cfg, strings.NewReader("other\n"), &out); !errors.Is(err, userstore.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	cfg.Update = true
	if err := RunUserAdd(context.Background(), cfg, strings.NewReader("changed"), &out); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	store, err := userstore.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	user, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !password.Default().Matches("changed", user.PasswordHash) {
		t.Fatal("expected updated password to verify")
	}
}

func TestRunUserAddRejectsEmptyPassword(t *testing.T) {
	cfg := UserAddConfig{DatabaseDSN: ":memory:", Algorithm: "bcrypt", BcryptCost: 4, Username: "alice"}
	if err := RunUserAdd(context.Background(), cfg, strings.NewReader("\n"), &bytes.Buffer{}); !errors.Is(err, password.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestRunUserAddUnknownAlgorithm(t *testing.T) {
	cfg := UserAddConfig{DatabaseDSN: ":memory:", Algorithm: "md5", Username: "alice"}
	if err := RunUserAdd(context.Background(), cfg, strings.NewReader("x\n"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected unknown algorithm to fail")
	}
}
