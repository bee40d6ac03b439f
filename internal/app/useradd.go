package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/tokenauth/password"
	"github.com/MrEthical07/tokenauth/userstore"
	"github.com/caarlos0/env/v11"
)

// UserAddConfig is the tokenauth-useradd configuration.
type UserAddConfig struct {
	DatabaseDSN string `env:"TOKENAUTH_DATABASE_DSN" envDefault:"file:tokenauth.db?cache=shared"`
	Algorithm   string `env:"TOKENAUTH_PASSWORD_ALG" envDefault:"argon2id"`
	BcryptCost  int    `env:"TOKENAUTH_BCRYPT_COST"  envDefault:"0"`

	Username string
	Update   bool
}

// ParseUserAddConfig loads the environment, then flags.
func ParseUserAddConfig(fs *flag.FlagSet, args []string) (UserAddConfig, error) {
	var cfg UserAddConfig
	if err := env.Parse(&cfg); err != nil {
		return UserAddConfig{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "sqlite DSN of the users database")
	fs.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "password hash: argon2id or bcrypt")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost (0 selects the default)")
	fs.StringVar(&cfg.Username, "username", "", "username to create")
	fs.BoolVar(&cfg.Update, "update", false, "replace the password of an existing user")
	if err := fs.Parse(args); err != nil {
		return UserAddConfig{}, err
	}

	if strings.TrimSpace(cfg.Username) == "" {
		return UserAddConfig{}, errors.New("-username is required")
	}
	return cfg, nil
}

type hasher interface {
	Hash(password string) (string, error)
}

func (c UserAddConfig) hasher() (hasher, error) {
	switch strings.ToLower(c.Algorithm) {
	case "argon2id", "argon2", "":
		return password.NewArgon2(password.DefaultArgon2Config())
	case "bcrypt":
		return password.NewBcrypt(c.BcryptCost)
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", c.Algorithm)
	}
}

// RunUserAdd reads the password from stdin, hashes it and stores the user.
func RunUserAdd(ctx context.Context, cfg UserAddConfig, stdin io.Reader, stdout io.Writer) error {
	h, err := cfg.hasher()
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	raw := strings.TrimRight(line, "\r\n")
	if raw == "" {
		return password.ErrEmptyPassword
	}

	hash, err := h.Hash(raw)
	if err != nil {
		return err
	}

	store, err := userstore.OpenSQLite(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateSchema(ctx); err != nil {
		return err
	}

	if cfg.Update {
		if err := store.UpdatePasswordHash(ctx, cfg.Username, hash); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "updated %s\n", cfg.Username)
		return nil
	}

	user, err := store.Create(ctx, cfg.Username, hash)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created %s id=%s\n", user.Username, user.ID)
	return nil
}
