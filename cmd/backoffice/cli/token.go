package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/monstter/backoffice/internal/auth"
	"github.com/monstter/backoffice/internal/shared"
)

// TokenOptions configures a locally issued development token.
type TokenOptions struct {
	UserID int64
	Email  string
	Role   string
	TTL    time.Duration
}

// ParseTokenFlags reads `token` subcommand flags.
func ParseTokenFlags(args []string, stderr io.Writer) (TokenOptions, error) {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts TokenOptions
	fs.Int64Var(&opts.UserID, "user", 0, "user id placed in the sub claim")
	fs.StringVar(&opts.Email, "email", "", "email claim")
	fs.StringVar(&opts.Role, "role", string(shared.RoleAdmin), "role claim: admin, manager, partner or user")
	fs.DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return TokenOptions{}, err
	}
	if opts.UserID <= 0 {
		return TokenOptions{}, errors.New("token: -user must be positive")
	}
	if opts.TTL <= 0 {
		return TokenOptions{}, errors.New("token: -ttl must be positive")
	}
	return opts, nil
}

// IssueToken signs a token with the API secret and writes it to out.
func IssueToken(secret string, opts TokenOptions, out io.Writer) error {
	verifier, err := auth.NewVerifier(secret)
	if err != nil {
		return err
	}
	token, err := verifier.Issue(shared.Principal{
		UserID: opts.UserID,
		Email:  opts.Email,
		Role:   shared.ParseRole(opts.Role),
	}, opts.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
