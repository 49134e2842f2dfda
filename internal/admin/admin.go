// Package admin implements the operator command line: password hashing,
// schema migration and account bootstrap against the configured store.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/cryptox"
	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/dmitrijs2005/channelauth/internal/server/config"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/channelauth/internal/server/services"
	"golang.org/x/term"
)

const usage = `usage: admin <command> [flags]

commands:
  hash                      read a password and print its stored hash
  migrate                   apply database migrations
  create-user -username U -email E -fullname N -avatar A [-cover C]
                            create an account; the password is read from stdin

Storage settings come from the CHANNELAUTH_* environment.`

var ErrUsage = errors.New("invalid usage")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type App struct {
	in      *bufio.Reader
	stdin   io.Reader
	out     io.Writer
	environ map[string]string
}

// NewApp builds an App reading from in and writing to out. A nil environ
// reads the process environment.
func NewApp(in io.Reader, out io.Writer, environ map[string]string) *App {
	return &App{in: bufio.NewReader(in), stdin: in, out: out, environ: environ}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}

	switch args[0] {
	case "hash":
		return a.hash()
	case "migrate":
		return a.migrate(ctx)
	case "create-user":
		return a.createUser(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	}
	fmt.Fprintf(a.out, "unknown command %q\n%s\n", args[0], usage)
	return ErrUsage
}

// password prompts on a terminal without echo; otherwise it reads one line,
// so the value can be piped in.
func (a *App) password() ([]byte, error) {
	if f, ok := a.stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, "Enter password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return nil, err
		}
		return pw, nil
	}

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func (a *App) hash() error {
	pw, err := a.password()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return errors.New("password must not be empty")
	}

	h, err := cryptox.HashPassword(string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, h)
	return nil
}

func (a *App) open(ctx context.Context) (*config.Config, repomanager.RepositoryManager, io.Closer, error) {
	cfg, err := config.Load(nil, a.environ)
	if err != nil {
		return nil, nil, nil, err
	}
	m, closer, err := repomanager.Open(cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = closer.Close()
		return nil, nil, nil, err
	}
	return cfg, m, closer, nil
}

func (a *App) migrate(ctx context.Context) error {
	_, _, closer, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	var in services.RegisterInput
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&in.UserName, "username", "", "username")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.FullName, "fullname", "", "full name")
	fs.StringVar(&in.Avatar, "avatar", "", "avatar reference")
	fs.StringVar(&in.CoverImage, "cover", "", "cover image reference")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	pw, err := a.password()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	in.Password = string(pw)

	cfg, m, closer, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	})
	if err != nil {
		return err
	}

	sessions := services.NewSessionService(m, tokens, cfg.StoreTimeout, logging.Nop{})
	user, err := sessions.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s (%s)\n", user.UserName, user.ID)
	return nil
}
