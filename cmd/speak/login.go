package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vango-go/vai-speak/pkg/auth"
	"github.com/vango-go/vai-speak/pkg/config"
)

// credentials holds what the login and register prompts collected.
type credentials struct {
	email    string
	fullName string
	password string
}

// promptCredentials reads the email (unless given by flag), the full name
// when askName is set, and the password. readPassword is used for the
// password when non-nil; otherwise it is read as a plain line from reader.
func promptCredentials(reader *bufio.Reader, out io.Writer, email string, askName bool, readPassword func() (string, error)) (credentials, error) {
	creds := credentials{email: strings.TrimSpace(email)}
	if creds.email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := readLine(reader)
		if err != nil {
			return creds, fmt.Errorf("read email: %w", err)
		}
		creds.email = strings.TrimSpace(line)
	}
	if creds.email == "" {
		return creds, errors.New("email is required")
	}
	if askName {
		fmt.Fprint(out, "Full name: ")
		line, err := readLine(reader)
		if err != nil {
			return creds, fmt.Errorf("read full name: %w", err)
		}
		creds.fullName = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	var err error
	if readPassword != nil {
		creds.password, err = readPassword()
	} else {
		creds.password, err = readLine(reader)
	}
	if err != nil {
		return creds, fmt.Errorf("read password: %w", err)
	}
	if creds.password == "" {
		return creds, errors.New("password is required")
	}
	return creds, nil
}

// runLogin exchanges email and password for an access token and stores it
// in the credential file.
func runLogin(ctx context.Context, cfg *config.Config, args []string, in io.Reader, out io.Writer, readPassword func() (string, error)) error {
	fs := flag.NewFlagSet("speak login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds, err := promptCredentials(bufio.NewReader(in), out, *email, false, readPassword)
	if err != nil {
		return err
	}
	return login(ctx, cfg, creds, out)
}

// runRegister creates an account and then logs in with it.
func runRegister(ctx context.Context, cfg *config.Config, args []string, in io.Reader, out io.Writer, readPassword func() (string, error)) error {
	fs := flag.NewFlagSet("speak register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	creds, err := promptCredentials(bufio.NewReader(in), out, *email, true, readPassword)
	if err != nil {
		return err
	}
	client := &auth.Client{BaseURL: cfg.AuthBaseURL}
	if _, err := client.Register(ctx, creds.email, creds.password, creds.fullName); err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	fmt.Fprintf(out, "Registered %s.\n", creds.email)
	return login(ctx, cfg, creds, out)
}

func login(ctx context.Context, cfg *config.Config, creds credentials, out io.Writer) error {
	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}
	client := &auth.Client{BaseURL: cfg.AuthBaseURL}
	resp, err := client.Login(ctx, creds.email, creds.password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := store.Save(resp.AccessToken); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in. Token saved to %s\n", store.Path)
	return nil
}

// runWhoami checks the stored token against the auth service. A token the
// service rejects is removed so the next run starts logged out.
func runWhoami(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}
	token, err := store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(out, "Not logged in. Run `speak login`.")
		return nil
	}

	client := &auth.Client{BaseURL: cfg.AuthBaseURL}
	user, err := client.Me(ctx, token)
	if auth.IsUnauthorized(err) {
		if cerr := store.Clear(); cerr != nil {
			return cerr
		}
		fmt.Fprintln(out, "Stored token was rejected and has been removed. Run `speak login`.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("whoami failed: %w", err)
	}
	if user.FullName != "" {
		fmt.Fprintf(out, "%s <%s>\n", user.FullName, user.Email)
	} else {
		fmt.Fprintln(out, user.Email)
	}
	return nil
}

func runLogout(cfg *config.Config, out io.Writer) error {
	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func tokenStore(cfg *config.Config) (*auth.FileStore, error) {
	path := strings.TrimSpace(cfg.TokenFile)
	if path == "" {
		p, err := auth.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return auth.NewFileStore(path), nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalPassword returns a no-echo password reader when stdin is a
// terminal, and nil otherwise.
func terminalPassword(out io.Writer) func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
