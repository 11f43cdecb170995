package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/credvault/credvault/auth"
	"github.com/credvault/credvault/internal/vault"
	"github.com/credvault/credvault/krypto"
)

const cliVersion = "1.0.0"

const defaultVaultFile = "credvault.db"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println(cliVersion)
	case "help":
		printUsage()
	case "init":
		if err := runInit(ctx, os.Args[2:]); err != nil {
			handleError(err)
		}
	case "session":
		if err := runSession(ctx, os.Args[2:]); err != nil {
			handleError(err)
		}
	case "passwd":
		if err := runPasswd(ctx, os.Args[2:]); err != nil {
			handleError(err)
		}
	case "gen":
		if err := runGenerate(os.Args[2:]); err != nil {
			handleError(err)
		}
	case "status":
		if err := runStatus(ctx, os.Args[2:]); err != nil {
			handleError(err)
		}
	case "backup":
		if err := runBackup(ctx, os.Args[2:]); err != nil {
			handleError(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// handleError prints a message for err and exits. A failed decrypt and
// a wrong master password produce the same message on purpose: the
// difference must not be observable from the outside.
func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	switch {
	case errors.Is(err, vault.ErrInvalidCredentials), errors.Is(err, krypto.ErrAuthFailed):
		fmt.Fprintln(os.Stderr, "wrong master password or corrupted vault data")
	case errors.Is(err, vault.ErrNotInitialized):
		fmt.Fprintln(os.Stderr, "vault is not initialized; run 'credvault init' first")
	case errors.Is(err, vault.ErrAlreadyInitialized):
		fmt.Fprintln(os.Stderr, "vault is already initialized")
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, vault.ErrInvalidInput):
		fmt.Fprintln(os.Stderr, err.Error())
	default:
		fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(1)
}

// resolveVaultPath picks the vault file: the --file flag, then
// $CREDVAULT_DIR/credvault.db, then ~/.credvault/credvault.db.
func resolveVaultPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if dir := os.Getenv("CREDVAULT_DIR"); dir != "" {
		return filepath.Join(dir, defaultVaultFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".credvault", defaultVaultFile), nil
}

func openStore(flagPath string, iterations int) (*vault.Store, error) {
	path, err := resolveVaultPath(flagPath)
	if err != nil {
		return nil, err
	}
	store, err := vault.Open(vault.Config{FilePath: path, Iterations: iterations})
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	return store, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var file string
	var iterations int
	var checkBreached bool
	fs.StringVar(&file, "file", "", "vault file path")
	fs.IntVar(&iterations, "iterations", 0, "PBKDF2 iteration count")
	fs.BoolVar(&checkBreached, "check-breached", false, "reject passwords found in known breaches")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	master := passwordFromEnv()
	if master == nil {
		var err error
		master, err = promptNewPassword("Master password: ", "Confirm master password: ")
		if err != nil {
			return err
		}
	}
	defer krypto.Wipe(master)

	opts := auth.DefaultValidateOptions()
	opts.EnableHIBP = checkBreached
	if err := auth.ValidateMasterPasswordAdvanced(ctx, string(master), opts); err != nil {
		return err
	}

	store, err := openStore(file, iterations)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := store.Initialize(ctx, master)
	if err != nil {
		return err
	}
	session.Lock()

	fmt.Printf("vault initialized at %s\n", store.Path())
	return nil
}

func runPasswd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var file string
	var iterations int
	fs.StringVar(&file, "file", "", "vault file path")
	fs.IntVar(&iterations, "iterations", 0, "PBKDF2 iteration count for the new key")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	store, err := openStore(file, iterations)
	if err != nil {
		return err
	}
	defer store.Close()

	oldMaster, err := promptPassword("Current master password: ")
	if err != nil {
		return err
	}
	defer krypto.Wipe(oldMaster)

	newMaster, err := promptNewPassword("New master password: ", "Confirm new master password: ")
	if err != nil {
		return err
	}
	defer krypto.Wipe(newMaster)

	if err := auth.ValidateMasterPasswordAdvanced(ctx, string(newMaster), auth.DefaultValidateOptions()); err != nil {
		return err
	}

	if err := store.ChangeMasterPassword(ctx, oldMaster, newMaster); err != nil {
		return err
	}

	fmt.Println("master password changed; all records re-encrypted")
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var file string
	fs.StringVar(&file, "file", "", "vault file path")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	store, err := openStore(file, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := store.Info(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("vault:    %s\n", store.Path())
	fmt.Printf("id:       %s\n", info.VaultID)
	fmt.Printf("records:  %d\n", info.Records)
	fmt.Printf("kdf:      PBKDF2-SHA256 (%d iterations)\n", info.Iterations)
	fmt.Printf("created:  %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Printf("updated:  %s\n", info.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runBackup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var file string
	fs.StringVar(&file, "file", "", "vault file path")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 1 {
		return userError{msg: "backup requires a destination path"}
	}
	dest := fs.Arg(0)

	store, err := openStore(file, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Backup(ctx, dest); err != nil {
		return err
	}

	fmt.Printf("backup written to %s\n", dest)
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: credvault <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  init     [--file <vault>] [--iterations n] [--check-breached]")
	fmt.Fprintln(os.Stderr, "  session  [--file <vault>]")
	fmt.Fprintln(os.Stderr, "  passwd   [--file <vault>] [--iterations n]")
	fmt.Fprintln(os.Stderr, "  gen      [--length n] [--passphrase] [--exclude-ambiguous] ...")
	fmt.Fprintln(os.Stderr, "  status   [--file <vault>]")
	fmt.Fprintln(os.Stderr, "  backup   [--file <vault>] <destination>")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "The vault file defaults to $CREDVAULT_DIR/credvault.db, then")
	fmt.Fprintln(os.Stderr, "~/.credvault/credvault.db. CREDVAULT_PASSWORD supplies the current")
	fmt.Fprintln(os.Stderr, "master password non-interactively.")
}
