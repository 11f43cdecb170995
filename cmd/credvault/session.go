package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/credvault/credvault/generator"
	"github.com/credvault/credvault/internal/vault"
	"github.com/credvault/credvault/krypto"
)

func runSession(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
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

	master, err := promptPassword("Master password: ")
	if err != nil {
		return err
	}
	session, err := store.Unlock(ctx, master)
	krypto.Wipe(master)
	if err != nil {
		return err
	}
	defer session.Lock()

	n, err := session.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("vault unlocked, %d records; type 'help' for commands\n", n)
	return sessionLoop(ctx, session)
}

func sessionLoop(ctx context.Context, session *vault.Session) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("credvault> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Println()
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "help":
			printSessionHelp()
		case "add":
			err = sessionAdd(ctx, scanner, session, args)
		case "show":
			err = sessionShow(ctx, session, args)
		case "list", "search":
			err = sessionList(ctx, session, cmd, args)
		case "update":
			err = sessionUpdate(ctx, session, args)
		case "rm":
			err = sessionRemove(ctx, scanner, session, args)
		case "copy":
			err = sessionCopy(ctx, session, args)
		case "gen":
			err = runGenerate(args)
		case "lock", "exit", "quit":
			return nil
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		}

		if err != nil {
			if errors.Is(err, vault.ErrSessionLocked) {
				fmt.Fprintln(os.Stderr, "session is no longer valid; unlock the vault again")
				return nil
			}
			handleSessionError(err)
		}
	}
}

// handleSessionError reports a command failure without leaving the
// REPL. Decrypt failures share their message with the wrong-password
// case, same as handleError.
func handleSessionError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		return
	}

	switch {
	case errors.Is(err, vault.ErrRecordNotFound):
		fmt.Fprintln(os.Stderr, "record not found")
	case errors.Is(err, krypto.ErrAuthFailed):
		fmt.Fprintln(os.Stderr, "wrong master password or corrupted vault data")
	case errors.Is(err, vault.ErrInvalidInput), errors.Is(err, generator.ErrInvalidConfig):
		fmt.Fprintln(os.Stderr, err.Error())
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func sessionAdd(ctx context.Context, scanner *bufio.Scanner, session *vault.Session, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var nr vault.NewRecord
	var genPw bool
	fs.StringVar(&nr.SiteName, "site", "", "site name")
	fs.StringVar(&nr.Username, "user", "", "username")
	fs.StringVar(&nr.URL, "url", "", "site URL")
	fs.StringVar(&nr.Category, "category", "", "record category")
	fs.BoolVar(&genPw, "gen", false, "generate the password")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid add arguments"}
	}
	if nr.SiteName == "" || nr.Username == "" {
		return userError{msg: "add requires --site and --user"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	if genPw {
		pw, err := generator.Generate(generator.DefaultConfig())
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		nr.Password = pw
	} else {
		pw, err := promptNewPassword("Password: ", "Confirm password: ")
		if err != nil {
			return err
		}
		nr.Password = string(pw)
		krypto.Wipe(pw)
	}

	fmt.Print("Notes (optional): ")
	if scanner.Scan() {
		nr.Notes = strings.TrimSpace(scanner.Text())
	}

	rec, err := session.AddRecord(ctx, nr)
	if err != nil {
		return err
	}

	if genPw {
		st := generator.Estimate(rec.Password)
		fmt.Printf("generated password: %s (%.1f bits, %s)\n", rec.Password, st.EntropyBits, st.Label)
	}
	fmt.Printf("stored %s/%s (id=%d)\n", rec.SiteName, rec.Username, rec.ID)
	return nil
}

func sessionShow(ctx context.Context, session *vault.Session, args []string) error {
	if len(args) == 0 {
		return userError{msg: "show requires a record id"}
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var reveal bool
	fs.BoolVar(&reveal, "reveal", false, "print the password")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		return userError{msg: "invalid show arguments"}
	}

	rec, err := session.Record(ctx, id)
	if err != nil {
		return err
	}

	password := "(hidden; use 'show <id> --reveal' or 'copy <id>')"
	if reveal {
		password = rec.Password
	}

	fmt.Printf("id:       %d\n", rec.ID)
	fmt.Printf("site:     %s\n", rec.SiteName)
	if rec.URL != "" {
		fmt.Printf("url:      %s\n", rec.URL)
	}
	fmt.Printf("username: %s\n", rec.Username)
	fmt.Printf("password: %s\n", password)
	fmt.Printf("category: %s\n", rec.Category)
	if rec.Notes != "" {
		fmt.Printf("notes:    %s\n", rec.Notes)
	}
	fmt.Printf("created:  %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Printf("updated:  %s\n", rec.UpdatedAt.Format(time.RFC3339))
	return nil
}

func sessionList(ctx context.Context, session *vault.Session, cmd string, args []string) error {
	filter := strings.Join(args, " ")
	if cmd == "search" && filter == "" {
		return userError{msg: "search requires a filter"}
	}

	recs, err := session.ListRecords(ctx, filter)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no records found")
		return nil
	}

	fmt.Printf("%-5s %-24s %-20s %-12s %s\n", "ID", "SITE", "USERNAME", "CATEGORY", "UPDATED")
	for _, rec := range recs {
		fmt.Printf("%-5d %-24s %-20s %-12s %s\n",
			rec.ID, rec.SiteName, rec.Username, rec.Category,
			rec.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func sessionUpdate(ctx context.Context, session *vault.Session, args []string) error {
	if len(args) == 0 {
		return userError{msg: "update requires a record id"}
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var site, user, url, notes, category string
	var newPw, genPw bool
	fs.StringVar(&site, "site", "", "site name")
	fs.StringVar(&user, "user", "", "username")
	fs.StringVar(&url, "url", "", "site URL")
	fs.StringVar(&notes, "notes", "", "notes text, empty clears")
	fs.StringVar(&category, "category", "", "record category")
	fs.BoolVar(&newPw, "password", false, "prompt for a new password")
	fs.BoolVar(&genPw, "gen", false, "generate a new password")

	if err := fs.Parse(args[1:]); err != nil {
		return userError{msg: "invalid update arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	var upd vault.RecordUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "site":
			upd.SiteName = &site
		case "user":
			upd.Username = &user
		case "url":
			upd.URL = &url
		case "notes":
			upd.Notes = &notes
		case "category":
			upd.Category = &category
		}
	})

	switch {
	case genPw:
		pw, err := generator.Generate(generator.DefaultConfig())
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		upd.Password = &pw
	case newPw:
		pwBytes, err := promptNewPassword("New password: ", "Confirm new password: ")
		if err != nil {
			return err
		}
		pw := string(pwBytes)
		krypto.Wipe(pwBytes)
		upd.Password = &pw
	}

	if upd == (vault.RecordUpdate{}) {
		return userError{msg: "update requires at least one field flag"}
	}

	rec, err := session.UpdateRecord(ctx, id, upd)
	if err != nil {
		return err
	}

	if genPw {
		st := generator.Estimate(rec.Password)
		fmt.Printf("generated password: %s (%.1f bits, %s)\n", rec.Password, st.EntropyBits, st.Label)
	}
	fmt.Printf("updated record %d\n", rec.ID)
	return nil
}

func sessionRemove(ctx context.Context, scanner *bufio.Scanner, session *vault.Session, args []string) error {
	if len(args) != 1 {
		return userError{msg: "rm requires a record id"}
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		return err
	}

	rec, err := session.Record(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("delete %s/%s (id=%d)? [y/N]: ", rec.SiteName, rec.Username, rec.ID)
	if !scanner.Scan() {
		return nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer != "y" && answer != "yes" {
		fmt.Println("not deleted")
		return nil
	}

	if err := session.DeleteRecord(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted record %d\n", id)
	return nil
}

func sessionCopy(ctx context.Context, session *vault.Session, args []string) error {
	if len(args) != 1 {
		return userError{msg: "copy requires a record id"}
	}
	id, err := parseRecordID(args[0])
	if err != nil {
		return err
	}

	rec, err := session.Record(ctx, id)
	if err != nil {
		return err
	}

	if err := copyToClipboard(rec.Password); err != nil {
		return err
	}
	fmt.Printf("password for %s copied; clipboard clears in %s\n", rec.SiteName, clipboardClearAfter)
	return nil
}

func parseRecordID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError{msg: fmt.Sprintf("invalid record id: %s", arg)}
	}
	return id, nil
}

func printSessionHelp() {
	fmt.Println("Commands:")
	fmt.Println("  add --site <site> --user <name> [--url u] [--category c] [--gen]")
	fmt.Println("  show <id> [--reveal]")
	fmt.Println("  list [filter]")
	fmt.Println("  search <filter>")
	fmt.Println("  update <id> [--site s] [--user u] [--url u] [--category c] [--notes n] [--password] [--gen]")
	fmt.Println("  rm <id>")
	fmt.Println("  copy <id>")
	fmt.Println("  gen [--length n] [--passphrase] [--exclude-ambiguous] ...")
	fmt.Println("  lock | exit | quit")
}
