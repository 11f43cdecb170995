package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/credvault/credvault/generator"
)

type genFlags struct {
	length     int
	lower      bool
	upper      bool
	digits     bool
	symbols    bool
	noAmbig    bool
	passphrase bool
	words      int
	separator  string
}

func addGenFlags(fs *flag.FlagSet) *genFlags {
	g := &genFlags{}
	chars := generator.DefaultConfig()
	phrase := generator.DefaultPassphraseConfig()

	fs.IntVar(&g.length, "length", chars.Length, "password length")
	fs.BoolVar(&g.lower, "lower", true, "include lowercase letters")
	fs.BoolVar(&g.upper, "upper", true, "include uppercase letters")
	fs.BoolVar(&g.digits, "digits", true, "include digits")
	fs.BoolVar(&g.symbols, "symbols", true, "include symbols")
	fs.BoolVar(&g.noAmbig, "exclude-ambiguous", false, "drop easily confused characters")
	fs.BoolVar(&g.passphrase, "passphrase", false, "generate a word passphrase instead")
	fs.IntVar(&g.words, "words", phrase.Words, "passphrase word count")
	fs.StringVar(&g.separator, "separator", phrase.Separator, "passphrase word separator")
	return g
}

func (g *genFlags) generate() (string, error) {
	if g.passphrase {
		cfg := generator.DefaultPassphraseConfig()
		cfg.Words = g.words
		cfg.Separator = g.separator
		return generator.GeneratePassphrase(cfg)
	}

	return generator.Generate(generator.Config{
		Length:           g.length,
		Lowercase:        g.lower,
		Uppercase:        g.upper,
		Digits:           g.digits,
		Symbols:          g.symbols,
		ExcludeAmbiguous: g.noAmbig,
	})
}

// runGenerate serves both the top-level gen command and the session
// REPL's gen. The password goes to stdout so it can be piped; the
// strength readout goes to stderr.
func runGenerate(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	g := addGenFlags(fs)

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid gen arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	pw, err := g.generate()
	if err != nil {
		if errors.Is(err, generator.ErrInvalidConfig) {
			return userError{msg: err.Error()}
		}
		return err
	}

	fmt.Println(pw)
	st := generator.Estimate(pw)
	fmt.Fprintf(os.Stderr, "entropy: %.1f bits (%s)\n", st.EntropyBits, st.Label)
	return nil
}
