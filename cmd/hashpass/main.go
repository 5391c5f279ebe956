// Command hashpass reads the admin password from the terminal without echo
// and prints its bcrypt hash for the -w flag or the admin_password_hash
// config key.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const minPasswordLen = 8

func getPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func run(prompts, out io.Writer) error {
	pw, err := getPassword(prompts, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	if len(pw) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	again, err := getPassword(prompts, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)
	if !bytes.Equal(pw, again) {
		return errors.New("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword(pw, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(hash))
	return err
}

func main() {
	if err := run(os.Stderr, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
