// cmd/stratacms/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dalemusser/stratacms/internal/app/bootstrap"
	"github.com/dalemusser/stratacms/internal/app/system/authutil"
	"github.com/dalemusser/waffle/app"
)

func main() {
	// stratacms hash-password < secret.txt prints a bcrypt hash suitable
	// for admin_password.
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

// hashPassword reads one password line from in and writes its bcrypt hash
// to out. The password must satisfy the admin password rules.
func hashPassword(in io.Reader, out io.Writer) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if err := authutil.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
