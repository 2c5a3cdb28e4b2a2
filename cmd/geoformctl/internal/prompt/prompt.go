package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Password returns flagValue, or the first line of in when fromStdin is set.
func Password(in io.Reader, out io.Writer, flagValue string, fromStdin bool) (string, error) {
	password := flagValue
	if fromStdin {
		scanner := bufio.NewScanner(in)
		fmt.Fprint(out, "Enter password: ")
		if scanner.Scan() {
			password = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return "", errors.New("password is required (use --password or --stdin)")
	}
	return password, nil
}
