package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/yapplr/yapplr/internal/filex"
)

var errNotLoggedIn = errors.New("not logged in; run `yapplr login` first")

// tokenStore keeps the session token in a 0600 file between invocations.
type tokenStore struct {
	path string
}

func (s tokenStore) Save(token string) error {
	return filex.WritePrivateFile(s.path, []byte(token+"\n"))
}

func (s tokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", errNotLoggedIn
	}
	return tok, nil
}

// Clear removes the token file. A missing file is not an error.
func (s tokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
