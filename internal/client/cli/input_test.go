package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubPasswords makes readPassword return each of pws in turn.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(pws) == 0 {
			return nil, errors.New("no more passwords")
		}
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	if _, err := GetSimpleText(in, "Name?", &out); err == nil {
		t.Fatal("expected EOF error")
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Password", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetNewPassword(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		stubPasswords(t, "correct-horse", "correct-horse")
		var out bytes.Buffer
		pw, err := GetNewPassword(&out)
		require.NoError(t, err)
		require.Equal(t, "correct-horse", string(pw))
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "correct-horse", "battery-staple")
		var out bytes.Buffer
		_, err := GetNewPassword(&out)
		require.ErrorIs(t, err, errPasswordMismatch)
	})
}
