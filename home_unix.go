// +build !windows

package idm

import (
	"os"
	"os/user"
	"path/filepath"
)

// UnsudoedHomeDir finds the home directory of the logged-in user even
// when run under sudo, the way kr's dir_unix.go resolves $SUDO_USER.
func UnsudoedHomeDir() (home string) {
	userName := os.Getenv("SUDO_USER")
	if userName == "" {
		userName = os.Getenv("USER")
	}
	currentUser, err := user.Lookup(userName)
	if err == nil && currentUser != nil {
		home = currentUser.HomeDir
	} else {
		log.Notice("falling back to $HOME")
		home = os.Getenv("HOME")
	}
	return
}

// IdmDir returns (creating if needed) the per-user config directory
// that holds persisted per-device ambiguous-shape overrides (§6
// "Persisted state").
func IdmDir() (dir string, err error) {
	if env := os.Getenv("IDM_HOME"); env != "" {
		dir = env
	} else {
		dir = filepath.Join(UnsudoedHomeDir(), ".idm")
	}
	err = os.MkdirAll(dir, os.FileMode(0700))
	return
}

func IdmDirFile(name string) (path string, err error) {
	dir, err := IdmDir()
	if err != nil {
		return
	}
	path = filepath.Join(dir, name)
	return
}
