// +build windows

package idm

import (
	"os"
	"os/user"
	"path/filepath"
)

func UnsudoedHomeDir() (home string) {
	currentUser, err := user.Current()
	if err == nil && currentUser != nil {
		home = currentUser.HomeDir
	} else {
		log.Notice("falling back to $HOME")
		home = os.Getenv("HOME")
	}
	return
}

func IdmDir() (dir string, err error) {
	if env := os.Getenv("IDM_HOME"); env != "" {
		dir = env
	} else {
		dir = filepath.Join(UnsudoedHomeDir(), "appdata", "local", "idm")
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
