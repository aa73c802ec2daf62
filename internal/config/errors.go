package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrDirectoryHostEmpty error if config directory.host is empty.
	ErrDirectoryHostEmpty = errors.New("toml config directory.host can not be empty")

	// ErrDirectoryBaseDNEmpty error if config directory.basedn is empty.
	ErrDirectoryBaseDNEmpty = errors.New("toml config directory.basedn can not be empty")
)
