// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// Default values applied by validate when the config file leaves them unset.
const (
	defaultShutDownTime        = 5
	defaultDirectoryPort       = 389
	defaultDirectorySSLPort    = 636
	defaultDirectoryTimeout    = 10
	defaultSuggestionThreshold = 80
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("GOHR_ADMIN_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return validate(c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings and fill in defaults.
func validate(c Config) (Config, error) {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return c, errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// validate access-control-allow-origin
	if c.Webserver.URL == "" {
		return c, errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Directory.Host == "" {
		return c, errors.Wrap(ErrDirectoryHostEmpty, invalidErrMessage)
	}

	if c.Directory.BaseDN == "" {
		return c, errors.Wrap(ErrDirectoryBaseDNEmpty, invalidErrMessage)
	}

	if c.Directory.Port == 0 {
		if c.Directory.UseSSL {
			c.Directory.Port = defaultDirectorySSLPort
		} else {
			c.Directory.Port = defaultDirectoryPort
		}
	}

	if c.Directory.Timeout == 0 {
		c.Directory.Timeout = defaultDirectoryTimeout
	}

	if c.Directory.SuggestionThreshold == 0 {
		c.Directory.SuggestionThreshold = defaultSuggestionThreshold
	}

	return c, nil
}
