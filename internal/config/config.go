package config

import (
	"bufio"
	goerrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
)

// Load builds the final configuration set: built-in defaults, overlaid by
// an optional TOML config file, overlaid by an optional env-style key=value
// file. A missing file is not an error; a malformed value is.
func Load(configPath string, envPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := applyTOMLFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if envPath != "" {
		if err := applyEnvFile(cfg, envPath); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyTOMLFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file %s not found, using defaults", path)
			return nil
		}
		return errors.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		var derr *toml.DecodeError
		if goerrors.As(err, &derr) {
			row, col := derr.Position()
			log.Errorf("%s", derr.String())
			log.Errorf("Error at line %d, column %d", row, col)
		}
		return errors.NewConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	log.Debugf("Loaded config file %s", path)
	return nil
}

// applyEnvFile overlays values from an env-style key=value file produced by
// the installer. Unknown keys are ignored, blank lines and comments skipped.
func applyEnvFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Env file %s not found, skipping overlay", path)
			return nil
		}
		return errors.NewConfigError(fmt.Sprintf("failed to open env file %s", path), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("Failed to close %s: %v", path, err)
		}
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := applyEnvValue(cfg, key, value); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to read env file %s", path), err)
	}

	return nil
}

func applyEnvValue(cfg *Config, key, value string) error {
	switch key {
	case "IFACE":
		cfg.Iface = value
	case "LAN":
		cfg.LAN = value
	case "ADDR":
		cfg.Addr = value
	case "MARK":
		mark, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid MARK value %q", value), err)
		}
		cfg.FwMark = uint32(mark)
	case "TABLE":
		table, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid TABLE value %q", value), err)
		}
		cfg.Table = table
	case "RULE_PREF":
		pref, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid RULE_PREF value %q", value), err)
		}
		cfg.RulePref = pref
	case "TUN_DEVICE":
		cfg.TunDevice = value
	case "SOCKS_ADDR":
		cfg.SocksAddr = value
	case "TUN2SOCKS_BIN":
		cfg.Tun2socksBin = value
	default:
		log.Debugf("Ignoring unknown env key %q", key)
	}
	return nil
}
