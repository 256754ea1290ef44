package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tungate/tungate/internal/errors"
)

var validate = newValidator()

// Routing table ids reserved by the kernel (local, main, default, unspec).
var reservedTables = map[int]bool{0: true, 253: true, 254: true, 255: true}

func newValidator() *validator.Validate {
	v := validator.New()

	// routing_table accepts any valid table id that does not collide with
	// the kernel-reserved ids.
	_ = v.RegisterValidation("routing_table", func(fl validator.FieldLevel) bool {
		table := int(fl.Field().Int())
		if table < 1 || table > 0xFFFF {
			return false
		}
		return !reservedTables[table]
	})

	return v
}

// Validate checks the resolved configuration set. Struct-level constraints
// are expressed as validator tags; cross-field checks (gateway address
// inside the LAN block) are done explicitly.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			var messages []string
			for _, fe := range fieldErrors {
				messages = append(messages, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), validationMessage(fe)))
			}
			return errors.NewConfigError(strings.Join(messages, "; "), nil)
		}
		return errors.NewConfigError("configuration validation failed", err)
	}

	_, lanNet, err := net.ParseCIDR(cfg.LAN)
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("invalid LAN CIDR %q", cfg.LAN), err)
	}
	addr := net.ParseIP(cfg.Addr)
	if addr == nil {
		return errors.NewConfigError(fmt.Sprintf("invalid gateway address %q", cfg.Addr), nil)
	}
	if !lanNet.Contains(addr) {
		return errors.NewConfigError(
			fmt.Sprintf("gateway address %s is not inside LAN %s", cfg.Addr, cfg.LAN), nil)
	}

	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "cidr":
		return "must be a valid CIDR block"
	case "ip":
		return "must be a valid IP address"
	case "hostname_port":
		return "must be in format 'host:port'"
	case "routing_table":
		return "must be a table id in 1..65535 excluding reserved ids 253, 254, 255"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}
