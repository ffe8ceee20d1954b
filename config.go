package authkit

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by authkit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Lockout       LockoutConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	EmailConfirm  EmailConfirmConfig
	Session       SessionConfig
	Throttle      ThrottleConfig
	Mail          MailConfig
	JWT           JWTConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the persistent failed-attempt accounting on the
// user record. Threshold is the number of consecutive failures that locks
// the account; Duration is how long the lock holds.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authkit APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength int
}

/*
====================================
TOKEN CONFIGS
====================================
*/

// PasswordResetConfig defines a public type used by authkit APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	TokenTTL    time.Duration
	MaxAttempts int
	LinkPath    string
	Subject     string
	Template    string
}

// EmailConfirmConfig defines a public type used by authkit APIs.
//
// EmailConfirmConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EmailConfirmConfig struct {
	TokenTTL    time.Duration
	MaxAttempts int
	LinkPath    string
	Subject     string
	Template    string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authkit APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
	RememberTTL time.Duration
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig controls the pre-auth request throttle keyed by
// identifier and client IP. This is independent of account lockout: the
// throttle protects the backend, lockout protects the account.
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig defines a public type used by authkit APIs.
//
// MailConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailConfig struct {
	BaseURL    string
	From       string
	BufferSize int
	DropIfFull bool
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authkit APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	Enabled       bool
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// AuditConfig defines a public type used by authkit APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// EmitTimeout bounds a single sink delivery; slow sinks lose the
	// event rather than stall the dispatcher.
	EmitTimeout time.Duration
}

// MetricsConfig defines a public type used by authkit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration applied by [New]. Adjust
// fields and pass the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:    2 * time.Hour,
			MaxAttempts: 5,
			LinkPath:    "/Auth/ResetPassword",
			Subject:     "Reset your password",
			Template:    "To reset your password, follow this link: [link]",
		},
		EmailConfirm: EmailConfirmConfig{
			TokenTTL:    72 * time.Hour,
			MaxAttempts: 5,
			LinkPath:    "/Auth/ConfirmEmail",
			Subject:     "Confirm your email address",
			Template:    "To confirm your email address, follow this link: [link]",
		},
		Session: SessionConfig{
			RedisPrefix: "ak",
			TTL:         12 * time.Hour,
			RememberTTL: 30 * 24 * time.Hour,
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 20,
			Cooldown:    15 * time.Minute,
		},
		Mail: MailConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		JWT: JWTConfig{
			Enabled:       false,
			AccessTTL:     5 * time.Minute,
			SigningMethod: "ed25519",
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  1024,
			DropIfFull:  true,
			EmitTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Lockout
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Tokens
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.PasswordReset.MaxAttempts <= 0 {
		return errors.New("PasswordReset MaxAttempts must be > 0")
	}
	if !strings.Contains(c.PasswordReset.Template, "[link]") {
		return errors.New("PasswordReset Template must contain the [link] placeholder")
	}
	if c.EmailConfirm.TokenTTL <= 0 {
		return errors.New("EmailConfirm TokenTTL must be > 0")
	}
	if c.EmailConfirm.MaxAttempts <= 0 {
		return errors.New("EmailConfirm MaxAttempts must be > 0")
	}
	if !strings.Contains(c.EmailConfirm.Template, "[link]") {
		return errors.New("EmailConfirm Template must contain the [link] placeholder")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.RememberTTL < c.Session.TTL {
		return errors.New("Session RememberTTL must be >= Session TTL")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0 when throttle is enabled")
		}
		if c.Throttle.Cooldown <= 0 {
			return errors.New("Throttle Cooldown must be > 0 when throttle is enabled")
		}
	}

	// Mail
	if c.Mail.BaseURL != "" {
		u, err := url.Parse(c.Mail.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("Mail BaseURL must be an absolute URL")
		}
	}
	if c.Mail.BufferSize <= 0 {
		return errors.New("Mail BufferSize must be > 0")
	}

	// JWT
	if c.JWT.Enabled {
		if c.JWT.AccessTTL <= 0 {
			return errors.New("JWT AccessTTL must be > 0")
		}
		if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
			return errors.New("unsupported JWT signing method")
		}
		if c.JWT.SigningMethod == "ed25519" && (len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0) {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
		if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires PrivateKey of at least 32 bytes")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
