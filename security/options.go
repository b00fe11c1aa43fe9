package security

import (
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/session"
)

type (
	// Options affects how Subject manages sessions
	Options struct {
		// Concurrency caps the live sessions of one principal across platforms,
		// the least recently used ones are kicked out. Non-positive means unlimited.
		Concurrency int
		// NewToken generates session tokens
		NewToken func(authc.AuthenticationInfo) string
	}

	LoginOption func(*LoginOptions)

	LoginOptions struct {
		// Platform the session is created for
		Platform string
	}
)

//=====================================
//		   Global Options
//=====================================

func SetGlobalOptions(opts Options) {
	if opts.NewToken == nil {
		opts.NewToken = newToken
	}
	globalOptions.Store(&opts)
}

func GetGlobalOptions() *Options {
	return globalOptions.Load()
}

var globalOptions = defaultGlobalOptions()

func defaultGlobalOptions() *atomic.Pointer[Options] {
	v := &atomic.Pointer[Options]{}
	v.Store(&Options{
		Concurrency: 1,
		NewToken:    newToken,
	})
	return v
}

func newToken(authc.AuthenticationInfo) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

//=====================================
//		   Login Options
//=====================================

func WithPlatform(platform string) LoginOption {
	return func(opt *LoginOptions) {
		platform = strings.TrimSpace(platform)
		if len(platform) != 0 {
			opt.Platform = platform
		}
	}
}

func applyLoginOptions(opts ...LoginOption) *LoginOptions {
	opt := LoginOptions{Platform: session.DefaultPlatform}

	for _, f := range opts {
		f(&opt)
	}

	return &opt
}
