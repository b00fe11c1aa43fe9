package security

import (
	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
	"github.com/shrinex/bastion/session"
)

// Builder provides a way to create Subject
type Builder struct {
	authenticator authc.Authenticator
	authorizer    authz.Authorizer
	repository    session.Repository
	registry      session.Registry
	options       *Options
}

// NewBuilder returns a newly created Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Authenticator supplies an authenticator used by Subject
func (b *Builder) Authenticator(authenticator authc.Authenticator) *Builder {
	b.authenticator = authenticator
	return b
}

// Authorizer supplies an authorizer used by Subject
func (b *Builder) Authorizer(authorizer authz.Authorizer) *Builder {
	b.authorizer = authorizer
	return b
}

// Repository supplies the session.Repository sessions live in
func (b *Builder) Repository(repository session.Repository) *Builder {
	b.repository = repository
	return b
}

// Registry supplies the session.Registry tracking sessions per principal,
// defaults to a session.MapSessionRegistry over the repository
func (b *Builder) Registry(registry session.Registry) *Builder {
	b.registry = registry
	return b
}

// Options overrides the global Options for this Subject
func (b *Builder) Options(opts Options) *Builder {
	if opts.NewToken == nil {
		opts.NewToken = newToken
	}
	b.options = &opts
	return b
}

// Build creates the Subject
func (b *Builder) Build() (Subject, error) {
	if b.authenticator == nil || b.authorizer == nil || b.repository == nil {
		return nil, ErrIncompleteBuilder
	}

	registry := b.registry
	if registry == nil {
		registry = session.NewRegistry(b.repository)
	}

	return &subject{
		authenticator: b.authenticator,
		authorizer:    b.authorizer,
		repository:    b.repository,
		registry:      registry,
		options:       b.options,
	}, nil
}
