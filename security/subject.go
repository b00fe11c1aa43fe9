package security

import (
	"context"
	"sort"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
	"github.com/shrinex/bastion/internal/logger"
	"github.com/shrinex/bastion/session"
)

type (
	Subject interface {
		Authenticated(context.Context) bool
		Session(context.Context) (session.Session, error)
		AuthenticationInfo(context.Context) (authc.AuthenticationInfo, error)

		HasRole(context.Context, authz.Role) bool
		HasAnyRole(context.Context, ...authz.Role) bool
		HasAllRole(context.Context, ...authz.Role) bool

		HasAuthority(context.Context, authz.Authority) bool
		HasAnyAuthority(context.Context, ...authz.Authority) bool
		HasAllAuthority(context.Context, ...authz.Authority) bool

		// Login authenticates token and starts a new session
		Login(context.Context, authc.Token, ...LoginOption) (context.Context, error)
		// Resume binds the live session identified by a session token
		Resume(context.Context, string) (context.Context, error)
		Logout(context.Context) (context.Context, error)
	}

	sessionCtxKey struct{}
	infoCtxKey    struct{}

	subject struct {
		authenticator authc.Authenticator
		authorizer    authz.Authorizer
		repository    session.Repository
		registry      session.Registry
		options       *Options
	}
)

var _ Subject = (*subject)(nil)

// Authenticated reports whether ctx carries a session still known to the repository
func (s *subject) Authenticated(ctx context.Context) bool {
	ss, err := s.Session(ctx)
	if err != nil {
		return false
	}

	live, err := s.repository.Read(ctx, ss.Token())
	return err == nil && live != nil
}

func (s *subject) AuthenticationInfo(ctx context.Context) (authc.AuthenticationInfo, error) {
	info, ok := ctx.Value(infoCtxKey{}).(authc.AuthenticationInfo)
	if !ok || info == nil {
		return nil, authc.ErrUnauthenticated
	}

	return info, nil
}

func (s *subject) Session(ctx context.Context) (session.Session, error) {
	ss, ok := ctx.Value(sessionCtxKey{}).(*session.MapSession)
	if !ok || ss == nil {
		return nil, authc.ErrUnauthenticated
	}

	return ss, nil
}

func (s *subject) Login(ctx context.Context, token authc.Token, opts ...LoginOption) (context.Context, error) {
	info, err := s.authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}

	opt := applyLoginOptions(opts...)

	if err = s.kickOutOldestIfNeeded(ctx, info); err != nil {
		return ctx, err
	}

	ss, err := s.createAndSaveSession(ctx, info, opt)
	if err != nil {
		return ctx, err
	}

	if err = s.registry.Register(ctx, info.Principal(), ss); err != nil {
		return ctx, err
	}

	logger.Info("subject logged in",
		logger.KeyPrincipal, info.Principal(),
		logger.KeyPlatform, opt.Platform)

	return bind(ctx, ss, info), nil
}

func (s *subject) Resume(ctx context.Context, token string) (context.Context, error) {
	ss, err := s.repository.Read(ctx, token)
	if err != nil {
		return ctx, err
	}

	if ss == nil {
		return ctx, authc.ErrUnauthenticated
	}

	var principals []authc.Principal
	found, err := ss.Attribute(ctx, session.PrincipalsKey, &principals)
	if err != nil {
		return ctx, err
	}

	if !found || len(principals) == 0 {
		return ctx, authc.ErrUnauthenticated
	}

	if err = ss.Touch(ctx); err != nil {
		return ctx, err
	}

	// a concurrent Logout or kick out may have removed the session since Read
	saved, err := s.repository.SaveIfPresent(ctx, ss)
	if err != nil {
		return ctx, err
	}

	if !saved {
		return ctx, authc.ErrUnauthenticated
	}

	return bind(ctx, ss, restoreInfo(principals)), nil
}

func (s *subject) Logout(ctx context.Context) (context.Context, error) {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return ctx, err
	}

	if la, ok := s.authenticator.(authc.LogoutAware); ok {
		la.Logout(ctx, info)
	}

	ss, err := s.Session(ctx)
	if err != nil {
		return ctx, err
	}

	if err = s.registry.Deregister(ctx, info.Principal(), ss.Token()); err != nil {
		return ctx, err
	}

	if err = s.repository.Remove(ctx, ss.Token()); err != nil {
		return ctx, err
	}

	if err = ss.Stop(ctx); err != nil {
		return ctx, err
	}

	logger.Info("subject logged out", logger.KeyPrincipal, info.Principal())

	ctx = context.WithValue(ctx, sessionCtxKey{}, nil)
	return context.WithValue(ctx, infoCtxKey{}, nil), nil
}

func (s *subject) HasRole(ctx context.Context, role authz.Role) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasRole(ctx, info, role)
}

func (s *subject) HasAnyRole(ctx context.Context, roles ...authz.Role) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAnyRole(ctx, info, roles...)
}

func (s *subject) HasAllRole(ctx context.Context, roles ...authz.Role) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAllRole(ctx, info, roles...)
}

func (s *subject) HasAuthority(ctx context.Context, authority authz.Authority) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAuthority(ctx, info, authority)
}

func (s *subject) HasAnyAuthority(ctx context.Context, authorities ...authz.Authority) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAnyAuthority(ctx, info, authorities...)
}

func (s *subject) HasAllAuthority(ctx context.Context, authorities ...authz.Authority) bool {
	info, err := s.AuthenticationInfo(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAllAuthority(ctx, info, authorities...)
}

//=====================================
//		    Private
//=====================================

func (s *subject) opts() *Options {
	if s.options != nil {
		return s.options
	}
	return GetGlobalOptions()
}

func (s *subject) kickOutOldestIfNeeded(ctx context.Context, info authc.AuthenticationInfo) error {
	concurrency := s.opts().Concurrency
	if concurrency <= 0 {
		return nil
	}

	sessions, err := s.registry.ActiveSessions(ctx, info.Principal())
	if err != nil {
		return err
	}

	numSessions := len(sessions)
	if numSessions < concurrency {
		return nil
	}

	sort.Sort(byLastAccessTime(sessions))
	for _, ss := range sessions[:numSessions-concurrency+1] {
		if err = s.registry.Deregister(ctx, info.Principal(), ss.Token()); err != nil {
			return err
		}

		if err = s.repository.Remove(ctx, ss.Token()); err != nil {
			return err
		}

		if err = ss.KickOut(ctx); err != nil {
			return err
		}

		logger.Debug("session kicked out", logger.KeyPrincipal, info.Principal())
	}

	return nil
}

func (s *subject) createAndSaveSession(ctx context.Context, info authc.AuthenticationInfo, opt *LoginOptions) (*session.MapSession, error) {
	ss, err := s.repository.Create(ctx, s.opts().NewToken(info))
	if err != nil {
		return nil, err
	}

	if err = ss.SetAttribute(ctx, session.PlatformKey, opt.Platform); err != nil {
		return nil, err
	}

	// credentials stay out of the session
	if err = ss.SetAttribute(ctx, session.PrincipalsKey, info.Principals()); err != nil {
		return nil, err
	}

	if err = s.repository.Save(ctx, ss); err != nil {
		return nil, err
	}

	return ss, nil
}

func bind(ctx context.Context, ss *session.MapSession, info authc.AuthenticationInfo) context.Context {
	ctx = context.WithValue(ctx, sessionCtxKey{}, ss)
	return context.WithValue(ctx, infoCtxKey{}, info)
}

func restoreInfo(principals []authc.Principal) authc.AuthenticationInfo {
	info := authc.NewAuthenticationInfo(principals[0].Kind, principals[0].Value)
	for _, p := range principals[1:] {
		info.AddPrincipal(p.Kind, p.Value)
	}
	return info
}

type byLastAccessTime []*session.MapSession

func (s byLastAccessTime) Len() int {
	return len(s)
}

func (s byLastAccessTime) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s byLastAccessTime) Less(i, j int) bool {
	lhs, _ := s[i].LastAccessTime(context.TODO())
	rhs, _ := s[j].LastAccessTime(context.TODO())
	return lhs.Before(rhs)
}
