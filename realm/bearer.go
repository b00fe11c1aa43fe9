package realm

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
)

type (
	// BearerConfig configures a BearerRealm
	BearerConfig struct {
		// Key is the HMAC secret used to verify signatures
		Key []byte
		// Issuer is the expected iss claim, not checked when empty
		Issuer string
		// Audience is the expected aud claim, not checked when empty
		Audience string
		// Leeway tolerates clock skew when validating exp/nbf
		Leeway time.Duration
	}

	// BearerClaims are the claims understood by BearerRealm
	BearerClaims struct {
		Roles       []string `json:"roles,omitempty"`
		Authorities []string `json:"authorities,omitempty"`
		jwt.RegisteredClaims
	}

	// BearerRealm authenticates authc.BearerToken carrying an HMAC signed JWT
	BearerRealm struct {
		name   string
		config BearerConfig
		parser *jwt.Parser
	}
)

var (
	_ authc.Realm = (*BearerRealm)(nil)
	_ authz.Realm = (*BearerRealm)(nil)
)

func NewBearerRealm(name string, config BearerConfig) *BearerRealm {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &BearerRealm{
		name:   name,
		config: config,
		parser: jwt.NewParser(opts...),
	}
}

// Issue signs a token for subject, mainly useful for tests and tooling
func (r *BearerRealm) Issue(subject string, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	claims := BearerClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    r.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if r.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{r.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.config.Key)
}

func (r *BearerRealm) Name() string {
	return r.name
}

func (r *BearerRealm) Supports(token authc.Token) bool {
	_, ok := token.(*authc.BearerToken)
	return ok
}

func (r *BearerRealm) LoadAuthenticationInfo(ctx context.Context, token authc.Token) (authc.AuthenticationInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	claims := &BearerClaims{}
	_, err := r.parser.ParseWithClaims(token.Credentials(), claims, func(*jwt.Token) (any, error) {
		return r.config.Key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBearer, err)
	}

	if claims.Subject == "" {
		return nil, nil
	}

	info := authc.NewAuthenticationInfo(authc.KindSubject, claims.Subject)
	if claims.ID != "" {
		info.AddCredential(claims.ID)
	}
	for _, role := range claims.Roles {
		info.AddPrincipal(KindRole, role)
	}
	for _, authority := range claims.Authorities {
		info.AddPrincipal(KindAuthority, authority)
	}

	return info, nil
}

// LoadRoles reads the roles carried by info, as placed there by LoadAuthenticationInfo
func (r *BearerRealm) LoadRoles(_ context.Context, info authc.AuthenticationInfo) ([]authz.Role, error) {
	roles := make([]authz.Role, 0)
	for _, p := range info.Principals() {
		if p.Kind == KindRole {
			roles = append(roles, authz.NewRole(p.Value))
		}
	}
	return roles, nil
}

func (r *BearerRealm) LoadAuthorities(_ context.Context, info authc.AuthenticationInfo) ([]authz.Authority, error) {
	authorities := make([]authz.Authority, 0)
	for _, p := range info.Principals() {
		if p.Kind == KindAuthority {
			authorities = append(authorities, authz.NewAuthority(p.Value))
		}
	}
	return authorities, nil
}
