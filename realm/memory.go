package realm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/shrinex/bastion/authc"
	"github.com/shrinex/bastion/authz"
	"github.com/shrinex/bastion/internal/logger"
)

// DefaultBcryptCost is the cost used by AddAccount
const DefaultBcryptCost = bcrypt.DefaultCost

type (
	// Account is a single entry of a MemoryRealm
	Account struct {
		Username     string   `mapstructure:"username" yaml:"username" validate:"required"`
		PasswordHash string   `mapstructure:"password_hash" yaml:"password_hash" validate:"required"`
		Roles        []string `mapstructure:"roles" yaml:"roles"`
		Authorities  []string `mapstructure:"authorities" yaml:"authorities"`
	}

	// MemoryRealm authenticates authc.UsernamePasswordToken against accounts held in memory
	MemoryRealm struct {
		name     string
		cost     int
		mu       sync.RWMutex
		accounts map[string]Account
	}
)

var (
	_ authc.Realm = (*MemoryRealm)(nil)
	_ authz.Realm = (*MemoryRealm)(nil)
)

func NewMemoryRealm(name string, accounts ...Account) *MemoryRealm {
	r := &MemoryRealm{
		name:     name,
		cost:     DefaultBcryptCost,
		accounts: make(map[string]Account, len(accounts)),
	}

	for _, acc := range accounts {
		r.accounts[acc.Username] = acc
	}

	return r
}

// SetCost changes the bcrypt cost of subsequently added accounts
func (r *MemoryRealm) SetCost(cost int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cost = cost
}

// AddAccount hashes password and stores a new account
func (r *MemoryRealm) AddAccount(username string, password string, roles ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[username]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return err
	}

	r.accounts[username] = Account{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
	}

	return nil
}

// RemoveAccount is idempotent
func (r *MemoryRealm) RemoveAccount(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, username)
}

func (r *MemoryRealm) Name() string {
	return r.name
}

func (r *MemoryRealm) Supports(token authc.Token) bool {
	_, ok := token.(*authc.UsernamePasswordToken)
	return ok
}

func (r *MemoryRealm) LoadAuthenticationInfo(ctx context.Context, token authc.Token) (authc.AuthenticationInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	acc, ok := r.lookup(token.Principal())
	if !ok {
		return nil, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(token.Credentials()))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		logger.Debug("password mismatch", logger.KeyRealm, r.name, logger.KeyPrincipal, acc.Username)
		return nil, ErrIncorrectCredentials
	}
	if err != nil {
		return nil, err
	}

	info := authc.NewAuthenticationInfo(authc.KindUsername, acc.Username, acc.PasswordHash)
	for _, role := range acc.Roles {
		info.AddPrincipal(KindRole, role)
	}
	for _, authority := range acc.Authorities {
		info.AddPrincipal(KindAuthority, authority)
	}

	return info, nil
}

func (r *MemoryRealm) LoadRoles(_ context.Context, info authc.AuthenticationInfo) ([]authz.Role, error) {
	acc, ok := r.lookup(info.Principal())
	if !ok {
		return nil, nil
	}

	roles := make([]authz.Role, 0, len(acc.Roles))
	for _, name := range acc.Roles {
		roles = append(roles, authz.NewRole(name))
	}

	return roles, nil
}

func (r *MemoryRealm) LoadAuthorities(_ context.Context, info authc.AuthenticationInfo) ([]authz.Authority, error) {
	acc, ok := r.lookup(info.Principal())
	if !ok {
		return nil, nil
	}

	authorities := make([]authz.Authority, 0, len(acc.Authorities))
	for _, name := range acc.Authorities {
		authorities = append(authorities, authz.NewAuthority(name))
	}

	return authorities, nil
}

func (r *MemoryRealm) lookup(username string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[username]
	return acc, ok
}
