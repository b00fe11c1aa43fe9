package authc

import (
	"context"
	"fmt"
	"reflect"
)

// Attempt is the outcome of consulting one realm during a multi-realm attempt.
// Exactly one of the following holds:
//   - Info != nil, Err == nil: the realm authenticated the token
//   - Info == nil, Err == nil: the account is unknown to the realm
//   - Info == nil, Err != nil: the realm faulted, Err is a *RealmError
type Attempt struct {
	Realm string
	Info  AuthenticationInfo
	Err   error
}

// Succeeded reports whether the realm contributed info
func (a Attempt) Succeeded() bool {
	return a.Err == nil && a.Info != nil
}

// attempt consults realm inside a fault boundary: returned errors and panics
// are captured in the Attempt and never escape.
func attempt(ctx context.Context, realm Realm, token Token) (result Attempt) {
	result.Realm = realm.Name()

	defer func() {
		if r := recover(); r != nil {
			result.Info = nil
			result.Err = &RealmError{Realm: result.Realm, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	info, err := realm.LoadAuthenticationInfo(ctx, token)
	if err != nil {
		result.Err = &RealmError{Realm: result.Realm, Err: err}
		return
	}

	if isNil(info) {
		return
	}

	result.Info = info
	return
}

// isNil also reports typed nil pointers held by the interface,
// a realm returning one has found nothing
func isNil(info AuthenticationInfo) bool {
	if info == nil {
		return true
	}

	v := reflect.ValueOf(info)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
