package authc

// SimpleAuthenticationInfo is the default AuthenticationInfo.
// It is not safe for concurrent mutation, every attempt owns its own instance.
type SimpleAuthenticationInfo struct {
	principals  []Principal
	credentials []string
}

var _ AuthenticationInfo = (*SimpleAuthenticationInfo)(nil)

// NewAuthenticationInfo creates an info holding principal of the given kind
// backed by credentials
func NewAuthenticationInfo(kind string, principal string, credentials ...string) *SimpleAuthenticationInfo {
	info := &SimpleAuthenticationInfo{}
	info.AddPrincipal(kind, principal)
	for _, c := range credentials {
		info.AddCredential(c)
	}
	return info
}

func (i *SimpleAuthenticationInfo) Principal() string {
	if i == nil || len(i.principals) == 0 {
		return ""
	}
	return i.principals[0].Value
}

func (i *SimpleAuthenticationInfo) Principals() []Principal {
	if i == nil {
		return []Principal{}
	}
	result := make([]Principal, len(i.principals))
	copy(result, i.principals)
	return result
}

func (i *SimpleAuthenticationInfo) Credentials() []string {
	if i == nil {
		return []string{}
	}
	result := make([]string, len(i.credentials))
	copy(result, i.credentials)
	return result
}

// PrincipalsOf returns the values of every principal of kind
func (i *SimpleAuthenticationInfo) PrincipalsOf(kind string) []string {
	values := make([]string, 0)
	if i == nil {
		return values
	}
	for _, p := range i.principals {
		if p.Kind == kind {
			values = append(values, p.Value)
		}
	}
	return values
}

// Empty reports whether nothing was ever added
func (i *SimpleAuthenticationInfo) Empty() bool {
	return i == nil || len(i.principals) == 0 && len(i.credentials) == 0
}

// AddPrincipal adds a principal unless the same kind and value is already present
func (i *SimpleAuthenticationInfo) AddPrincipal(kind string, value string) {
	p := Principal{Kind: kind, Value: value}
	for _, v := range i.principals {
		if v == p {
			return
		}
	}
	i.principals = append(i.principals, p)
}

// AddCredential adds credential evidence unless already present
func (i *SimpleAuthenticationInfo) AddCredential(credential string) {
	for _, v := range i.credentials {
		if v == credential {
			return
		}
	}
	i.credentials = append(i.credentials, credential)
}

// Merge unions the principals and credentials of other into i.
// Merging into or from a nil info does nothing.
func (i *SimpleAuthenticationInfo) Merge(other AuthenticationInfo) {
	if i == nil || isNil(other) {
		return
	}

	for _, p := range other.Principals() {
		i.AddPrincipal(p.Kind, p.Value)
	}
	for _, c := range other.Credentials() {
		i.AddCredential(c)
	}
}

// NewSimpleAuthenticationInfo is the default InfoFactory
func NewSimpleAuthenticationInfo(Token) AuthenticationInfo {
	return &SimpleAuthenticationInfo{}
}

// MergeSimple is the default Merger. Aggregates that are not
// *SimpleAuthenticationInfo are left untouched.
func MergeSimple(aggregate AuthenticationInfo, single AuthenticationInfo) {
	if sai, ok := aggregate.(*SimpleAuthenticationInfo); ok {
		sai.Merge(single)
	}
}
