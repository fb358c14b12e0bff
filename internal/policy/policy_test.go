package policy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/domain"
)

func newTokens() *auth.TokenService {
	return &auth.TokenService{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour}
}

func issue(t *testing.T, ts *auth.TokenService, uid string, role domain.Role) string {
	t.Helper()
	tok, err := ts.Issue(uid, role, time.Now())
	require.NoError(t, err)
	return tok
}

func TestDefaultMatrix_Valid(t *testing.T) {
	m := DefaultMatrix()
	require.NoError(t, m.Validate())
	assert.NotEmpty(t, m.Rules())
	for _, r := range m.Rules() {
		assert.NotEmpty(t, r.Roles, "%s %s", r.Method, r.Path)
		assert.Contains(t, r.Path, APIPrefix)
	}
}

func TestNewMatrix_RejectsBadRules(t *testing.T) {
	_, err := NewMatrix(get("/x", Roles(admin)), get("/x", Roles(hr)))
	assert.ErrorIs(t, err, ErrDuplicateRule)

	_, err = NewMatrix(get("/x", Roles()))
	assert.ErrorIs(t, err, ErrEmptyRule)

	// 同路径不同方法不算重复
	_, err = NewMatrix(get("/x", Roles(admin)), put("/x", Roles(admin)))
	assert.NoError(t, err)
}

func TestLookup_DenyByDefault(t *testing.T) {
	m := DefaultMatrix()
	_, ok := m.Lookup(http.MethodGet, APIPrefix+"/commands/test")
	assert.False(t, ok)
	_, ok = m.Lookup(http.MethodDelete, APIPrefix+"/users/profile")
	assert.False(t, ok)
	_, ok = m.Lookup(http.MethodGet, "")
	assert.False(t, ok)
}

// 每条规则对每个角色：在集合内放行，不在集合内拒绝
func TestAuthorize_EveryRuleEveryRole(t *testing.T) {
	ts := newTokens()
	a := NewAuthorizer(ts)
	tokens := map[domain.Role]string{}
	for _, r := range domain.AllRoles() {
		tokens[r] = issue(t, ts, "uid-"+r.String(), r)
	}

	for _, rule := range DefaultMatrix().Rules() {
		for _, role := range domain.AllRoles() {
			d := a.Authorize(tokens[role], rule.Roles, "")
			if rule.Roles.Has(role) {
				assert.True(t, d.Allowed, "%s %s as %s", rule.Method, rule.Path, role)
				assert.Equal(t, ReasonRole, d.Reason)
			} else {
				assert.False(t, d.Allowed, "%s %s as %s", rule.Method, rule.Path, role)
				assert.Equal(t, ReasonForbidden, d.Reason)
				assert.ErrorIs(t, d.Err, domain.ErrUnauthorized)
			}
		}
	}
}

func TestDefaultMatrix_SpotChecks(t *testing.T) {
	m := DefaultMatrix()
	cases := []struct {
		method, path string
		want         RoleSet
	}{
		{http.MethodGet, "/branches/active", Roles(admin, hr, employee)},
		{http.MethodPost, "/branches", Roles(admin)},
		{http.MethodDelete, "/departments/:id", Roles(admin, manager)},
		{http.MethodGet, "/employees/branch/:branchId", Roles(domain.AllRoles()...)},
		{http.MethodGet, "/employees", Roles(admin, owner, manager)},
		{http.MethodDelete, "/orders/:id", Roles(admin, owner)},
		{http.MethodGet, "/commands/assigned-to/:userId", Roles(admin, owner, manager, buyer, supplier)},
		{http.MethodPut, "/commands/:id/status", Roles(admin, owner, manager, buyer, supplier)},
		{http.MethodDelete, "/commands/:id", Roles(admin, owner)},
		{http.MethodPost, "/stock", Roles(admin, manager)},
		{http.MethodGet, "/supplies", Roles(admin, owner, manager, supplier)},
		{http.MethodGet, "/supplies/pending", Roles(admin, owner, manager)},
		{http.MethodPut, "/supplies/:id", Roles(admin, manager, supplier)},
		{http.MethodPut, "/supplies/:id/status", Roles(admin, manager)},
		{http.MethodPost, "/transportation", Roles(admin, manager)},
		{http.MethodDelete, "/agreements/:id", Roles(admin, owner, manager)},
		{http.MethodGet, "/reports/system-overview", Roles(admin, owner, manager)},
		{http.MethodGet, "/users", Roles(admin)},
		{http.MethodGet, "/users/profile", Roles(domain.AllRoles()...)},
		{http.MethodPatch, "/users/:id/role", Roles(admin)},
	}
	for _, tc := range cases {
		r, ok := m.Lookup(tc.method, APIPrefix+tc.path)
		require.True(t, ok, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.want.String(), r.Roles.String(), "%s %s", tc.method, tc.path)
	}
}

func TestOwnerOverride(t *testing.T) {
	ts := newTokens()
	a := NewAuthorizer(ts)
	rule, ok := DefaultMatrix().Lookup(http.MethodGet, APIPrefix+"/users/:id")
	require.True(t, ok)
	require.Equal(t, "id", rule.OwnerParam)

	tok := issue(t, ts, "u-42", domain.RoleEmployee)

	d := a.Authorize(tok, rule.Roles, "u-42")
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonOwner, d.Reason)
	assert.Equal(t, "u-42", d.Claims.UID)

	d = a.Authorize(tok, rule.Roles, "u-43")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonForbidden, d.Reason)

	adminTok := issue(t, ts, "u-1", domain.RoleAdmin)
	d = a.Authorize(adminTok, rule.Roles, "u-43")
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonRole, d.Reason)
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	ts := newTokens()
	a := NewAuthorizer(ts)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		d := a.Authorize(tok, Roles(admin), "")
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonUnauthenticated, d.Reason)
		assert.ErrorIs(t, d.Err, auth.ErrUnauthenticated)
	}

	expired, err := ts.Issue("u-1", domain.RoleAdmin, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	d := a.Authorize(expired, Roles(admin), "u-1")
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err, auth.ErrTokenExpired)

	other := &auth.TokenService{Secret: []byte("ffffffffffffffffffffffffffffffff"), TTL: time.Hour}
	d = a.Authorize(issue(t, other, "u-1", domain.RoleAdmin), Roles(admin), "")
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err, auth.ErrTokenInvalid)
}

func TestEvaluate_EmptyRequiredDenies(t *testing.T) {
	c := &auth.Claims{UID: "u-1", Role: domain.RoleAdmin}
	d := Evaluate(c, nil, "")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonForbidden, d.Reason)

	d = Evaluate(nil, Roles(admin), "")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnauthenticated, d.Reason)
}
