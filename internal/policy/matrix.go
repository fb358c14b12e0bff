package policy

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"ausyexpo-backend/internal/domain"
)

const APIPrefix = "/api/v1"

// RoleSet 允许访问的角色集合
type RoleSet map[domain.Role]struct{}

func Roles(rs ...domain.Role) RoleSet {
	s := make(RoleSet, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(r domain.Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) With(rs ...domain.Role) RoleSet {
	out := make(RoleSet, len(s)+len(rs))
	for r := range s {
		out[r] = struct{}{}
	}
	for _, r := range rs {
		out[r] = struct{}{}
	}
	return out
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, r.String())
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Rule 一条路由的访问要求；OwnerParam 非空时该路径参数等于调用者 uid 也放行
type Rule struct {
	Method     string
	Path       string
	Roles      RoleSet
	OwnerParam string
}

func key(method, path string) string { return method + " " + path }

// Matrix 声明式授权表，按 (method, gin FullPath) 查找；不在表里的路由一律拒绝
type Matrix struct {
	rules []Rule
	index map[string]Rule
}

var (
	ErrDuplicateRule = errors.New("duplicate rule")
	ErrEmptyRule     = errors.New("rule has no roles")
)

func NewMatrix(rules ...Rule) (*Matrix, error) {
	m := &Matrix{rules: rules}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.index = make(map[string]Rule, len(rules))
	for _, r := range rules {
		m.index[key(r.Method, r.Path)] = r
	}
	return m, nil
}

// Validate 拒绝重复或无角色的规则
func (m *Matrix) Validate() error {
	seen := make(map[string]struct{}, len(m.rules))
	for _, r := range m.rules {
		k := key(r.Method, r.Path)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, k)
		}
		seen[k] = struct{}{}
		if len(r.Roles) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyRule, k)
		}
	}
	return nil
}

func (m *Matrix) Lookup(method, path string) (Rule, bool) {
	r, ok := m.index[key(method, path)]
	return r, ok
}

func (m *Matrix) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

var (
	admin    = domain.RoleAdmin
	owner    = domain.RoleOwner
	manager  = domain.RoleManager
	hr       = domain.RoleHR
	employee = domain.RoleEmployee
	buyer    = domain.RoleBuyer
	supplier = domain.RoleSupplier
)

func rule(method, p string, rs RoleSet) Rule {
	return Rule{Method: method, Path: APIPrefix + p, Roles: rs}
}

func get(p string, rs RoleSet) Rule { return rule(http.MethodGet, p, rs) }

func post(p string, rs RoleSet) Rule { return rule(http.MethodPost, p, rs) }

func put(p string, rs RoleSet) Rule { return rule(http.MethodPut, p, rs) }

func patch(p string, rs RoleSet) Rule { return rule(http.MethodPatch, p, rs) }

func del(p string, rs RoleSet) Rule { return rule(http.MethodDelete, p, rs) }

// self 追加本人放行
func self(r Rule, param string) Rule {
	r.OwnerParam = param
	return r
}

// DefaultMatrix 业务系统的完整授权表
func DefaultMatrix() *Matrix {
	m, err := NewMatrix(defaultRules()...)
	if err != nil {
		panic(err)
	}
	return m
}

func defaultRules() []Rule {
	var (
		adminOnly = Roles(admin)
		adminHR   = Roles(admin, hr)
		aom       = Roles(admin, owner, manager)
		am        = Roles(admin, manager)
		ao        = Roles(admin, owner)
		all       = Roles(domain.AllRoles()...)
	)

	var rules []Rule

	// branches
	rules = append(rules,
		get("/branches", adminHR),
		get("/branches/:id", adminHR),
		get("/branches/search", adminHR),
		get("/branches/active", adminHR.With(employee)),
		get("/branches/inactive", adminHR),
		post("/branches", adminOnly),
		put("/branches/:id", adminOnly),
		put("/branches/:id/toggle-status", adminOnly),
		del("/branches/:id", adminOnly),
	)

	// departments
	rules = append(rules,
		get("/departments", aom),
		get("/departments/:id", aom),
		get("/departments/branch/:branchId", aom),
		get("/departments/search", aom),
		get("/departments/with-employee-count", aom),
		get("/departments/count/branch/:branchId", aom),
		post("/departments", am),
		put("/departments/:id", am),
		del("/departments/:id", am),
	)

	// employees：按分支/部门查询、搜索、计数对所有已登录角色开放
	rules = append(rules,
		get("/employees", aom),
		get("/employees/:id", aom),
		get("/employees/branch/:branchId", all),
		get("/employees/department/:departmentId", all),
		get("/employees/search", all),
		get("/employees/count", all),
		get("/employees/count/branch/:branchId", all),
		get("/employees/count/department/:departmentId", all),
		post("/employees", aom),
		put("/employees/:id", aom),
		del("/employees/:id", aom),
	)

	// orders
	rules = append(rules,
		get("/orders", aom),
		get("/orders/:id", aom),
		get("/orders/branch/:branchId", aom),
		get("/orders/customer/:customerId", aom),
		get("/orders/active", aom),
		get("/orders/overdue", aom),
		get("/orders/search", aom),
		get("/orders/date-range", aom),
		get("/orders/delivery-date-range", aom),
		get("/orders/statistics", aom),
		get("/orders/check-order-number", aom),
		post("/orders", aom),
		put("/orders/:id", aom),
		put("/orders/:id/status", aom),
		put("/orders/:id/payment-status", aom),
		del("/orders/:id", ao),
	)

	// commands
	rules = append(rules,
		get("/commands", aom),
		get("/commands/:id", aom),
		get("/commands/issued-by/:userId", aom),
		get("/commands/assigned-to/:userId", aom.With(buyer, supplier)),
		get("/commands/branch/:branchId", aom),
		get("/commands/status/:status", aom),
		get("/commands/priority/:priority", aom),
		get("/commands/type/:type", aom),
		get("/commands/overdue", aom),
		get("/commands/due-between", aom),
		get("/commands/search", aom),
		get("/commands/analytics/status", aom),
		get("/commands/analytics/priority", aom),
		get("/commands/count/status/:status", aom),
		get("/commands/count/user/:userId/status/:status", aom),
		post("/commands", aom),
		put("/commands/:id", aom),
		put("/commands/:id/status", aom.With(buyer, supplier)),
		del("/commands/:id", ao),
	)

	// stock
	rules = append(rules,
		get("/stock", aom),
		get("/stock/:id", aom),
		get("/stock/branch/:branchId", aom),
		get("/stock/search", aom),
		get("/stock/unreleased", aom),
		get("/stock/released", aom),
		get("/stock/branch/:branchId/unreleased", aom),
		get("/stock/summary/branch/:branchId", aom),
		get("/stock/low-stock", aom),
		post("/stock", am),
		put("/stock/:id", am),
		put("/stock/:id/release", am),
		del("/stock/:id", am),
	)

	// supplies
	rules = append(rules,
		get("/supplies", aom.With(supplier)),
		get("/supplies/:id", aom.With(supplier)),
		get("/supplies/supplier/:supplierName", aom.With(supplier)),
		get("/supplies/search", aom.With(supplier)),
		get("/supplies/branch/:branchId", aom),
		get("/supplies/status/:status", aom),
		get("/supplies/pending", aom),
		get("/supplies/low-stock", aom),
		get("/supplies/analytics/category", aom),
		get("/supplies/analytics/status", aom),
		get("/supplies/count/branch/:branchId", aom),
		get("/supplies/count/branch/:branchId/status/:status", aom),
		post("/supplies", am.With(supplier)),
		put("/supplies/:id", am.With(supplier)),
		put("/supplies/:id/status", am),
		del("/supplies/:id", am),
	)

	// transportation
	rules = append(rules,
		get("/transportation", aom),
		get("/transportation/:id", aom),
		get("/transportation/branch/:branchId", aom),
		get("/transportation/active", aom),
		get("/transportation/active/branch/:branchId", aom),
		get("/transportation/search", aom),
		get("/transportation/available", aom),
		get("/transportation/count/branch/:branchId", aom),
		get("/transportation/count/active/branch/:branchId", aom),
		post("/transportation", am),
		put("/transportation/:id", am),
		del("/transportation/:id", am),
	)

	// agreements
	rules = append(rules,
		get("/agreements", aom),
		get("/agreements/:id", aom),
		get("/agreements/search", aom),
		get("/agreements/status/:status", aom),
		get("/agreements/type/:type", aom),
		get("/agreements/active", aom),
		get("/agreements/expiring", aom),
		get("/agreements/count/active", aom),
		get("/agreements/value/total", aom),
		post("/agreements", aom),
		put("/agreements/:id", aom),
		del("/agreements/:id", aom),
	)

	// reports
	rules = append(rules,
		get("/reports/system-overview", aom),
		get("/reports/user-analytics", aom),
		get("/reports/employee-demographics", aom),
		get("/reports/available-reports", aom),
	)

	// users
	rules = append(rules,
		get("/users", adminOnly),
		post("/users", adminOnly),
		get("/users/profile", all),
		put("/users/profile", all),
		get("/users/role/:role", adminOnly),
		self(get("/users/:id", adminOnly), "id"),
		self(put("/users/:id", adminOnly), "id"),
		del("/users/:id", adminOnly),
		patch("/users/:id/toggle-status", adminOnly),
		patch("/users/:id/role", adminOnly),
		post("/users/:id/activate", adminOnly),
		post("/users/:id/deactivate", adminOnly),
	)

	return rules
}
