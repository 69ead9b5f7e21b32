package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	return svc
}

func TestBootstrapBuiltinRolesIsIdempotent(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 2 || roles[0] != "role:recovery_operator" || roles[1] != "role:recovery_viewer" {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(1, []string{RoleRecoveryViewer}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	cases := []struct {
		path   string
		method string
		want   bool
	}{
		{path: "/api/v1/admin/abandoned-carts", method: "GET", want: true},
		{path: "/api/v1/admin/abandoned-carts/:id", method: "get", want: true},
		{path: "/api/v1/admin/abandoned-carts/stats", method: "GET", want: true},
		{path: "/api/v1/admin/abandoned-carts/:id/remind", method: "POST", want: false},
		{path: "/api/v1/admin/abandoned-carts/purge", method: "POST", want: false},
		{path: "/api/v1/admin/settings/recovery", method: "PUT", want: false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceAdmin(1, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", tc.method, tc.path, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s want %v got %v", tc.method, tc.path, tc.want, allow)
		}
	}
}

func TestOperatorInheritsViewer(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(2, []string{RoleRecoveryOperator}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}
	for _, tc := range []struct{ path, method string }{
		{"/api/v1/admin/abandoned-carts", "GET"},
		{"/api/v1/admin/abandoned-carts/42/remind", "POST"},
		{"/api/v1/admin/abandoned-carts/detect", "POST"},
	} {
		allow, err := svc.EnforceAdmin(2, tc.path, tc.method)
		if err != nil || !allow {
			t.Fatalf("operator should access %s %s: allow=%v err=%v", tc.method, tc.path, allow, err)
		}
	}
	policies, err := svc.GetAdminPolicies(2)
	if err != nil {
		t.Fatalf("get admin policies failed: %v", err)
	}
	if len(policies) != 11 {
		t.Fatalf("operator should see 11 effective policies, got %d", len(policies))
	}
}

func TestSetAdminRolesOverridesAndRejectsUnknown(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetAdminRoles(3, []string{RoleRecoveryOperator}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{RoleRecoveryViewer}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(3)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:recovery_viewer" {
		t.Fatalf("roles want [role:recovery_viewer], got=%v", roles)
	}
	if err := svc.SetAdminRoles(3, []string{"superuser"}); err == nil {
		t.Fatalf("unknown role should be rejected")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/abandoned-carts/:id", want: "/admin/abandoned-carts/:id"},
		{in: "/admin/abandoned-carts/:id", want: "/admin/abandoned-carts/:id"},
		{in: "admin/abandoned-carts", want: "/admin/abandoned-carts"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		if got := NormalizeObject(item.in); got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}
