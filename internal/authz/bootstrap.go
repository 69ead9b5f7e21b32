package authz

import "fmt"

// 预置角色
const (
	RoleRecoveryViewer   = "recovery_viewer"
	RoleRecoveryOperator = "recovery_operator"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 预置角色矩阵
// viewer 只读，operator 继承 viewer 并开放写操作
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: RoleRecoveryViewer,
			Policies: []Policy{
				{Object: "/admin/abandoned-carts", Action: "GET"},
				{Object: "/admin/abandoned-carts/:id", Action: "GET"},
				{Object: "/admin/abandoned-carts/stats", Action: "GET"},
				{Object: "/admin/settings/recovery", Action: "GET"},
				{Object: "/admin/authz/me", Action: "GET"},
			},
		},
		{
			Role:     RoleRecoveryOperator,
			Inherits: []string{RoleRecoveryViewer},
			Policies: []Policy{
				{Object: "/admin/abandoned-carts/detect", Action: "POST"},
				{Object: "/admin/abandoned-carts/reminders/run", Action: "POST"},
				{Object: "/admin/abandoned-carts/:id/remind", Action: "POST"},
				{Object: "/admin/abandoned-carts/:id/conversion", Action: "POST"},
				{Object: "/admin/abandoned-carts/purge", Action: "POST"},
				{Object: "/admin/settings/recovery", Action: "PUT"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略（幂等）
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.ensureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.ensureRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
	}
	return nil
}
