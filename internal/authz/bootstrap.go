package authz

import (
	"fmt"

	"github.com/fulfil-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 运营角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.OperatorRoleViewer,
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     constants.OperatorRoleFulfillment,
			Inherits: []string{constants.OperatorRoleViewer},
			Policies: []Policy{
				{Object: "/admin/orders/:id/confirm-payment", Action: "POST"},
				{Object: "/admin/orders/:id/processing", Action: "POST"},
				{Object: "/admin/orders/:id/tracking", Action: "PUT"},
				{Object: "/admin/orders/:id/shipping-email", Action: "POST"},
				{Object: "/admin/orders/:id/delivered", Action: "POST"},
				{Object: "/admin/orders/:id/cancel", Action: "POST"},
			},
		},
		{
			Role:     constants.OperatorRoleMarketing,
			Inherits: []string{constants.OperatorRoleViewer},
			Policies: []Policy{
				{Object: "/admin/promo-codes", Action: "*"},
				{Object: "/admin/promo-codes/:id", Action: "*"},
				{Object: "/admin/email-templates/:name", Action: "PUT"},
				{Object: "/admin/emails/test", Action: "POST"},
			},
		},
		{
			Role:     constants.OperatorRoleOwner,
			Inherits: []string{constants.OperatorRoleFulfillment, constants.OperatorRoleMarketing},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
	}
	return nil
}
