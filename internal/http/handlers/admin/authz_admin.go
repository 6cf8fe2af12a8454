package admin

import (
	"strings"

	"github.com/fulfil-next/internal/authz"
	"github.com/fulfil-next/internal/constants"
	handlershared "github.com/fulfil-next/internal/http/handlers/shared"
	"github.com/fulfil-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RolePolicyRequest 角色策略变更请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetAuthzMe 当前运营身份及角色权限
func (h *Handler) GetAuthzMe(c *gin.Context) {
	operator, ok := handlershared.GetContextString(c, "operator")
	if !ok {
		return
	}
	role, ok := handlershared.GetContextString(c, "operator_role")
	if !ok {
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"operator": operator,
		"role":     role,
		"policies": policies,
	})
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色直连策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzRolePolicy 为角色授予策略
func (h *Handler) GrantAuthzRolePolicy(c *gin.Context) {
	h.changeRolePolicy(c, "granted", h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzRolePolicy 撤销角色策略
func (h *Handler) RevokeAuthzRolePolicy(c *gin.Context) {
	h.changeRolePolicy(c, "revoked", h.AuthzService.RevokeRolePolicy)
}

func (h *Handler) changeRolePolicy(c *gin.Context, op string, apply func(role, object, action string) error) {
	role, err := authz.NormalizeRole(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.authz_policy_invalid", err)
		return
	}
	// owner 的通配策略是后台唯一的兜底入口
	if role == "role:"+constants.OperatorRoleOwner {
		respondError(c, response.CodeForbidden, "error.authz_role_protected", nil)
		return
	}
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.authz_policy_invalid", err)
		return
	}
	object := authz.NormalizeObject(req.Object)
	if !strings.HasPrefix(object, "/admin/") {
		respondError(c, response.CodeBadRequest, "error.authz_policy_invalid", nil)
		return
	}
	if err := apply(role, object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.authz_policy_invalid", err)
		return
	}
	requestLog(c).Infow("admin_authz_policy_"+op,
		"role", role,
		"object", object,
		"action", authz.NormalizeAction(req.Action),
		"operator", c.GetString("operator"),
	)
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, policies)
}
