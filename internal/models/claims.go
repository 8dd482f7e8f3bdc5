package models

import "github.com/golang-jwt/jwt/v5"

// Dashboard roles
const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
)

// DashboardClaims are issued by the dashboard's auth service and only
// verified here.
type DashboardClaims struct {
	jwt.RegisteredClaims
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	MerchantID uint   `json:"merchant_id,omitempty"`
}

// CanManageMerchant reports whether the holder may administer merchantID's slabs.
func (c *DashboardClaims) CanManageMerchant(merchantID uint) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == RoleMerchant && c.MerchantID == merchantID
}
