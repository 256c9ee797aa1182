package entity

// 角色
const (
	RoleManager          = "manager"
	RolePurchaser        = "purchaser"
	RoleInventoryManager = "inventory_manager"
)

// IsKnownRole 是否为系统角色
func IsKnownRole(role string) bool {
	switch role {
	case RoleManager, RolePurchaser, RoleInventoryManager:
		return true
	}
	return false
}

// Actor 当前操作人，由可信的身份层提供
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// HasRole 是否为任一角色
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Owns 是否为该记录的发起人
func (a Actor) Owns(ownerID, ownerName string) bool {
	if ownerID != "" {
		return a.ID == ownerID
	}
	return ownerName != "" && a.Name == ownerName
}

// DisplayName 展示名，缺省用ID
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
