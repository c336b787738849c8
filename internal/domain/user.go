package domain

// Role is the viewer category. It decides which orders are visible.
type Role int

const (
	RoleAdmin   Role = 0
	RoleCashier Role = 1
	RoleCook    Role = 2
	RoleClient  Role = 3
)

func (r Role) Valid() bool {
	return r >= RoleAdmin && r <= RoleClient
}

// IsStaff is true for every role that sees all orders.
func (r Role) IsStaff() bool {
	return r != RoleClient
}

type User struct {
	ID           int64  `json:"idusers"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Role         Role   `json:"rol"`
	Token        string `json:"token,omitempty"`
	PasswordHash string `json:"-"`
}

// Session is the signed-in viewer: created at sign-in, cleared at sign-out.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Favorite is a membership-only relation between a user and a product.
type Favorite struct {
	UserID    int64 `json:"idusers"`
	ProductID int64 `json:"idproducts"`
}
