package identity

import "fmt"

// Role determines which subset of orders a session may observe and mutate.
type Role uint8

const (
	RoleUnauthenticated Role = iota
	RoleAdmin
	RoleDelivery
	RoleHotelUser
)

// String renders the wire form of the role as carried in auth claims.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleDelivery:
		return "delivery"
	case RoleHotelUser:
		return "user"
	default:
		return "unauthenticated"
	}
}

// ParseRole maps an auth claim value onto a Role.
func ParseRole(raw string) (Role, error) {
	switch raw {
	case "admin":
		return RoleAdmin, nil
	case "delivery":
		return RoleDelivery, nil
	case "user":
		return RoleHotelUser, nil
	default:
		return RoleUnauthenticated, fmt.Errorf("unknown role: %q", raw)
	}
}

// Identity is the authenticated principal of a session. Fields are unexported
// so that only the constructors below can produce one; a hotel id exists
// exactly when the role is RoleHotelUser.
type Identity struct {
	role    Role
	userID  string
	hotelID string
}

// Admin builds an administrator identity.
func Admin(userID string) Identity {
	return Identity{role: RoleAdmin, userID: userID}
}

// Delivery builds a delivery-role identity.
func Delivery(userID string) Identity {
	return Identity{role: RoleDelivery, userID: userID}
}

// HotelUser builds a hotel-scoped identity. The hotel id is mandatory.
func HotelUser(userID, hotelID string) (Identity, error) {
	if hotelID == "" {
		return Identity{}, fmt.Errorf("hotel user %q has no hotel id", userID)
	}
	return Identity{role: RoleHotelUser, userID: userID, hotelID: hotelID}, nil
}

// Unauthenticated is the zero principal; it observes nothing.
func Unauthenticated() Identity {
	return Identity{}
}

// Role returns the session role.
func (id Identity) Role() Role { return id.role }

// UserID returns the authenticated user id, empty when unauthenticated.
func (id Identity) UserID() string { return id.userID }

// HotelID returns the owning hotel id; ok is false unless the role is
// RoleHotelUser.
func (id Identity) HotelID() (string, bool) {
	if id.role != RoleHotelUser {
		return "", false
	}
	return id.hotelID, true
}
