package domain

import "strings"

const (
	GroupUser  = "USER"
	GroupAdmin = "ADMIN"
)

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Group    string `json:"group"`
}

// Complete reports whether the profile has what delivery needs. The gateway knows nothing about addresses.
func (p Profile) Complete() bool {
	return strings.TrimSpace(p.Address) != "" && strings.TrimSpace(p.Phone) != ""
}

func (p Profile) IsAdmin() bool {
	return p.Group == GroupAdmin
}

func (p Profile) Customer() Customer {
	return Customer{
		Email:    p.Email,
		FullName: p.FullName,
		Phone:    p.Phone,
	}
}
