package view

import "github.com/bunchup/bunchup/internal/model"

const (
	PermEvents        = "Create and manage events"
	PermPolls         = "Manage polls and voting"
	PermUsers         = "Manage users and roles"
	PermAnnounce      = "Post announcements"
	PermAnalytics     = "Access analytics"
	PermDeleteContent = "Delete content"
)

var permissionOrder = []string{PermEvents, PermPolls, PermUsers, PermAnnounce, PermAnalytics, PermDeleteContent}

type Permission struct {
	Name    string
	Granted bool
}

// Dashboard summarizes what a role may do.
type Dashboard struct {
	Role        model.Role
	Title       string
	Description string
	Permissions []Permission
}

func DashboardFor(role model.Role) Dashboard {
	d := Dashboard{Role: role}
	var granted map[string]bool
	switch role {
	case model.RoleAdmin:
		d.Title, d.Description = "Admin", "Full control over union operations"
		granted = map[string]bool{PermEvents: true, PermPolls: true, PermUsers: true, PermAnnounce: true, PermAnalytics: true, PermDeleteContent: true}
	case model.RoleOrganizer:
		d.Title, d.Description = "Organizer", "Lead discussions and coordinate activities"
		granted = map[string]bool{PermEvents: true, PermPolls: true, PermAnnounce: true}
	default:
		d.Role = model.RoleMember
		d.Title, d.Description = "Member", "Participate in union activities"
	}
	for _, name := range permissionOrder {
		d.Permissions = append(d.Permissions, Permission{Name: name, Granted: granted[name]})
	}
	return d
}

func (d Dashboard) Can(name string) bool {
	for _, p := range d.Permissions {
		if p.Name == name {
			return p.Granted
		}
	}
	return false
}

// CanOrganize gates creating unions, posts, events and polls.
func (d Dashboard) CanOrganize() bool {
	return d.Role.CanOrganize()
}

func (d Dashboard) IsAdmin() bool {
	return d.Role == model.RoleAdmin
}
