package constants

// Permissions name each protected endpoint's access check.
const (
	ReadProfile        = "read_profile"
	RegisterUser       = "register_user"
	RemoveUser         = "remove_user"
	ViewConnections    = "view_connections"
	ManageConnections  = "manage_connections"
	InviteUser         = "invite_user"
	ManageSubscription = "manage_subscription"
	ViewSubscription   = "view_subscription"
	ViewProducts       = "view_products"
	IdentifyCaller     = "identify_caller"
)
