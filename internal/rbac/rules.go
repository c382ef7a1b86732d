package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"author": {
		"formula:validate",
		"question:edit",
		"question:view",
		"draft:*",
		"items:generate",
		"items:view",
		"items:delete",
	},
	"admin": {
		"*", // everything
	},
}
