// Package auth provides authentication and authorization for the back office.
//
// Accounts log in either against the local database (Argon2id password
// hashes) or against an LDAP/Active Directory server. Directory logins create
// or refresh the local account and, when enabled, replace the account's roles
// with the roles named like the user's directory groups.
//
// # Authorization
//
// Users hold roles, roles hold permissions. A permission is named
// module.action, for example category.read or role.update. A user has a
// permission when any of the user's roles carries it.
//
// # Middleware
//
// Fiber middleware protects routes:
//   - RequireLogin: any logged in user
//   - RequirePermission: a specific permission
//   - RequireAnyPermission: at least one of several permissions
//
// Example usage:
//
//	authService := auth.NewService(db, cfg.Auth.Disabled)
//
//	app.Get("/equipment/categories",
//	    auth.RequirePermission(authService, auth.PermCategoryRead),
//	    handler,
//	)
package auth
