// Package provision creates and maintains user accounts for a multi-tenant
// retail platform: store-scoped staff accounts, retailer-level admins, and
// platform administrators.
//
// Operations:
//   - Each provisioning operation is a message + handler pair executed inside
//     one RunInTx unit of work: identity row, password history entry, role
//     assignment, group memberships, and tenant association commit together
//     or not at all.
//   - Platform-admin provisioning is an idempotent upsert so credential
//     rotation can be re-run safely; the other two operations treat an
//     existing username as a conflict.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing provisioning
//     outcomes, including the soft-fail path where a retailer admin is left
//     without a tenant association. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     provisioning.
//
// Profiles:
//   - Profiles.ResolveTx is the single capability for reaching a user's
//     profile row. It hides the users.profile_id to user_profiles.user_id
//     schema migration so call sites never duplicate profile rows.
package provision
