package fs

// DefaultOwner is the handle assigned to nodes created without an acting
// user, including the tree root.
const DefaultOwner = "public"

// User identifies an acting principal. Permission maps on nodes are keyed
// by the user's handle; possession of a User value is the capability to act
// under that handle.
//
// A nil *User is the system caller: it bypasses every permission check and
// is reserved for kernel-level maintenance such as account expunging.
type User struct {
	// Handle is the identity that permission entries and node ownership
	// are keyed on.
	Handle string
}

// OwnerHandle returns the handle new nodes created by user should be owned
// by. The system caller creates nodes owned by DefaultOwner.
func OwnerHandle(user *User) string {
	if user == nil {
		return DefaultOwner
	}
	return user.Handle
}
