package chat

import "github.com/aeolun/clicklite/pkg/clickup"

// Directory maps user ids to workspace members. It is built once and not
// modified afterwards.
type Directory struct {
	users map[string]clickup.User
}

func NewDirectory(users []clickup.User) Directory {
	d := Directory{users: make(map[string]clickup.User, len(users))}
	for _, u := range users {
		d.users[u.IDString()] = u
	}
	return d
}

func (d Directory) Len() int {
	return len(d.users)
}

// Lookup finds a member by id
func (d Directory) Lookup(id string) (clickup.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// AuthorName names the author of msg, falling back to the directory when the
// message itself carries no username or email
func (d Directory) AuthorName(msg clickup.Message) string {
	if msg.HasCreatorIdentity() {
		return msg.CreatorName()
	}
	if u, ok := d.users[msg.CreatorID()]; ok && u.DisplayName() != "" {
		return u.DisplayName()
	}
	return msg.CreatorName()
}
