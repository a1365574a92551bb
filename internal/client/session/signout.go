package session

import "context"

// Logouter ends server sessions.
type Logouter interface {
	Logout(ctx context.Context) error
	AdminLogout(ctx context.Context) error
}

// SignOut ends the session on the server and tears down the store. The
// store is torn down whatever the server answered; the server error is
// still returned.
func SignOut(ctx context.Context, l Logouter, store *Store, adminScope bool) error {
	var err error
	if adminScope {
		err = l.AdminLogout(ctx)
	} else {
		err = l.Logout(ctx)
	}
	store.Teardown()
	return err
}
