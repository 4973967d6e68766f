package main

import (
	"strings"

	"github.com/pkg/errors"

	"netdrive/internel/identity"
	. "netdrive/internel/log"
)

type userSpec struct {
	Email    string
	Password string
	Root     string
}

// parseUser reads email:password[:root]. The password may not contain a colon
// when a root is given.
func parseUser(s string) (userSpec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return userSpec{}, errors.Errorf("bad user %q, want email:password[:root]", s)
	}
	u := userSpec{Email: parts[0], Password: parts[1]}
	if len(parts) == 3 {
		u.Root = parts[2]
	}
	return u, nil
}

func LoadUsers(storage string, specs []string) (*identity.Memory, error) {
	users := identity.NewMemory(storage, 0)
	for _, s := range specs {
		u, err := parseUser(s)
		if err != nil {
			return nil, err
		}
		if err := users.Add(u.Email, u.Password, u.Root); err != nil {
			return nil, errors.Wrapf(err, "add user %s", u.Email)
		}
		Log.Infof("User %s registered", u.Email)
	}
	return users, nil
}
