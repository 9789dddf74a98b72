package identity

import (
	"context"
	"sync"
)

// Fake is an in-memory Directory for tests and local development.
type Fake struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewFake creates a Fake seeded with the given users.
func NewFake(users ...User) *Fake {
	f := &Fake{users: make(map[string]User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *Fake) User(ctx context.Context, id string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (f *Fake) UserByEmail(ctx context.Context, email string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *Fake) ListAdmins(ctx context.Context) ([]User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var admins []User
	for _, u := range f.users {
		if u.IsAdmin() {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

func (f *Fake) SetRole(ctx context.Context, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role = role
	f.users[id] = u
	return nil
}
