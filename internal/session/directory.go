// Package session manages the registered accounts of a namespace and the
// account currently logged in there.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"coffeeshop/internal/audit"
	"coffeeshop/internal/auth"
	"coffeeshop/internal/models"
	"coffeeshop/internal/storage"
)

// PasswordHasher is satisfied by *auth.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) (bool, error)
	NeedsRehash(stored string) bool
}

type ProfileUpdate struct {
	Username        string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// AdminAccount describes the bootstrap administrator.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// DefaultAdmin is the administrator created when none is configured.
var DefaultAdmin = AdminAccount{Username: "Admin", Email: "admin@example.com", Password: "admin123"}

// Directory holds the user collection and the current session. The session
// is a password-free copy of a collection entry; changes to one are written
// back to the other explicitly.
type Directory struct {
	users    *storage.Collection[[]models.User]
	current  *storage.Collection[*models.User]
	list     []models.User
	session  *models.User
	hasher   PasswordHasher
	recorder audit.Recorder
	log      *zap.Logger
}

type Option func(*Directory)

func WithHasher(h PasswordHasher) Option {
	return func(d *Directory) { d.hasher = h }
}

func WithRecorder(r audit.Recorder) Option {
	return func(d *Directory) {
		if r != nil {
			d.recorder = r
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Directory) {
		if log != nil {
			d.log = log
		}
	}
}

func Open(ctx context.Context, store *storage.Store, opts ...Option) (*Directory, error) {
	d := &Directory{
		users:    storage.NewCollection[[]models.User](store, storage.KeyUsers),
		current:  storage.NewCollection[*models.User](store, storage.KeyCurrentUser),
		recorder: audit.Nop,
		log:      store.Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hasher == nil {
		d.hasher = auth.NewHasher(auth.DefaultParams)
	}

	list, _, err := d.users.Load(ctx)
	if err != nil {
		return nil, err
	}
	d.list = list

	cur, ok, err := d.current.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok && cur != nil {
		u := cur.Public()
		d.session = &u
	}
	return d, nil
}

// Current returns the logged-in user, if any.
func (d *Directory) Current() (models.User, bool) {
	if d.session == nil {
		return models.User{}, false
	}
	return *d.session, true
}

// IsAdmin reports whether the session holds an administrator.
func (d *Directory) IsAdmin() bool {
	return d.session != nil && d.session.IsAdmin()
}

// Users returns every account without its password.
func (d *Directory) Users() []models.User {
	out := make([]models.User, len(d.list))
	for i, u := range d.list {
		out[i] = u.Public()
	}
	return out
}

func (d *Directory) Register(ctx context.Context, username, email, password string) (models.User, error) {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return models.User{}, models.Invalid(missing...)
	}
	if d.indexOf(email) >= 0 {
		return models.User{}, fmt.Errorf("email %s: %w", email, models.ErrConflict)
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{Username: username, Email: email, Password: hash, Role: models.RoleUser}
	next := append(slices.Clone(d.list), u)
	if err := d.users.Save(ctx, next); err != nil {
		return models.User{}, err
	}
	d.list = next

	if err := d.startSession(ctx, u); err != nil {
		return models.User{}, err
	}
	d.recorder.Record(audit.Event{Topic: audit.UserRegister, Subject: email})
	return u.Public(), nil
}

// Login fails with ErrInvalidCredentials for an unknown email and a wrong
// password alike.
func (d *Directory) Login(ctx context.Context, email, password string) (models.User, error) {
	u, err := d.authenticate(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := d.startSession(ctx, u); err != nil {
		return models.User{}, err
	}
	d.recorder.Record(audit.Event{Topic: audit.UserLogin, Subject: email})
	return u.Public(), nil
}

// AdminLogin is Login restricted to administrators. A valid non-admin login
// leaves the session untouched.
func (d *Directory) AdminLogin(ctx context.Context, email, password string) (models.User, error) {
	u, err := d.authenticate(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	if !u.IsAdmin() {
		return models.User{}, models.ErrInvalidCredentials
	}
	if err := d.startSession(ctx, u); err != nil {
		return models.User{}, err
	}
	d.recorder.Record(audit.Event{Topic: audit.UserLogin, Subject: email, Actor: string(models.RoleAdmin)})
	return u.Public(), nil
}

func (d *Directory) Logout(ctx context.Context) error {
	if err := d.current.Clear(ctx); err != nil {
		return err
	}
	d.session = nil
	return nil
}

func (d *Directory) UpdateProfile(ctx context.Context, upd ProfileUpdate) (models.User, error) {
	if d.session == nil {
		return models.User{}, models.ErrUnauthenticated
	}
	var missing []string
	if upd.Username == "" {
		missing = append(missing, "username")
	}
	if upd.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return models.User{}, models.Invalid(missing...)
	}

	i := d.indexOf(d.session.Email)
	if i < 0 {
		return models.User{}, fmt.Errorf("account %s: %w", d.session.Email, models.ErrNotFound)
	}
	if j := d.indexOf(upd.Email); j >= 0 && j != i {
		return models.User{}, fmt.Errorf("email %s: %w", upd.Email, models.ErrConflict)
	}

	next := slices.Clone(d.list)
	u := next[i]
	if upd.NewPassword != "" {
		if upd.CurrentPassword == "" {
			return models.User{}, models.ErrInvalidCredentials
		}
		ok, err := d.hasher.Verify(upd.CurrentPassword, u.Password)
		if err != nil && !errors.Is(err, auth.ErrMalformedHash) {
			return models.User{}, err
		}
		if !ok {
			return models.User{}, models.ErrInvalidCredentials
		}
		hash, err := d.hasher.Hash(upd.NewPassword)
		if err != nil {
			return models.User{}, err
		}
		u.Password = hash
	}
	previous := u.Email
	u.Username = upd.Username
	u.Email = upd.Email
	next[i] = u

	if err := d.users.Save(ctx, next); err != nil {
		return models.User{}, err
	}
	d.list = next
	if err := d.startSession(ctx, u); err != nil {
		return models.User{}, err
	}
	d.recorder.Record(audit.Event{Topic: audit.UserUpdate, Subject: u.Email, Actor: previous})
	return u.Public(), nil
}

// EnsureAdmin creates the administrator account unless a user with its email
// already exists. The session is not changed.
func (d *Directory) EnsureAdmin(ctx context.Context, acct AdminAccount) error {
	if acct.Email == "" || acct.Password == "" {
		return models.Invalid("email", "password")
	}
	if d.indexOf(acct.Email) >= 0 {
		return nil
	}
	if acct.Username == "" {
		acct.Username = DefaultAdmin.Username
	}
	hash, err := d.hasher.Hash(acct.Password)
	if err != nil {
		return err
	}
	next := append(slices.Clone(d.list), models.User{
		Username: acct.Username,
		Email:    acct.Email,
		Password: hash,
		Role:     models.RoleAdmin,
	})
	if err := d.users.Save(ctx, next); err != nil {
		return err
	}
	d.list = next
	d.log.Info("admin account created", zap.String("email", acct.Email))
	return nil
}

// authenticate verifies the credentials and upgrades legacy password records.
func (d *Directory) authenticate(ctx context.Context, email, password string) (models.User, error) {
	i := d.indexOf(email)
	if i < 0 || password == "" {
		return models.User{}, models.ErrInvalidCredentials
	}
	u := d.list[i]
	ok, err := d.hasher.Verify(password, u.Password)
	if err != nil {
		d.log.Warn("unreadable password record", zap.String("email", email), zap.Error(err))
		return models.User{}, models.ErrInvalidCredentials
	}
	if !ok {
		return models.User{}, models.ErrInvalidCredentials
	}

	if d.hasher.NeedsRehash(u.Password) {
		if hash, err := d.hasher.Hash(password); err == nil {
			next := slices.Clone(d.list)
			next[i].Password = hash
			if err := d.users.Save(ctx, next); err != nil {
				d.log.Warn("password upgrade not saved", zap.String("email", email), zap.Error(err))
			} else {
				d.list = next
				u = next[i]
			}
		}
	}
	return u, nil
}

func (d *Directory) startSession(ctx context.Context, u models.User) error {
	pub := u.Public()
	if err := d.current.Save(ctx, &pub); err != nil {
		return err
	}
	d.session = &pub
	return nil
}

// indexOf matches emails exactly, including case.
func (d *Directory) indexOf(email string) int {
	return slices.IndexFunc(d.list, func(u models.User) bool { return u.Email == email })
}
