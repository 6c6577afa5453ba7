package mockapi

import (
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/drivesim-admin/admin"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailInUse   = errors.New("email already registered")
	ErrInvalidLogin = errors.New("invalid email or password")
)

type account struct {
	user         admin.User
	passwordHash string
}

// data is the in-memory backing store of the mock API.
type data struct {
	lock          sync.RWMutex
	nextID        int64
	accounts      map[int64]*account
	emailIDs      map[string]int64 // lower-cased email to account id
	sessions      map[int64]admin.TrainingSession
	registrations map[int64]admin.Registration
}

func newData() *data {
	return &data{
		accounts:      make(map[int64]*account),
		emailIDs:      make(map[string]int64),
		sessions:      make(map[int64]admin.TrainingSession),
		registrations: make(map[int64]admin.Registration),
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *data) createUser(user admin.User) (admin.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return admin.User{}, errors.Wrap(err, "[data.createUser] hash password")
	}
	key := strings.ToLower(user.Email)

	d.lock.Lock()
	defer d.lock.Unlock()
	if _, exists := d.emailIDs[key]; exists {
		return admin.User{}, ErrEmailInUse
	}
	user.ID = d.id()
	user.Password = ""
	d.accounts[user.ID] = &account{user: user, passwordHash: hash}
	d.emailIDs[key] = user.ID
	return user, nil
}

func (d *data) authenticate(email, password string) (admin.User, error) {
	d.lock.RLock()
	id, ok := d.emailIDs[strings.ToLower(email)]
	acc := d.accounts[id]
	d.lock.RUnlock()
	if !ok || acc == nil {
		return admin.User{}, ErrInvalidLogin
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(password)) != nil {
		return admin.User{}, ErrInvalidLogin
	}
	return acc.user, nil
}

func (d *data) listUsers() []admin.User {
	d.lock.RLock()
	defer d.lock.RUnlock()
	out := make([]admin.User, 0, len(d.accounts))
	for _, acc := range d.accounts {
		out = append(out, acc.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) getUser(id int64) (admin.User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	acc, ok := d.accounts[id]
	if !ok {
		return admin.User{}, ErrNotFound
	}
	return acc.user, nil
}

func (d *data) updateUser(id int64, update admin.UserUpdate) (admin.User, error) {
	var hash string
	if update.Password != nil {
		h, err := hashPassword(*update.Password)
		if err != nil {
			return admin.User{}, errors.Wrap(err, "[data.updateUser] hash password")
		}
		hash = h
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	acc, ok := d.accounts[id]
	if !ok {
		return admin.User{}, ErrNotFound
	}
	if update.Email != nil && !strings.EqualFold(*update.Email, acc.user.Email) {
		key := strings.ToLower(*update.Email)
		if _, exists := d.emailIDs[key]; exists {
			return admin.User{}, ErrEmailInUse
		}
		delete(d.emailIDs, strings.ToLower(acc.user.Email))
		d.emailIDs[key] = id
		acc.user.Email = *update.Email
	}
	if update.FirstName != nil {
		acc.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		acc.user.LastName = *update.LastName
	}
	if update.Transmission != nil {
		acc.user.Transmission = *update.Transmission
	}
	if hash != "" {
		acc.passwordHash = hash
	}
	return acc.user, nil
}

// deleteUser also drops the user's registrations.
func (d *data) deleteUser(id int64) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	acc, ok := d.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.emailIDs, strings.ToLower(acc.user.Email))
	delete(d.accounts, id)
	for rid, r := range d.registrations {
		if r.User != nil && r.User.ID == id {
			delete(d.registrations, rid)
		}
	}
	return nil
}

func (d *data) createSession(s admin.TrainingSession) admin.TrainingSession {
	d.lock.Lock()
	defer d.lock.Unlock()
	s.ID = d.id()
	d.sessions[s.ID] = s
	return s
}

func (d *data) listSessions() []admin.TrainingSession {
	d.lock.RLock()
	defer d.lock.RUnlock()
	out := make([]admin.TrainingSession, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) getSession(id int64) (admin.TrainingSession, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	s, ok := d.sessions[id]
	if !ok {
		return admin.TrainingSession{}, ErrNotFound
	}
	return s, nil
}

func (d *data) updateSession(id int64, update admin.SessionUpdate) (admin.TrainingSession, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	s, ok := d.sessions[id]
	if !ok {
		return admin.TrainingSession{}, ErrNotFound
	}
	if update.Scenario != nil {
		s.Scenario = *update.Scenario
	}
	if update.Location != nil {
		s.Location = *update.Location
	}
	if update.Date != nil {
		s.Date = *update.Date
	}
	d.sessions[id] = s
	return s, nil
}

func (d *data) deleteSession(id int64) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(d.sessions, id)
	return nil
}

// createRegistration links the stored user and session by id.
func (d *data) createRegistration(r admin.Registration, userID, sessionID int64) (admin.Registration, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	acc, ok := d.accounts[userID]
	if !ok {
		return admin.Registration{}, errors.Wrapf(ErrNotFound, "user %d", userID)
	}
	s, ok := d.sessions[sessionID]
	if !ok {
		return admin.Registration{}, errors.Wrapf(ErrNotFound, "session %d", sessionID)
	}
	user := acc.user
	r.ID = d.id()
	r.User = &user
	r.Session = &s
	d.registrations[r.ID] = r
	return r, nil
}

func (d *data) listRegistrations() []admin.Registration {
	d.lock.RLock()
	defer d.lock.RUnlock()
	out := make([]admin.Registration, 0, len(d.registrations))
	for _, r := range d.registrations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) getRegistration(id int64) (admin.Registration, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	r, ok := d.registrations[id]
	if !ok {
		return admin.Registration{}, ErrNotFound
	}
	return r, nil
}

func (d *data) updateRegistration(id int64, update admin.RegistrationUpdate) (admin.Registration, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	r, ok := d.registrations[id]
	if !ok {
		return admin.Registration{}, ErrNotFound
	}
	if update.Feedback != nil {
		r.Feedback = *update.Feedback
	}
	if update.Completed != nil {
		r.Completed = *update.Completed
	}
	if update.Paid != nil {
		r.Paid = *update.Paid
	}
	if update.Score != nil {
		r.Score = *update.Score
	}
	if update.TransmissionType != nil {
		r.TransmissionType = *update.TransmissionType
	}
	d.registrations[id] = r
	return r, nil
}

func (d *data) deleteRegistration(id int64) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.registrations[id]; !ok {
		return ErrNotFound
	}
	delete(d.registrations, id)
	return nil
}
