package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/drivesim-admin/apiclient"
	apperrors "github.com/jrsteele09/drivesim-admin/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BasePath is the root of the admin dashboard API.
const BasePath = "/api/v1/admin-dashboard"

// API is the part of *apiclient.Client the services use.
type API interface {
	Do(ctx context.Context, method, path string, in, out any, opts ...apiclient.RequestOption) error
}

var _ API = (*apiclient.Client)(nil)

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return apiclient.StatusCode(err) == http.StatusNotFound
}

// resource implements the calls shared by every admin collection. Updates go to
// /{name}/name/{id}, which is the path the API exposes for partial updates.
type resource[T any, U any] struct {
	api  API
	name string
	op   string
}

func (r resource[T, U]) collection() string {
	return BasePath + "/" + r.name
}

func (r resource[T, U]) item(id int64) string {
	return fmt.Sprintf("%s/%d", r.collection(), id)
}

func (r resource[T, U]) list(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.api.Do(ctx, http.MethodGet, r.collection(), nil, &items); err != nil {
		return nil, fmt.Errorf("[%s.List] %w", r.op, err)
	}
	return items, nil
}

func (r resource[T, U]) get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.api.Do(ctx, http.MethodGet, r.item(id), nil, &item); err != nil {
		return nil, fmt.Errorf("[%s.Get] id %d: %w", r.op, id, err)
	}
	return &item, nil
}

func (r resource[T, U]) update(ctx context.Context, id int64, update U) (*T, error) {
	var item T
	path := fmt.Sprintf("%s/name/%d", r.collection(), id)
	if err := r.api.Do(ctx, http.MethodPut, path, update, &item); err != nil {
		return nil, fmt.Errorf("[%s.Update] id %d: %w", r.op, id, err)
	}
	return &item, nil
}

func (r resource[T, U]) delete(ctx context.Context, id int64) error {
	if err := r.api.Do(ctx, http.MethodDelete, r.item(id), nil, nil); err != nil {
		return fmt.Errorf("[%s.Delete] id %d: %w", r.op, id, err)
	}
	return nil
}

// Users manages learner and staff accounts.
type Users struct {
	resource[User, UserUpdate]
}

func NewUsers(api API) *Users {
	return &Users{resource[User, UserUpdate]{api: api, name: "users", op: "Users"}}
}

func (u *Users) List(ctx context.Context) ([]User, error) {
	return u.list(ctx)
}

func (u *Users) Get(ctx context.Context, id int64) (*User, error) {
	return u.get(ctx, id)
}

// Create registers a new account. Email and password are required and the email must
// be well formed.
func (u *Users) Create(ctx context.Context, user User) (*User, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Transmission != "" {
		t, err := ParseTransmission(string(user.Transmission))
		if err != nil {
			return nil, apperrors.Wrapf(ErrInvalidUser, "[Users.Create] %v", err)
		}
		user.Transmission = t
	}
	if err := validate.Struct(user); err != nil {
		return nil, apperrors.Wrapf(ErrInvalidUser, "[Users.Create] %v", err)
	}
	user.ID = 0

	var created User
	if err := u.api.Do(ctx, http.MethodPost, u.collection(), user, &created); err != nil {
		return nil, fmt.Errorf("[Users.Create] %w", err)
	}
	return &created, nil
}

func (u *Users) Update(ctx context.Context, id int64, update UserUpdate) (*User, error) {
	return u.update(ctx, id, update)
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	return u.delete(ctx, id)
}

// Sessions manages scheduled training sessions.
type Sessions struct {
	resource[TrainingSession, SessionUpdate]
}

func NewSessions(api API) *Sessions {
	return &Sessions{resource[TrainingSession, SessionUpdate]{api: api, name: "sessions", op: "Sessions"}}
}

func (s *Sessions) List(ctx context.Context) ([]TrainingSession, error) {
	return s.list(ctx)
}

func (s *Sessions) Get(ctx context.Context, id int64) (*TrainingSession, error) {
	return s.get(ctx, id)
}

func (s *Sessions) Update(ctx context.Context, id int64, update SessionUpdate) (*TrainingSession, error) {
	return s.update(ctx, id, update)
}

func (s *Sessions) Delete(ctx context.Context, id int64) error {
	return s.delete(ctx, id)
}

// Registrations manages bookings of users onto sessions.
type Registrations struct {
	resource[Registration, RegistrationUpdate]
}

func NewRegistrations(api API) *Registrations {
	return &Registrations{resource[Registration, RegistrationUpdate]{api: api, name: "registrations", op: "Registrations"}}
}

func (r *Registrations) List(ctx context.Context) ([]Registration, error) {
	return r.list(ctx)
}

func (r *Registrations) Get(ctx context.Context, id int64) (*Registration, error) {
	return r.get(ctx, id)
}

func (r *Registrations) Update(ctx context.Context, id int64, update RegistrationUpdate) (*Registration, error) {
	return r.update(ctx, id, update)
}

func (r *Registrations) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

// Service groups the admin collections.
type Service struct {
	Users         *Users
	Sessions      *Sessions
	Registrations *Registrations
}

func New(api API) *Service {
	return &Service{
		Users:         NewUsers(api),
		Sessions:      NewSessions(api),
		Registrations: NewRegistrations(api),
	}
}
