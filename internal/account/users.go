package account

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is the sanitized shape handed back to the HTTP layer; the password
// hash never leaves this package.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type userRecord struct {
	User
	passwordHash []byte
	createdAt    time.Time
}

// Users is an in-memory registry keyed by lowercased email. It lives for the
// process lifetime only.
type Users struct {
	mu      sync.Mutex
	byEmail map[string]userRecord
}

func NewUsers() *Users {
	return &Users{byEmail: make(map[string]userRecord)}
}

func (u *Users) Register(name, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || password == "" {
		return User{}, errors.New("email and password are required")
	}
	if len(password) < minPasswordLength {
		return User{}, errors.New("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, exists := u.byEmail[email]; exists {
		return User{}, ErrEmailTaken
	}

	record := userRecord{
		User:         User{ID: uuid.NewString(), Email: email, Name: name},
		passwordHash: hash,
		createdAt:    time.Now().UTC(),
	}
	u.byEmail[email] = record

	return record.User, nil
}

func (u *Users) Authenticate(email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u.mu.Lock()
	record, exists := u.byEmail[email]
	u.mu.Unlock()

	if !exists {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(record.passwordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return record.User, nil
}
