// internal/app/store/memory/accounts.go
package memorystore

import (
	"context"
	"strings"
	"sync"
	"time"

	userstore "github.com/dalemusser/quicklist/internal/app/store/users"
	"github.com/dalemusser/quicklist/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Accounts is an in-memory account registry with the same contract as
// userstore.Store. Registered emails are added to the embedded Directory
// so sharing can resolve them.
type Accounts struct {
	*Directory

	mu      sync.Mutex
	byEmail map[string]models.User
	cost    int
}

// NewAccounts returns an empty registry. cost is the bcrypt cost; zero
// means bcrypt.DefaultCost.
func NewAccounts(cost int) *Accounts {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Accounts{Directory: NewDirectory(), byEmail: map[string]models.User{}, cost: cost}
}

// Register creates an account. Errors match userstore.Store.Register.
func (a *Accounts) Register(ctx context.Context, email, password, fullName string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, userstore.ErrEmailRequired
	}
	if len(password) < userstore.MinPasswordLength {
		return models.User{}, userstore.ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return models.User{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byEmail[email]; ok {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	fullName = strings.TrimSpace(fullName)
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	a.byEmail[email] = u
	a.Add(u.ID, email)
	return u, nil
}

// Authenticate checks email and password.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	a.mu.Lock()
	u, ok := a.byEmail[strings.TrimSpace(email)]
	a.mu.Unlock()
	if !ok {
		return nil, userstore.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, userstore.ErrInvalidCredentials
	}
	return &u, nil
}
