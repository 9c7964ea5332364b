// Package service implements the business logic for accounts, stores,
// ratings, and platform stats.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/StoreRatingsGo/internal/access"
	"github.com/utafrali/StoreRatingsGo/internal/auth"
	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/event"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	"github.com/utafrali/StoreRatingsGo/internal/session"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

const (
	nameMinLength    = 20
	nameMaxLength    = 60
	addressMaxLength = 400
	passwordMin      = 8
	passwordMax      = 16

	specialChars = `!@#$%^&*(),.?":{}|<>`
)

// AccountService implements registration, authentication, and account
// administration.
type AccountService struct {
	accounts repository.AccountRepository
	jwt      *auth.JWTManager
	sessions session.Store
	producer *event.Producer
	logger   *slog.Logger
}

// NewAccountService creates an account service.
func NewAccountService(
	accounts repository.AccountRepository,
	jwt *auth.JWTManager,
	sessions session.Store,
	producer *event.Producer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		jwt:      jwt,
		sessions: sessions,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Address  string
	Password string
}

// LoginInput holds the parameters for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// ChangePasswordInput holds the parameters for a password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// CreateAccountInput holds the parameters for admin account creation.
type CreateAccountInput struct {
	Name     string
	Email    string
	Address  string
	Password string
	Role     string
}

// ListAccountsInput narrows and pages an account listing.
type ListAccountsInput struct {
	Role   string
	Search string
	Offset int
	Limit  int
}

// Register creates a customer account and opens a session.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.Account, string, error) {
	if err := validateAccountFields(input.Name, input.Email, input.Address); err != nil {
		return nil, "", err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	account, err := s.createAccount(ctx, input.Name, input.Email, input.Address, input.Password, domain.RoleCustomer)
	if err != nil {
		return nil, "", err
	}

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, "", err
	}

	s.producer.AccountRegistered(ctx, account)

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID.String()),
		slog.String("role", account.Role.String()),
	)

	return account, token, nil
}

// Authenticate verifies credentials and opens a session. Unknown emails and
// wrong passwords produce the same error so the endpoint cannot be used to
// probe which emails are registered.
func (s *AccountService) Authenticate(ctx context.Context, input LoginInput) (*domain.Account, string, error) {
	if input.Email == "" || input.Password == "" {
		return nil, "", apperrors.Auth("invalid email or password")
	}

	account, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", apperrors.Auth("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", apperrors.Auth("invalid email or password")
	}

	token, err := s.openSession(ctx, account)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "session opened",
		slog.String("account_id", account.ID.String()),
	)

	return account, token, nil
}

// CurrentSession resolves a token to its live principal. Tokens that parse
// but whose session was revoked are rejected.
func (s *AccountService) CurrentSession(ctx context.Context, token string) (*session.Principal, error) {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		return nil, apperrors.Auth("invalid or expired session")
	}

	principal, err := s.sessions.Load(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Auth("invalid or expired session")
	}

	return &principal, nil
}

// EndSession revokes the session behind a token. Ending an already-ended
// session succeeds.
func (s *AccountService) EndSession(ctx context.Context, token string) error {
	claims, err := s.jwt.Verify(token)
	if err != nil {
		// Expired or malformed tokens carry no live session.
		return nil
	}

	if err := s.sessions.Clear(ctx, claims.ID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.logger.InfoContext(ctx, "session ended",
		slog.String("account_id", claims.AccountID),
	)
	return nil
}

// ChangePassword verifies the current password and replaces it, then revokes
// every other session the account holds. The session behind currentToken
// stays live so the caller is not logged out by their own change.
func (s *AccountService) ChangePassword(ctx context.Context, accountID uuid.UUID, currentToken string, input ChangePasswordInput) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperrors.Auth("current password is incorrect")
	}

	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	keepTokenID := ""
	if claims, err := s.jwt.Verify(currentToken); err == nil {
		keepTokenID = claims.ID
	}
	if err := s.sessions.ClearAccount(ctx, accountID.String(), keepTokenID); err != nil {
		return fmt.Errorf("revoke other sessions: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("account_id", accountID.String()),
	)
	return nil
}

// AdminCreateAccount creates an account with an arbitrary role. Only admins
// may call it.
func (s *AccountService) AdminCreateAccount(ctx context.Context, callerRole domain.Role, input CreateAccountInput) (*domain.Account, error) {
	if !access.Decide(callerRole, access.OpCreateAccount, access.Resource{}) {
		return nil, apperrors.Forbidden("insufficient permissions")
	}

	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.Validation("role", "must be one of admin, customer, store_owner")
	}

	if err := validateAccountFields(input.Name, input.Email, input.Address); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	account, err := s.createAccount(ctx, input.Name, input.Email, input.Address, input.Password, role)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created by admin",
		slog.String("account_id", account.ID.String()),
		slog.String("role", account.Role.String()),
	)

	return account, nil
}

// ListAccounts returns accounts matching the filter. Only admins may call it.
func (s *AccountService) ListAccounts(ctx context.Context, callerRole domain.Role, input ListAccountsInput) ([]domain.Account, int64, error) {
	if !access.Decide(callerRole, access.OpListAccounts, access.Resource{}) {
		return nil, 0, apperrors.Forbidden("insufficient permissions")
	}

	filter := repository.AccountFilter{
		Search: input.Search,
		Offset: input.Offset,
		Limit:  input.Limit,
	}
	if input.Role != "" {
		role, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, 0, apperrors.Validation("role", "must be one of admin, customer, store_owner")
		}
		filter.Role = role
	}

	accounts, total, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

// GetAccount returns an account, visible to admins and the account itself.
func (s *AccountService) GetAccount(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, targetID uuid.UUID) (*domain.Account, error) {
	res := access.Resource{AccountID: callerID, TargetAccountID: targetID}
	if !access.Decide(callerRole, access.OpViewAccount, res) {
		return nil, apperrors.Forbidden("insufficient permissions")
	}

	account, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (s *AccountService) createAccount(ctx context.Context, name, email, address, password string, role domain.Role) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Address:      strings.TrimSpace(address),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *AccountService) openSession(ctx context.Context, account *domain.Account) (string, error) {
	token, err := s.jwt.Generate(account)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	claims, err := s.jwt.Verify(token)
	if err != nil {
		return "", fmt.Errorf("verify fresh token: %w", err)
	}

	principal := session.Principal{
		AccountID: account.ID.String(),
		Email:     account.Email,
		Role:      account.Role.String(),
	}
	if err := s.sessions.Save(ctx, claims.ID, principal, s.jwt.TTL()); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	return token, nil
}

func validateAccountFields(name, email, address string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < nameMinLength || n > nameMaxLength {
		return apperrors.Validation("name", fmt.Sprintf("must be between %d and %d characters", nameMinLength, nameMaxLength))
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return apperrors.Validation("email", "must be a valid email address")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return apperrors.Validation("address", "is required")
	}
	if utf8.RuneCountInString(address) > addressMaxLength {
		return apperrors.Validation("address", fmt.Sprintf("must not exceed %d characters", addressMaxLength))
	}

	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < passwordMin || n > passwordMax {
		return apperrors.Validation("password", fmt.Sprintf("must be between %d and %d characters", passwordMin, passwordMax))
	}

	var hasUpper, hasSpecial bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}
	if !hasUpper {
		return apperrors.Validation("password", "must contain at least one uppercase letter")
	}
	if !hasSpecial {
		return apperrors.Validation("password", "must contain at least one special character")
	}

	return nil
}
