package services

import (
	"errors"
	"fmt"

	"animelog/auth"
	"animelog/models"
	"animelog/repositories"

	"gorm.io/gorm"
)

// The UserService interface defines the account operations.
type UserService interface {
	Register(input *RegisterInput) (*models.User, error)
	Authenticate(identifier, password string) (*models.User, error)
	UpdateProfile(userID uint, input *UpdateProfileInput) (*models.User, error)
}

// --- Structs for Input ---

type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// UpdateProfileInput overwrites name/username/email. The password changes only
// when NewPassword is non-empty; ProfilePic replaces the stored reference only
// when non-empty.
type UpdateProfileInput struct {
	Name            string
	Username        string
	Email           string
	CurrentPassword string
	NewPassword     string
	ProfilePic      string
}

type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

// Register creates a new account. The password policy runs before the
// duplicate check, so the first failing policy rule is what the user sees.
func (s *userService) Register(input *RegisterInput) (*models.User, error) {
	if msg := auth.ValidatePassword(input.Password); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	taken, err := s.loginTaken(input.Username, input.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: Username or email already registered.", ErrDuplicate)
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, errors.New("could not hash password")
	}

	user := models.User{
		Name:     input.Name,
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
	}
	if err := s.repo.Create(&user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// Authenticate resolves the identifier against username or email and verifies
// the credential.
func (s *userService) Authenticate(identifier, password string) (*models.User, error) {
	user, err := s.repo.FindByLogin(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("database error resolving login: %w", err)
	}

	if !auth.CheckPassword(password, user.Password) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// UpdateProfile overwrites the editable fields. Username and email changes are
// re-checked for uniqueness against other accounts before committing. A
// password change requires the current password to verify and the new password
// to pass the full policy.
func (s *userService) UpdateProfile(userID uint, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error retrieving user: %w", err)
	}

	taken, err := s.loginTaken(input.Username, input.Email, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: Username or email already in use by another account.", ErrDuplicate)
	}

	user.Name = input.Name
	user.Username = input.Username
	user.Email = input.Email

	if input.NewPassword != "" {
		if !auth.CheckPassword(input.CurrentPassword, user.Password) {
			return nil, fmt.Errorf("%w: Current password is incorrect.", ErrValidation)
		}
		if msg := auth.ValidatePassword(input.NewPassword); msg != "" {
			return nil, fmt.Errorf("%w: New %s", ErrValidation, lowerFirst(msg))
		}
		hashed, err := auth.HashPassword(input.NewPassword)
		if err != nil {
			return nil, errors.New("could not hash new password")
		}
		user.Password = hashed
	}

	if input.ProfilePic != "" {
		user.ProfilePic = input.ProfilePic
	}

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to save profile updates: %w", err)
	}
	return user, nil
}

// loginTaken reports whether username or email belongs to an account other
// than selfID. Exact, case-sensitive match on both fields.
func (s *userService) loginTaken(username, email string, selfID uint) (bool, error) {
	if other, err := s.repo.FindByUsername(username); err == nil {
		if other.ID != selfID {
			return true, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("database error checking existing user: %w", err)
	}

	if other, err := s.repo.FindByEmail(email); err == nil {
		if other.ID != selfID {
			return true, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("database error checking existing user: %w", err)
	}
	return false, nil
}

func lowerFirst(msg string) string {
	if msg == "" {
		return msg
	}
	return string(msg[0]|0x20) + msg[1:]
}
