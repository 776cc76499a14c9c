package services

import (
	"fmt"
	"time"

	"baatchit/auth"
	"baatchit/errors"
	"baatchit/repositories"
)

type IAuthService interface {
	Login(email, password string) (Token, error)
	Register(email, password, displayName string) (Token, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	directory      IDirectory
	tokenDuration  time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, directory IDirectory,
	tokenDuration time.Duration) IAuthService {
	return &AuthService{
		userRepository: repo,
		directory:      directory,
		tokenDuration:  tokenDuration,
	}
}

func (s *AuthService) Register(email, password, displayName string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash the password using Argon2id.
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, displayName, hashedPassword)
	if err != nil {
		return "", err // Will propagate ErrUserAlreadyExists if email is taken
	}

	// Make the new account visible to contact resolution and search.
	user, err := s.userRepository.GetUserByID(userID)
	if err == nil {
		if err := s.directory.Add(user.Profile()); err != nil {
			return "", err
		}
	}

	token, err := auth.GenerateToken(string(userID), email, displayName, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(string(user.UID), user.Email, user.DisplayName, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
