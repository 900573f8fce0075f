// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/shoplane/shoplane-backend/internal/config"
	"github.com/shoplane/shoplane-backend/internal/models"
	"github.com/shoplane/shoplane-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret-key",
			AccessTokenTTL:  24,
			RefreshTokenTTL: 168,
		},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	s.service = NewAuthService(s.db, cfg)
}

func (s *AuthServiceTestSuite) register() *AuthResponse {
	resp, err := s.service.Register(&RegisterRequest{
		Email:       "customer@example.com",
		Password:    "StrongPass1!",
		DisplayName: "Customer",
	})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceTestSuite) TestRegisterCreatesCustomer() {
	resp := s.register()

	s.Equal(models.UserRoleCustomer, resp.User.Role)
	s.Equal(models.UserStatusActive, resp.User.Status)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID.String(), claims.UserID)
	s.Equal("customer", claims.Role)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsDuplicateEmail() {
	s.register()

	_, err := s.service.Register(&RegisterRequest{
		Email:       "customer@example.com",
		Password:    "StrongPass1!",
		DisplayName: "Copycat",
	})
	s.Error(err)
	s.Contains(err.Error(), "already exists")
}

func (s *AuthServiceTestSuite) TestRegisterRejectsWeakPassword() {
	_, err := s.service.Register(&RegisterRequest{
		Email:       "weak@example.com",
		Password:    "short",
		DisplayName: "Weak",
	})
	s.Error(err)
	s.Contains(err.Error(), "validation failed")
}

func (s *AuthServiceTestSuite) TestLogin() {
	s.register()

	resp, err := s.service.Login(&LoginRequest{
		Email:    "customer@example.com",
		Password: "StrongPass1!",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotNil(resp.User.LastLoginAt)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	s.register()

	_, err := s.service.Login(&LoginRequest{
		Email:    "customer@example.com",
		Password: "WrongPass1!",
	})
	s.Error(err)
	s.Contains(err.Error(), "invalid email or password")
}

func (s *AuthServiceTestSuite) TestLoginDisabledAccount() {
	resp := s.register()
	s.Require().NoError(s.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).Update("status", models.UserStatusDisabled).Error)

	_, err := s.service.Login(&LoginRequest{
		Email:    "customer@example.com",
		Password: "StrongPass1!",
	})
	s.Error(err)
	s.Contains(err.Error(), "disabled")
}

func (s *AuthServiceTestSuite) TestRefreshToken() {
	resp := s.register()

	refreshed, err := s.service.RefreshToken(resp.RefreshToken)
	s.Require().NoError(err)
	s.NotEmpty(refreshed.AccessToken)
	s.Equal(resp.User.ID, refreshed.User.ID)

	_, err = s.service.RefreshToken("not-a-token")
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestUpdateAddress() {
	resp := s.register()

	user, err := s.service.UpdateAddress(resp.User.ID, &UpdateAddressRequest{
		Address: "42 Harbor Road, Colombo",
	})
	s.Require().NoError(err)
	s.Equal("42 Harbor Road, Colombo", user.Address)

	_, err = s.service.UpdateAddress(resp.User.ID, &UpdateAddressRequest{})
	s.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
