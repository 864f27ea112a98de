package utils

import (
	"errors"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/dealbase/backend/internal/models"
)

// Claims represents the JWT claims. Subscription state is embedded at issue
// time so request-path authorization never needs a database read.
type Claims struct {
	UserID            uuid.UUID                 `json:"user_id"`
	Email             string                    `json:"email"`
	IsAdmin           bool                      `json:"is_admin"`
	Tier              models.SubscriptionTier   `json:"tier,omitempty"`
	SubscriptionState models.SubscriptionStatus `json:"subscription_state,omitempty"`
	CancelAtPeriodEnd bool                      `json:"cancel_at_period_end,omitempty"`
	jwt.StandardClaims
}

// TokenPair represents an access and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	TokenType    string `json:"token_type"`
}

// getJWTSecret returns the JWT secret from environment variable or a default for development
func getJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Default secret for development only
		return "dealbase_development_jwt_secret_key"
	}
	return secret
}

// GenerateTokenPair creates access and refresh tokens for a user. The
// subscription may be nil for users on no plan.
func GenerateTokenPair(user *models.User, sub *models.Subscription) (TokenPair, error) {
	accessExpiration := time.Now().Add(15 * time.Minute)
	refreshExpiration := time.Now().Add(7 * 24 * time.Hour)

	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	if sub != nil {
		claims.Tier = sub.Tier
		claims.SubscriptionState = sub.Status
		claims.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}

	accessClaims := claims
	accessClaims.StandardClaims = jwt.StandardClaims{ExpiresAt: accessExpiration.Unix()}

	refreshClaims := claims
	refreshClaims.StandardClaims = jwt.StandardClaims{ExpiresAt: refreshExpiration.Unix()}

	jwtSecret := getJWTSecret()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(jwtSecret))
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(jwtSecret))
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    accessExpiration.Unix() - time.Now().Unix(),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	jwtSecret := getJWTSecret()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}

	return claims, nil
}
