package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	"github.com/noah-isme/sistema-ministerial-api/pkg/config"
)

var tokenOpts struct {
	congregation string
	role         string
	ttl          time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a local development access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Env == config.EnvProduction {
			return errors.New("token signing is disabled in production")
		}
		role := models.UserRole(tokenOpts.role)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", tokenOpts.role)
		}
		now := time.Now()
		claims := models.JWTClaims{
			UserID:         uuid.NewString(),
			Role:           role,
			CongregationID: tokenOpts.congregation,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.JWT.Issuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(tokenOpts.ttl)),
			},
		}
		if cfg.JWT.Audience != "" {
			claims.Audience = jwt.ClaimStrings{cfg.JWT.Audience}
		}
		auth := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})
		signed, err := auth.IssueToken(claims)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.congregation, "congregation", "", "congregation id")
	f.StringVar(&tokenOpts.role, "role", string(models.RoleInstructor), "ADMIN, INSTRUCTOR or VIEWER")
	f.DurationVar(&tokenOpts.ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("congregation")
}
