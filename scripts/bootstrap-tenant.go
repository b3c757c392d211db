// Command bootstrap-tenant seeds a company with an owner user and prints
// a signed access token for it. Meant for local development and fresh
// deployments; the API itself never issues tokens.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/orgbase/orgbase/internal/auth"
	"github.com/orgbase/orgbase/internal/model"
	"github.com/orgbase/orgbase/internal/repository"
)

type output struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		jwtSecret   = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HMAC secret for token signing")
		jwtIssuer   = flag.String("jwt-issuer", "orgbase", "Token issuer")
		companyName = flag.String("company", "Acme Inc", "Company name")
		email       = flag.String("email", "owner@example.com", "Owner email")
		ownerName   = flag.String("name", "Owner", "Owner display name")
		ttl         = flag.Duration("ttl", 24*time.Hour, "Token time to live")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	now := time.Now().UTC()

	company := &model.Company{
		ID:        newID(),
		Name:      *companyName,
		Plan:      model.PlanFree,
		Status:    model.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateCompany(ctx, company); err != nil {
		fmt.Fprintf(os.Stderr, "create company: %v\n", err)
		os.Exit(1)
	}

	owner := &model.User{
		ID:        newID(),
		Email:     *email,
		Name:      *ownerName,
		CompanyID: company.ID,
		Role:      model.RoleOwner,
		CreatedAt: now,
	}
	if err := repo.CreateUser(ctx, owner); err != nil {
		fmt.Fprintf(os.Stderr, "create owner: %v\n", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(*jwtSecret, *jwtIssuer)
	token, err := tokens.Sign(owner.ID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	result := output{
		CompanyID: company.ID,
		UserID:    owner.ID,
		Email:     owner.Email,
		Role:      string(owner.Role),
		Token:     token,
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	fmt.Printf("company_id: %s\n", result.CompanyID)
	fmt.Printf("user_id:    %s\n", result.UserID)
	fmt.Printf("email:      %s\n", result.Email)
	fmt.Printf("role:       %s\n", result.Role)
	fmt.Printf("token:      %s\n", result.Token)
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
