package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastHasher(password string) (string, error) {
	return CreatePasswordHash(password, fastArgon2idParams)
}

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	tokens := NewTokenManager("test-secret", "worktime", time.Hour, env.deps.Now)
	return NewAuthService(env.deps, tokens, WithPasswordHasher(fastHasher))
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates an employee with the minimum rate", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		result, err := svc.Register(context.Background(), RegisterInput{Username: " marek ", Password: "haslo", Name: "Marek"})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if !result.Created || result.Token == "" || result.User.Password != "" {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.User.IsEmployer || !result.User.HourlyRate.Equal(env.deps.Settings.MinimumHourlyRate) {
			t.Fatalf("unexpected profile %+v", result.User)
		}

		stored := env.store.current(t).UserByUsername("marek")
		if stored == nil || !IsPasswordHash(stored.Password) {
			t.Fatalf("expected hashed password stored, got %+v", stored)
		}
	})

	t.Run("rejects taken usernames regardless of case", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		_, err := svc.Register(context.Background(), RegisterInput{Username: "ANNA", Password: "x"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		_, err := svc.Register(context.Background(), RegisterInput{Username: " ab "})
		assertValidationField(t, err, "username")
		assertValidationField(t, err, "password")
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("accepts matching credentials", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		hash, err := fastHasher("sekret")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		env.store.snap.Users[1].Password = hash
		svc := newAuthService(t, env)

		result, err := svc.Login(context.Background(), LoginInput{Username: "Anna", Password: "sekret"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.Created || result.User.ID != "anna" || result.Token == "" {
			t.Fatalf("unexpected result %+v", result)
		}
		if env.recorder.logins[LoginSuccess] != 1 {
			t.Fatal("expected successful login recorded")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		env.store.snap.Users[1].Password = "plain"
		svc := newAuthService(t, env)

		_, err := svc.Login(context.Background(), LoginInput{Username: "anna", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if env.recorder.logins[LoginInvalid] != 1 {
			t.Fatal("expected invalid login recorded")
		}
	})

	t.Run("upgrades a legacy plaintext password", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		env.store.snap.Users[1].Password = "plain"
		svc := newAuthService(t, env)

		if _, err := svc.Login(context.Background(), LoginInput{Username: "anna", Password: "plain"}); err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		stored := env.store.current(t).User("anna")
		if !IsPasswordHash(stored.Password) {
			t.Fatalf("expected rehashed password, got %q", stored.Password)
		}
		if err := VerifyPassword(stored.Password, "plain"); err != nil {
			t.Fatalf("rehashed password does not verify: %v", err)
		}
	})

	t.Run("users without a password log in directly", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		if _, err := svc.Login(context.Background(), LoginInput{Username: "piotr"}); err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
	})

	t.Run("provisions unknown usernames", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		result, err := svc.Login(context.Background(), LoginInput{Username: "nowy", Password: "pass"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if !result.Created || result.User.Name != "nowy" || result.User.IsEmployer {
			t.Fatalf("unexpected provisioned user %+v", result.User)
		}
		if len(env.store.current(t).Users) != 5 {
			t.Fatal("expected provisioned user stored")
		}
		if env.recorder.logins[LoginProvisioned] != 1 {
			t.Fatal("expected provisioning recorded")
		}
	})

	t.Run("requires a username", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := newAuthService(t, env)

		_, err := svc.Login(context.Background(), LoginInput{Username: "  "})
		assertValidationField(t, err, "username")
	})

	t.Run("propagates load failures", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		env.store.loadErr = errStoreDown
		svc := newAuthService(t, env)

		_, err := svc.Login(context.Background(), LoginInput{Username: "anna"})
		if !errors.Is(err, errStoreDown) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, seedSnapshot())
	svc := newAuthService(t, env)
	ctx := context.Background()

	result, err := svc.Login(ctx, LoginInput{Username: "boss"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	principal, err := svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if principal.UserID != "boss" || !principal.IsEmployer {
		t.Fatalf("unexpected principal %+v", principal)
	}

	if _, err := svc.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	env.store.snap.Users = env.store.snap.Users[1:]
	if _, err := svc.Authenticate(ctx, result.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestTokenManager(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	manager := NewTokenManager("secret", "worktime", time.Hour, clock)

	token, expires, err := manager.Generate(seedSnapshot().Users[1])
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expires)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != "anna" || claims.IsEmployer {
		t.Fatalf("unexpected claims %+v", claims)
	}

	cases := []struct {
		name    string
		manager *TokenManager
	}{
		{name: "wrong secret", manager: NewTokenManager("other", "worktime", time.Hour, clock)},
		{name: "wrong issuer", manager: NewTokenManager("secret", "someone-else", time.Hour, clock)},
		{name: "expired", manager: NewTokenManager("secret", "worktime", time.Hour, func() time.Time { return now.Add(2 * time.Hour) })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.manager.Parse(token); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}
