package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/core/cache"
	"ausyexpo-backend/internal/core/database"
	"ausyexpo-backend/internal/domain"
	"ausyexpo-backend/internal/repo"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	users  *repo.UserRepo
	tokens *auth.TokenService
	auth   *AuthService
	svc    *UserService
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), "silent", zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })

	users := repo.NewUserRepo(db)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := &auth.TokenService{Secret: []byte(testSecret), Issuer: "test", TTL: time.Hour}
	return &fixture{
		users:  users,
		tokens: tokens,
		auth:   NewAuthService(users, hasher, tokens, zap.NewNop()),
		svc:    NewUserService(users, hasher, c, time.Minute, zap.NewNop()),
		mr:     mr,
	}
}

func signUp(email, role string) SignUpInput {
	return SignUpInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "s3cret!",
		Phone:     "+33 1 23 45 67 89",
		Role:      role,
	}
}

func TestSignUp_ActivationDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, r := range domain.AllRoles() {
		v, err := f.auth.SignUp(ctx, signUp(fmt.Sprintf("%s@example.com", r), r.String()))
		require.NoError(t, err, r)
		assert.Equal(t, !r.RequiresActivation(), v.IsActive, r)
		assert.Equal(t, r, v.Role)
	}
}

func TestSignUp_ManagerInactiveHRActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.auth.SignUp(ctx, signUp("m@example.com", "MANAGER"))
	require.NoError(t, err)
	assert.False(t, m.IsActive)

	h, err := f.auth.SignUp(ctx, signUp("h@example.com", "hr"))
	require.NoError(t, err)
	assert.True(t, h.IsActive)
	assert.Equal(t, domain.RoleHR, h.Role)

	_, err = f.auth.SignIn(ctx, SignInInput{Email: "h@example.com", Password: "s3cret!"})
	assert.NoError(t, err)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := signUp("x@example.com", "WIZARD")
	_, err := f.auth.SignUp(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	in = signUp("not-an-email", "HR")
	_, err = f.auth.SignUp(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = signUp("y@example.com", "HR")
	in.Password = "12345"
	_, err = f.auth.SignUp(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = signUp("z@example.com", "HR")
	in.Phone = ""
	_, err = f.auth.SignUp(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	found, err := f.users.ExistsByEmail(ctx, "z@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.SignUp(ctx, signUp("bob@example.com", "EMPLOYEE"))
	require.NoError(t, err)
	_, err = f.auth.SignUp(ctx, signUp("BOB@example.com", "HR"))
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)

	list, err := f.users.ListByRole(ctx, domain.RoleEmployee)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	hr, err := f.users.ListByRole(ctx, domain.RoleHR)
	require.NoError(t, err)
	assert.Empty(t, hr)
}

func TestSignUp_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.auth.SignUp(ctx, signUp("bob@example.com", "EMPLOYEE"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyRegistered)
	}
	assert.Equal(t, 1, ok)
	_, total, err := f.users.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSignIn_ActivationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.auth.SignUp(ctx, signUp("alice@example.com", "BUYER"))
	require.NoError(t, err)
	require.False(t, v.IsActive)

	creds := SignInInput{Email: "alice@example.com", Password: "s3cret!"}
	_, err = f.auth.SignIn(ctx, creds)
	assert.ErrorIs(t, err, domain.ErrAccountNotActivated)

	_, err = f.svc.SetActive(ctx, v.ID, true)
	require.NoError(t, err)

	res, err := f.auth.SignIn(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.EqualValues(t, 3600, res.ExpiresIn)
	assert.Equal(t, v.ID, res.User.ID)

	claims, err := f.tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, v.ID, claims.UID)
	assert.Equal(t, domain.RoleBuyer, claims.Role)
}

func TestSignIn_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.SignUp(ctx, signUp("carol@example.com", "EMPLOYEE"))
	require.NoError(t, err)

	_, errUnknown := f.auth.SignIn(ctx, SignInInput{Email: "nobody@example.com", Password: "s3cret!"})
	_, errWrong := f.auth.SignIn(ctx, SignInInput{Email: "carol@example.com", Password: "s3cret?"})
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())

	_, err = f.auth.SignIn(ctx, SignInInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignIn_WrongPasswordOnInactiveAccountIsInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.SignUp(ctx, signUp("sup@example.com", "SUPPLIER"))
	require.NoError(t, err)

	_, err = f.auth.SignIn(ctx, SignInInput{Email: "sup@example.com", Password: "nope!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignIn_EmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.SignUp(ctx, signUp("Dave@Example.com", "OWNER"))
	require.NoError(t, err)

	_, err = f.auth.SignIn(ctx, SignInInput{Email: "  dave@example.COM ", Password: "s3cret!"})
	assert.NoError(t, err)
}

func TestSignIn_DeactivatedGatedRoleIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Create(ctx, CreateUserInput{
		FirstName: "M", LastName: "Gr", Email: "mgr@example.com", Password: "s3cret!",
		Phone: "1", Role: "MANAGER",
	})
	require.NoError(t, err)
	assert.True(t, v.IsActive)

	_, err = f.auth.SignIn(ctx, SignInInput{Email: "mgr@example.com", Password: "s3cret!"})
	require.NoError(t, err)

	_, err = f.svc.SetActive(ctx, v.ID, false)
	require.NoError(t, err)
	_, err = f.auth.SignIn(ctx, SignInInput{Email: "mgr@example.com", Password: "s3cret!"})
	assert.ErrorIs(t, err, domain.ErrAccountNotActivated)
}
