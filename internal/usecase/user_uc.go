package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/domain"
	"subscription-storefront/internal/domain/model"
	"subscription-storefront/internal/domain/ports/adapter"
	"subscription-storefront/internal/domain/ports/repository"
	"subscription-storefront/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase covers registration, activation and credential flows.
type UserUseCase interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Activate(ctx context.Context, code string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

// MailLinks holds fmt patterns for the links embedded in transactional mail,
// e.g. "https://shop.example.com/auth/activate?code=%s".
type MailLinks struct {
	Activation    string
	PasswordReset string
}

type userUC struct {
	users  repository.UserRepository
	plans  repository.SubscriptionPlanRepository
	subs   repository.SubscriptionRepository
	tokens repository.TokenStore
	// mailer sends inline; a failed activation mail rolls the signup back.
	// asyncMailer queues fire-and-forget mail such as password resets.
	mailer      adapter.Mailer
	asyncMailer adapter.Mailer
	tm          repository.TransactionManager

	links    MailLinks
	tokenTTL time.Duration
	log      *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	plans repository.SubscriptionPlanRepository,
	subs repository.SubscriptionRepository,
	tokens repository.TokenStore,
	mailer adapter.Mailer,
	asyncMailer adapter.Mailer,
	tm repository.TransactionManager,
	links MailLinks,
	tokenTTL time.Duration,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{
		users:       users,
		plans:       plans,
		subs:        subs,
		tokens:      tokens,
		mailer:      mailer,
		asyncMailer: asyncMailer,
		tm:          tm,
		links:       links,
		tokenTTL:    tokenTTL,
		log:         logger,
	}
}

const freeSignupDays = 365

// Register creates an inactive account on the Free plan and emails an
// activation link. The account, its subscription and the mail send are one
// atomic unit: a failed send rolls everything back so the username stays
// available for a retry.
func (u *userUC) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}

	user, err := model.NewUser("", username, email, password)
	if err != nil {
		return nil, err
	}

	freePlan, err := u.plans.FindByName(ctx, repository.NoTX, model.TierFree.String())
	if err != nil {
		return nil, fmt.Errorf("free plan lookup: %w", err)
	}

	code := uuid.NewString()
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.users.Save(ctx, tx, user); err != nil {
			return err
		}
		sub, err := model.NewUserSubscription(uuid.NewString(), user.ID, freePlan, freeSignupDays, time.Now())
		if err != nil {
			return err
		}
		if err := u.subs.Upsert(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.tokens.Put(ctx, repository.TokenActivation, code, user.ID, u.tokenTTL); err != nil {
			return err
		}
		return u.mailer.Send(ctx, adapter.Mail{
			To:      email,
			Subject: "Activate your account",
			HTML: fmt.Sprintf(
				"<p>Hi %s,</p><p>Click <a href=%q>here</a> to activate your account.</p>",
				username, fmt.Sprintf(u.links.Activation, code),
			),
		})
	})
	if err != nil {
		u.log.Warn().Err(err).Str("username", username).Msg("registration failed")
		return nil, err
	}

	u.log.Info().Str("user_id", user.ID).Msg("user registered, awaiting activation")
	return user, nil
}

func (u *userUC) Activate(ctx context.Context, code string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Activate")()

	userID, err := u.tokens.Redeem(ctx, repository.TokenActivation, code)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		usr.IsActive = true
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		user = usr
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", user.ID).Msg("account activated")
	return user, nil
}

func (u *userUC) Login(ctx context.Context, username, password string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()

	user, err := u.users.FindByUsername(ctx, repository.NoTX, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	user.TouchLogin()
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset mails a single-use reset link. An unknown email is
// reported as success so the endpoint cannot be used to probe accounts.
func (u *userUC) RequestPasswordReset(ctx context.Context, email string) error {
	defer logging.TraceDuration(u.log, "UserUC.RequestPasswordReset")()

	user, err := u.users.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Info().Str("email", logging.Redact(email)).Msg("reset requested for unknown email")
			return nil
		}
		return err
	}

	code := uuid.NewString()
	if err := u.tokens.Put(ctx, repository.TokenPasswordReset, code, user.ID, u.tokenTTL); err != nil {
		return err
	}
	return u.asyncMailer.Send(ctx, adapter.Mail{
		To:      email,
		Subject: "Reset your password",
		HTML: fmt.Sprintf(
			"<p>Click <a href=%q>here</a> to choose a new password. The link expires soon.</p>",
			fmt.Sprintf(u.links.PasswordReset, code),
		),
	})
}

func (u *userUC) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	defer logging.TraceDuration(u.log, "UserUC.ConfirmPasswordReset")()

	if newPassword == "" {
		return domain.ErrInvalidArgument
	}
	userID, err := u.tokens.Redeem(ctx, repository.TokenPasswordReset, code)
	if err != nil {
		return err
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := user.SetPassword(newPassword); err != nil {
			return err
		}
		return u.users.Save(ctx, tx, user)
	})
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.CountUsers(ctx, repository.NoTX)
}
