package auth

import (
	"context"
	"errors"
	"fmt"

	"obraflow/pkg/types"

	"github.com/sirupsen/logrus"
)

type ProfileStore interface {
	Profile(ctx context.Context, uid string) (*types.Profile, error)
	CreateProfile(ctx context.Context, profile *types.Profile) error
}

// Resolver turns an authenticated subject into a role. A principal
// without a profile row gets one auto-provisioned with the default
// role; first resolution wins.
type Resolver struct {
	logger      *logrus.Logger
	profiles    ProfileStore
	defaultRole types.Role
}

func NewResolver(logger *logrus.Logger, profiles ProfileStore, defaultRole types.Role) (*Resolver, error) {
	if !types.ValidRole(defaultRole) {
		return nil, fmt.Errorf("invalid default role %q", defaultRole)
	}

	return &Resolver{
		logger:      logger,
		profiles:    profiles,
		defaultRole: defaultRole,
	}, nil
}

// Resolve returns the principal's stored role, provisioning the
// profile on first sight. A stored role outside the known set comes
// back as types.ErrUnknownRole.
func (r *Resolver) Resolve(ctx context.Context, uid, name string) (types.Role, error) {

	profile, err := r.profiles.Profile(ctx, uid)
	if err != nil {
		if !errors.Is(err, types.ErrProfileNotFound) {
			return "", fmt.Errorf("load profile: %w", err)
		}

		if err := r.Provision(ctx, uid, name); err != nil {
			return "", err
		}

		return r.defaultRole, nil
	}

	if !types.ValidRole(profile.Role) {
		r.logger.WithFields(logrus.Fields{
			"uid":  uid,
			"role": profile.Role,
		}).Error("profile has unrecognized role")
		return "", types.ErrUnknownRole
	}

	return profile.Role, nil
}

// Provision creates the profile row with the default role. Safe to
// call when the row already exists.
func (r *Resolver) Provision(ctx context.Context, uid, name string) error {

	if name == "" {
		name = "Usuario"
	}

	profile := &types.Profile{
		UID:  uid,
		Name: name,
		Role: r.defaultRole,
	}

	if err := r.profiles.CreateProfile(ctx, profile); err != nil {
		return fmt.Errorf("provision profile: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"uid":  uid,
		"role": r.defaultRole,
	}).Info("provisioned profile with default role")

	return nil
}
