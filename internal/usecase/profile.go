package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/profile"
	"github.com/rentloop/auth-service/internal/repository"
)

// ErrUnknownDocumentKind rejects uploads for document slots the profile
// does not have.
var ErrUnknownDocumentKind = errors.New("unknown document kind")

// DocumentStorage is the subset of the object store uploads need.
// Defined here (point of use) so tests can inject a fake.
type DocumentStorage interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
}

// ProfileUsecase glues role resolution, the completion evaluator and
// document uploads together for the profile endpoints.
type ProfileUsecase struct {
	users    repository.UserStore
	resolver *profile.Resolver
	docs     DocumentStorage
	logger   *slog.Logger
}

func NewProfileUsecase(users repository.UserStore, resolver *profile.Resolver, docs DocumentStorage, logger *slog.Logger) *ProfileUsecase {
	return &ProfileUsecase{
		users:    users,
		resolver: resolver,
		docs:     docs,
		logger:   logger.With("component", "profile_usecase"),
	}
}

// Completion resolves the user's role and evaluates the gating state the
// UI renders.
func (u *ProfileUsecase) Completion(ctx context.Context, user *domain.User) domain.Completion {
	role := u.resolver.Resolve(ctx, user.Role)
	return profile.Evaluate(user, role)
}

// Document slots accepted by AttachDocument.
const (
	DocumentIdentityCard     = "identity_card"
	DocumentProofOfEnrolment = "proof_of_enrolment"
	DocumentGuarantorLetter  = "guarantor_letter"
)

// AttachDocument stores the file and records its object reference in the
// matching profile slot. The upload is the primary write: a failure there
// fails the request before the user record is touched.
func (u *ProfileUsecase) AttachDocument(ctx context.Context, user *domain.User, kind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s%s", user.ID, kind, uuid.NewString(), path.Ext(filename))

	var patch repository.UserPatch
	switch kind {
	case DocumentIdentityCard:
		patch.IdentityCard = &objectName
	case DocumentProofOfEnrolment:
		patch.ProofOfEnrolment = &objectName
	case DocumentGuarantorLetter:
		patch.GuarantorLetter = &objectName
	default:
		return "", ErrUnknownDocumentKind
	}

	if err := u.docs.Upload(ctx, objectName, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload document: %w", err)
	}

	if _, err := u.users.Update(ctx, user.ID, patch); err != nil {
		return "", fmt.Errorf("record document reference: %w", err)
	}
	return objectName, nil
}
