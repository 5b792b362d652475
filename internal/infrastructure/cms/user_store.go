package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/repository"
)

const usersCollection = "users"

// UserStore implements repository.UserStore on the CMS users collection.
// The CMS hashes passwords at rest; plaintext passwords only ever travel
// inside create/update payloads over the authenticated transport.
type UserStore struct {
	client *Client
}

func NewUserStore(client *Client) *UserStore {
	return &UserStore{client: client}
}

// userRecord mirrors the flat snake_case schema of the users collection.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	Role         roleField `json:"role"`
	SessionToken string    `json:"session_token"`

	ResponsibleFirstName    string `json:"responsible_first_name"`
	ResponsibleLastName     string `json:"responsible_last_name"`
	ResponsibleEmail        string `json:"responsible_email"`
	ResponsiblePhone        string `json:"responsible_phone"`
	ResponsibleRelationship string `json:"responsible_relationship"`
	ResponsibleAddress      string `json:"responsible_address"`
	ResponsibleNationalID   string `json:"responsible_national_id"`

	IdentityCardFile     string `json:"identity_card_file"`
	ProofOfEnrolmentFile string `json:"proof_of_enrolment_file"`
	GuarantorLetterFile  string `json:"guarantor_letter_file"`

	AccountNumber    string      `json:"account_number"`
	BankID           looseString `json:"bank_id"`
	AccountType      string      `json:"account_type"`
	NationalIDNumber string      `json:"national_id_number"`
	NationalIDType   string      `json:"national_id_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		Status:       domain.Status(r.Status),
		Role:         r.Role.RoleRef,
		SessionToken: r.SessionToken,
		Responsible: domain.ResponsibleParty{
			FirstName:    r.ResponsibleFirstName,
			LastName:     r.ResponsibleLastName,
			Email:        r.ResponsibleEmail,
			Phone:        r.ResponsiblePhone,
			Relationship: r.ResponsibleRelationship,
			Address:      r.ResponsibleAddress,
			NationalID:   r.ResponsibleNationalID,
		},
		Documents: domain.Documents{
			IdentityCard:     r.IdentityCardFile,
			ProofOfEnrolment: r.ProofOfEnrolmentFile,
			GuarantorLetter:  r.GuarantorLetterFile,
		},
		Payment: domain.PaymentDetails{
			AccountNumber:    r.AccountNumber,
			BankID:           string(r.BankID),
			AccountType:      r.AccountType,
			NationalIDNumber: r.NationalIDNumber,
			NationalIDType:   r.NationalIDType,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// roleField absorbs the three shapes the role column shows up in: an
// inlined object, a bare id string, or a raw name string. This is the only
// seam where shape-sniffing happens; everything downstream sees a RoleRef.
// Unmarshalling never fails; unusable input decodes to the zero RoleRef.
type roleField struct {
	domain.RoleRef
}

func (f *roleField) UnmarshalJSON(b []byte) error {
	f.RoleRef = domain.RoleRef{}

	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		if obj.Name != "" {
			f.Name = obj.Name
			return nil
		}
		if obj.ID != "" {
			f.ID = obj.ID
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil && s != "" {
		// Bare uuid strings are references into the roles collection;
		// anything else is taken as the role name itself.
		if _, err := uuid.Parse(s); err == nil {
			f.ID = s
		} else {
			f.Name = s
		}
	}
	return nil
}

// looseString tolerates string, number and null values in one column.
type looseString string

func (l *looseString) UnmarshalJSON(b []byte) error {
	*l = ""
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = looseString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*l = looseString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, input repository.CreateUserInput) (*domain.User, error) {
	payload := map[string]any{
		"email":      input.Email,
		"password":   input.Password,
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"phone":      input.Phone,
		"status":     string(input.Status),
	}

	var rec userRecord
	if err := s.client.CreateItem(ctx, usersCollection, payload, &rec); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findOne(ctx, Query{Predicates: []Predicate{Eq("id", id)}, Limit: 1})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, Query{Predicates: []Predicate{Eq("email", email)}, Limit: 1})
}

func (s *UserStore) FindBySessionToken(ctx context.Context, sessionToken string) (*domain.User, error) {
	return s.findOne(ctx, Query{Predicates: []Predicate{Eq("session_token", sessionToken)}, Limit: 1})
}

func (s *UserStore) findOne(ctx context.Context, q Query) (*domain.User, error) {
	var recs []userRecord
	if err := s.client.ListItems(ctx, usersCollection, q, &recs); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(recs) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return recs[0].toDomain(), nil
}

// VerifyCredentials delegates the password check to the CMS, which owns the
// hashes. 401/403 map to ErrInvalidCredentials; everything else is upstream
// failure.
func (s *UserStore) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	payload := map[string]string{"email": email, "password": password}

	var rec userRecord
	if err := s.client.Post(ctx, "/auth/verify", payload, &rec); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *UserStore) Update(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	payload := map[string]any{}
	if patch.Status != nil {
		payload["status"] = string(*patch.Status)
	}
	if patch.Password != nil {
		payload["password"] = *patch.Password
	}
	if patch.SessionToken != nil {
		payload["session_token"] = *patch.SessionToken
	}
	if patch.IdentityCard != nil {
		payload["identity_card_file"] = *patch.IdentityCard
	}
	if patch.ProofOfEnrolment != nil {
		payload["proof_of_enrolment_file"] = *patch.ProofOfEnrolment
	}
	if patch.GuarantorLetter != nil {
		payload["guarantor_letter_file"] = *patch.GuarantorLetter
	}
	if len(payload) == 0 {
		return s.FindByID(ctx, id)
	}

	var rec userRecord
	if err := s.client.UpdateItem(ctx, usersCollection, id, payload, &rec); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return rec.toDomain(), nil
}
