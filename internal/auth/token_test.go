package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/apihub/apihub/internal/model"
)

func TestTokenManager_IssueVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret", "apihub", time.Hour)
	user := &model.User{ID: "01HZUSER", Role: model.RoleDeveloper}

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Role != model.RoleDeveloper {
		t.Errorf("role = %q, want developer", claims.Role)
	}
	if claims.Issuer != "apihub" {
		t.Errorf("issuer = %q, want apihub", claims.Issuer)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "01HZUSER", Role: model.RoleUser}
	good := NewTokenManager("test-secret", "apihub", time.Hour)

	expired := NewTokenManager("test-secret", "apihub", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherSecret, err := NewTokenManager("other-secret", "apihub", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	otherIssuer, err := NewTokenManager("test-secret", "someone-else", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := good.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
