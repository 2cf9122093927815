package httpapp

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bunchup/bunchup/internal/auth"
	"github.com/bunchup/bunchup/internal/store/sqlite"

	"github.com/google/uuid"
)

// NewTestServer starts the API over a private in-memory database. Both are
// torn down when the test ends.
func NewTestServer(tb testing.TB) *httptest.Server {
	tb.Helper()
	dsnName := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name()) + "_" + uuid.NewString()[:8]
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnName))
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	authSvc := auth.NewService(st, "test-secret", time.Hour)
	ts := httptest.NewServer(NewServer(st, authSvc))
	tb.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})
	return ts
}
