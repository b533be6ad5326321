package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Five wrong PINs from one address: the first three are plain 401s, the
// fourth opens a cooldown, the fifth is refused without touching the
// counter.
func TestLoginFlow_EscalatingFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	ts := SetupTestServer(db)
	defer ts.Close()

	identity := "198.51.100.7"

	for i := 0; i < 3; i++ {
		res := ts.PostLogin(t, identity, "0000", "")
		assert.Equal(t, http.StatusUnauthorized, res.Status)
		assert.Equal(t, "invalid", res.Reason)
	}

	res := ts.PostLogin(t, identity, "0000", "")
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Equal(t, "cooldown", res.Reason)
	assert.InDelta(t, 5, res.RetryAfter, 1)
	assert.NotEmpty(t, res.RetryHdr)

	// The correct PIN is refused too while the window is open
	res = ts.PostLogin(t, identity, TestPIN, "")
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Equal(t, "cooldown", res.Reason)
	assert.Nil(t, res.Cookie)

	// And the refused attempt did not advance the counter
	rec, err := ts.Throttle.Read(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Fails)
}

func TestLoginFlow_SuccessResetsLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	ts := SetupTestServer(db)
	defer ts.Close()

	identity := "198.51.100.8"

	for i := 0; i < 2; i++ {
		res := ts.PostLogin(t, identity, "9999", "")
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	}

	res := ts.PostLogin(t, identity, TestPIN, "")
	require.Equal(t, http.StatusOK, res.Status)
	require.NotNil(t, res.Cookie)
	assert.True(t, ts.Codec.Verify(res.Cookie.Value))

	rec, err := ts.Throttle.Read(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Fails)

	// The minted cookie opens the gate
	resp := ts.GetWithCookie(t, "/protected", res.Cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// And the session endpoint recognizes it
	resp = ts.GetWithCookie(t, "/api/session", res.Cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFlow_GateRedirectsAnonymous(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	ts := SetupTestServer(db)
	defer ts.Close()

	resp := ts.GetWithCookie(t, "/protected", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/gate.html", resp.Header.Get("Location"))

	// A forged cookie is treated the same as none
	forged := &http.Cookie{Name: "wt_session", Value: "bm90LWEtdG9rZW4="}
	resp = ts.GetWithCookie(t, "/protected", forged)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLoginFlow_ChallengeRequiredAtHigherTiers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer db.Teardown(ctx)

	ts := SetupTestServer(db)
	defer ts.Close()

	identity := "198.51.100.9"

	// Drive the counter to 8 directly so the challenge tier is active
	for i := 0; i < 8; i++ {
		_, err := ts.Throttle.RecordFailure(ctx, identity)
		require.NoError(t, err)
	}
	// Clear the cooldown window but keep the count
	_, err = db.Pool.Exec(ctx,
		"UPDATE login_throttle SET updated_at = now() - interval '10 minutes' WHERE identity = $1",
		identity)
	require.NoError(t, err)

	// Without a challenge solution the correct PIN is refused
	ts.Challenge.Result = false
	res := ts.PostLogin(t, identity, TestPIN, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "challenge", res.Reason)

	// Clear the cooldown the refused attempt opened
	_, err = db.Pool.Exec(ctx,
		"UPDATE login_throttle SET updated_at = now() - interval '10 minutes' WHERE identity = $1",
		identity)
	require.NoError(t, err)

	// With a passing solution the login goes through
	ts.Challenge.Result = true
	res = ts.PostLogin(t, identity, TestPIN, "cf-solution")
	assert.Equal(t, http.StatusOK, res.Status)
	require.NotNil(t, res.Cookie)
}
