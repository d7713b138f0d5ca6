package account

import (
	"net/http"
	"strconv"
	"sync"
	"testing"

	"ledger-api/test/integration/testenv"

	"github.com/stretchr/testify/require"
)

// TestConcurrentTransfer fires 100 distinct transfers from the same source
// account at once and checks the row lock acquired in PaymentEngine.transfer
// serializes them correctly: no transfer is lost or double-applied.
func TestConcurrentTransfer(t *testing.T) {
	router := testenv.NewRouter(t)

	fromID := testenv.CreateAccount(t, router, "source-user", "USD", "100.00")
	toID := testenv.CreateAccount(t, router, "dest-user", "USD", "")

	var wg sync.WaitGroup
	n := 100
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			resp := testenv.Transfer(t, router, fromID, toID, "1.00", "USD", "concurrent-transfer-"+strconv.Itoa(i))
			if resp.Code != http.StatusCreated {
				t.Errorf("transfer %d failed: %d %s", i, resp.Code, resp.Body.String())
			}
		}(i)
	}

	wg.Wait()

	require.Equal(t, "0.00", testenv.GetBalance(t, router, fromID))
	require.Equal(t, "100.00", testenv.GetBalance(t, router, toID))
}

// TestConcurrentReciprocalTransfers moves money in both directions between
// two accounts at once, exercising the ascending-account-id lock ordering
// in PaymentEngine.attemptTransfer that prevents an AB/BA deadlock.
func TestConcurrentReciprocalTransfers(t *testing.T) {
	router := testenv.NewRouter(t)

	a := testenv.CreateAccount(t, router, "reciprocal-a", "USD", "500.00")
	b := testenv.CreateAccount(t, router, "reciprocal-b", "USD", "500.00")

	var wg sync.WaitGroup
	n := 50
	wg.Add(n * 2)

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			resp := testenv.Transfer(t, router, a, b, "2.00", "USD", "reciprocal-ab-"+strconv.Itoa(i))
			if resp.Code != http.StatusCreated {
				t.Errorf("a->b transfer %d failed: %d %s", i, resp.Code, resp.Body.String())
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			resp := testenv.Transfer(t, router, b, a, "2.00", "USD", "reciprocal-ba-"+strconv.Itoa(i))
			if resp.Code != http.StatusCreated {
				t.Errorf("b->a transfer %d failed: %d %s", i, resp.Code, resp.Body.String())
			}
		}(i)
	}

	wg.Wait()

	require.Equal(t, "500.00", testenv.GetBalance(t, router, a), "equal reciprocal transfers must net to the starting balance")
	require.Equal(t, "500.00", testenv.GetBalance(t, router, b))
}
