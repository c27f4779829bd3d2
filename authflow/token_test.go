package authflow

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenStore_ExpiringWithin(t *testing.T) {
	tests := []struct {
		name string
		tok  *oauth2.Token
		d    time.Duration
		want bool
	}{
		{
			name: "no token stored",
			tok:  nil,
			d:    time.Minute,
			want: false,
		},
		{
			name: "empty access token",
			tok:  &oauth2.Token{RefreshToken: "r"},
			d:    time.Minute,
			want: false,
		},
		{
			name: "expiring inside the window",
			tok:  testToken("a-token", "r", 30*time.Second),
			d:    time.Minute,
			want: true,
		},
		{
			name: "already expired",
			tok:  testToken("a-token", "r", -time.Minute),
			d:    time.Minute,
			want: true,
		},
		{
			name: "comfortably valid",
			tok:  testToken("a-token", "r", 2*time.Hour),
			d:    time.Minute,
			want: false,
		},
		{
			name: "token with unknown expiry counts as expiring",
			tok:  &oauth2.Token{AccessToken: "a-token", RefreshToken: "r"},
			d:    time.Minute,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewTokenStore()
			if tt.tok != nil {
				store.Update(tt.tok)
			}
			if got := store.ExpiringWithin(tt.d); got != tt.want {
				t.Errorf("ExpiringWithin(%v) = %v, want %v", tt.d, got, tt.want)
			}
		})
	}
}

// TestTokenStore_AtomicUpdates hammers the store with a writer replacing
// the whole token and readers snapshotting it. Every snapshot must pair an
// access token with the expiry written in the same Update; the expiry
// encodes the writer's sequence number so a torn read is detectable.
func TestTokenStore_AtomicUpdates(t *testing.T) {
	store := NewTokenStore()
	epoch := time.Unix(1_700_000_000, 0)

	const writes = 500
	const readers = 4

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				tok := store.Token()
				if tok == nil {
					continue
				}
				seqStr, ok := strings.CutPrefix(tok.AccessToken, "tok-")
				if !ok {
					t.Errorf("unexpected access token %q", tok.AccessToken)
					return
				}
				seq, err := strconv.Atoi(seqStr)
				if err != nil {
					t.Errorf("unexpected access token %q", tok.AccessToken)
					return
				}
				if want := epoch.Add(time.Duration(seq) * time.Second); !tok.Expiry.Equal(want) {
					t.Errorf(
						"torn read: token %q paired with expiry %v, want %v",
						tok.AccessToken, tok.Expiry, want,
					)
					return
				}
			}
		}()
	}

	for i := 0; i < writes; i++ {
		store.Update(&oauth2.Token{
			AccessToken: fmt.Sprintf("tok-%d", i),
			Expiry:      epoch.Add(time.Duration(i) * time.Second),
		})
	}
	close(done)
	wg.Wait()
}

func TestTokenStore_ClearResetsEverything(t *testing.T) {
	store := NewTokenStore()
	store.Update(testToken("a-token", "r-token", time.Hour))

	store.Clear()

	if store.AccessToken() != "" || store.RefreshToken() != "" {
		t.Errorf("Clear() left credentials behind")
	}
	if store.Token() != nil {
		t.Errorf("Token() = %+v after Clear(), want nil", store.Token())
	}
	if store.ExpiringWithin(time.Hour) {
		t.Errorf("empty store reports as expiring")
	}
}

func TestTokenStore_TokenReturnsCopy(t *testing.T) {
	store := NewTokenStore()
	store.Update(testToken("a-token", "r-token", time.Hour))

	snapshot := store.Token()
	snapshot.AccessToken = "mutated"

	if got := store.AccessToken(); got != "a-token" {
		t.Errorf("mutating a snapshot leaked into the store: %q", got)
	}
}
